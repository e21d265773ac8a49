package model

import "time"

// Server -> client event names
const (
	EventConnected        = "connected"
	EventUnreadCount      = "total_nao_lidas"
	EventNotificationList = "lista_notificacoes"
	EventNotification     = "notificacao"
	EventNewPost          = "nova_postagem"
	EventNewComment       = "novo_comentario"
	EventCommentDeleted   = "comentario_excluido"
	EventPostDeleted      = "postagem_excluida"
	EventFriendRequest    = "nova_solicitacao_amizade"
	EventFriendAccepted   = "amizade_aceita"
	EventError            = "erro"
)

// Client -> server event names
const (
	EventRequestNotifications = "solicitar_notificacoes"
	EventMarkRead             = "marcar_lida"
	EventMarkAllRead          = "marcar_todas_lidas"
	EventHeartbeat            = "heartbeat"
)

// Envelope is the frame written on the socket for every event.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type ConnectedEvent struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	UserID    uint      `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationEvent is the targeted "notificacao" payload.
type NotificationEvent struct {
	ID        uint      `json:"id"`
	Type      string    `json:"tipo"`
	Message   string    `json:"mensagem"`
	PostID    *uint     `json:"postagemId"`
	Sender    string    `json:"remetente"`
	SenderID  uint      `json:"remetenteId"`
	Timestamp time.Time `json:"timestamp"`
	Comment   *string   `json:"comentario,omitempty"`
}

type NewPostEvent struct {
	ID        uint      `json:"id"`
	Author    string    `json:"usuario"`
	AuthorID  uint      `json:"usuario_id"`
	Content   string    `json:"conteudo"`
	Type      string    `json:"tipo"`
	CreatedAt time.Time `json:"criado_em"`
}

type NewCommentEvent struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"postagemId"`
	UserID    uint      `json:"usuarioId"`
	UserName  string    `json:"nomeUsuario"`
	Username  string    `json:"username"`
	Content   string    `json:"conteudo"`
	Timestamp time.Time `json:"timestamp"`
}

type CommentDeletedEvent struct {
	PostID        uint  `json:"postagemId"`
	CommentID     uint  `json:"comentarioId"`
	TotalComments int64 `json:"totalComentarios"`
}

type PostDeletedEvent struct {
	PostID uint `json:"postagemId"`
}

// FriendEvent carries both nova_solicitacao_amizade and amizade_aceita.
type FriendEvent struct {
	FriendshipID uint      `json:"id"`
	UserID       uint      `json:"usuarioId"`
	UserName     string    `json:"nome"`
	Message      string    `json:"mensagem"`
	Timestamp    time.Time `json:"timestamp"`
}

type ErrorEvent struct {
	Message string `json:"mensagem"`
}

// MarkReadRequest is the validated marcar_lida payload.
type MarkReadRequest struct {
	NotificationID uint `json:"notificacaoId" validate:"required,gt=0"`
}
