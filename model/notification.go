package model

import "time"

// Notification kinds stored in notificacoes.tipo
const (
	NotificationLike           = "curtida"
	NotificationComment        = "comentario"
	NotificationFriendRequest  = "amizade"
	NotificationFriendAccepted = "amizade_aceita"
)

// Notification records "remetente did tipo on postagem, affecting usuario"
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"usuario_id" gorm:"column:usuario_id;not null;index:idx_notificacoes_usuario_lida"`
	SenderID  *uint     `json:"remetente_id,omitempty" gorm:"column:remetente_id"`
	PostID    *uint     `json:"postagem_id,omitempty" gorm:"column:postagem_id"`
	Type      string    `json:"tipo" gorm:"column:tipo;type:varchar(20);not null"`
	Message   string    `json:"mensagem" gorm:"column:mensagem;type:text;not null"`
	IsRead    bool      `json:"lida" gorm:"column:lida;not null;default:false;index:idx_notificacoes_usuario_lida"`
	CreatedAt time.Time `json:"criada_em" gorm:"column:criada_em;autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notificacoes"
}

// NotificationListItem is one entry of lista_notificacoes, left-joined with the sender name.
type NotificationListItem struct {
	ID         uint      `json:"id" gorm:"column:id"`
	Type       string    `json:"tipo" gorm:"column:tipo"`
	Message    string    `json:"mensagem" gorm:"column:mensagem"`
	IsRead     bool      `json:"lida" gorm:"column:lida"`
	PostID     *uint     `json:"postagem_id" gorm:"column:postagem_id"`
	CreatedAt  time.Time `json:"criada_em" gorm:"column:criada_em"`
	SenderName *string   `json:"remetente_nome" gorm:"column:remetente_nome"`
}

// IsValidNotificationType reports whether t is a known notification kind
func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFriendRequest, NotificationFriendAccepted:
		return true
	}
	return false
}
