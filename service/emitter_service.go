package service

import (
	"context"
	"errors"
	"time"

	"alerta_social/model"
	"alerta_social/utils"

	"go.uber.org/zap"
)

// EventPublisher delivers events to live connections (implemented by the websocket hub).
type EventPublisher interface {
	// EmitToUser sends to every connection joined to the private channel of userID.
	// It reports whether at least one connection received the event.
	EmitToUser(userID uint, event string, data interface{}) bool
	// Broadcast sends to every connected client.
	Broadcast(event string, data interface{})
}

// Emitters is what HTTP handlers call after their own write has committed.
// Every method is best effort: failures are logged and never returned.
type Emitters interface {
	NewPost(ctx context.Context, post *model.Post, authorName string)
	NewLike(ctx context.Context, input LikeInput)
	NewComment(ctx context.Context, input CommentInput)
	FriendRequest(ctx context.Context, friendship *model.Friendship, requesterName string)
	FriendAccepted(ctx context.Context, friendship *model.Friendship, accepterName string)
	PostDeleted(ctx context.Context, postID uint)
	CommentDeleted(ctx context.Context, postID, commentID uint, totalComments int64)
}

// LikeInput describes a like that was just committed. OwnerID 0 means unknown owner.
type LikeInput struct {
	PostID    uint
	ActorID   uint
	OwnerID   uint
	ActorName string
}

// CommentInput describes a comment that was just committed.
type CommentInput struct {
	CommentID     uint
	PostID        uint
	ActorID       uint
	OwnerID       uint
	ActorName     string
	ActorUsername string
	Content       string
	CreatedAt     time.Time
}

type NotificationEmitter struct {
	notifSvc    *NotificationService
	templateSvc *NotificationTemplateService
	publisher   EventPublisher
	now         func() time.Time
}

var _ Emitters = (*NotificationEmitter)(nil)

func NewNotificationEmitter(notifSvc *NotificationService, templateSvc *NotificationTemplateService, publisher EventPublisher) *NotificationEmitter {
	return &NotificationEmitter{
		notifSvc:    notifSvc,
		templateSvc: templateSvc,
		publisher:   publisher,
		now:         time.Now,
	}
}

// NewPost broadcasts nova_postagem to everyone. Nothing is persisted.
func (e *NotificationEmitter) NewPost(ctx context.Context, post *model.Post, authorName string) {
	defer e.recoverEmitter("new_post")

	e.publisher.Broadcast(model.EventNewPost, model.NewPostEvent{
		ID:        post.ID,
		Author:    authorName,
		AuthorID:  post.UserID,
		Content:   post.Content,
		Type:      post.Type,
		CreatedAt: post.CreatedAt,
	})
}

// NewLike notifies the post owner unless the owner liked their own post.
// Liking the same post again after an unlike does not notify twice.
func (e *NotificationEmitter) NewLike(ctx context.Context, input LikeInput) {
	defer e.recoverEmitter("new_like")

	if input.OwnerID == 0 || input.OwnerID == input.ActorID {
		return
	}

	seen, err := e.notifSvc.HasPostNotification(ctx, input.OwnerID, input.ActorID, input.PostID, model.NotificationLike)
	if err != nil {
		e.fail("new_like", err, zap.Uint("post_id", input.PostID), zap.Uint("actor_id", input.ActorID))
		return
	}
	if seen {
		return
	}

	postID := input.PostID
	notification, err := e.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: input.OwnerID,
		SenderID:    input.ActorID,
		PostID:      &postID,
		Type:        model.NotificationLike,
		Message:     e.templateSvc.Render(model.NotificationLike, map[string]string{"nome": input.ActorName}),
	})
	if err != nil {
		e.fail("new_like", err, zap.Uint("post_id", input.PostID), zap.Uint("actor_id", input.ActorID))
		return
	}

	e.publisher.EmitToUser(input.OwnerID, model.EventNotification, e.notificationEvent(notification, input.ActorName, nil))
	e.pushUnreadCount(ctx, "new_like", input.OwnerID)
}

// NewComment notifies the post owner (same guard as NewLike) and always
// broadcasts novo_comentario so comment counters update for everyone.
func (e *NotificationEmitter) NewComment(ctx context.Context, input CommentInput) {
	defer e.recoverEmitter("new_comment")

	if input.OwnerID != 0 && input.OwnerID != input.ActorID {
		postID := input.PostID
		notification, err := e.notifSvc.Create(ctx, CreateNotificationInput{
			RecipientID: input.OwnerID,
			SenderID:    input.ActorID,
			PostID:      &postID,
			Type:        model.NotificationComment,
			Message:     e.templateSvc.Render(model.NotificationComment, map[string]string{"nome": input.ActorName}),
		})
		if err != nil {
			e.fail("new_comment", err, zap.Uint("post_id", input.PostID), zap.Uint("actor_id", input.ActorID))
		} else {
			content := input.Content
			e.publisher.EmitToUser(input.OwnerID, model.EventNotification, e.notificationEvent(notification, input.ActorName, &content))
			e.pushUnreadCount(ctx, "new_comment", input.OwnerID)
		}
	}

	timestamp := input.CreatedAt
	if timestamp.IsZero() {
		timestamp = e.now()
	}
	e.publisher.Broadcast(model.EventNewComment, model.NewCommentEvent{
		ID:        input.CommentID,
		PostID:    input.PostID,
		UserID:    input.ActorID,
		UserName:  input.ActorName,
		Username:  input.ActorUsername,
		Content:   input.Content,
		Timestamp: timestamp,
	})
}

// FriendRequest persists an amizade notification for the target and pushes
// nova_solicitacao_amizade to the target's channel.
func (e *NotificationEmitter) FriendRequest(ctx context.Context, friendship *model.Friendship, requesterName string) {
	defer e.recoverEmitter("friend_request")

	e.friendEvent(ctx, "friend_request", friendship, friendship.TargetID, friendship.RequesterID,
		requesterName, model.NotificationFriendRequest, model.EventFriendRequest)
}

// FriendAccepted persists an amizade_aceita notification for the requester and
// pushes amizade_aceita to the requester's channel.
func (e *NotificationEmitter) FriendAccepted(ctx context.Context, friendship *model.Friendship, accepterName string) {
	defer e.recoverEmitter("friend_accepted")

	e.friendEvent(ctx, "friend_accepted", friendship, friendship.RequesterID, friendship.TargetID,
		accepterName, model.NotificationFriendAccepted, model.EventFriendAccepted)
}

// PostDeleted broadcasts postagem_excluida.
func (e *NotificationEmitter) PostDeleted(ctx context.Context, postID uint) {
	defer e.recoverEmitter("post_deleted")

	e.publisher.Broadcast(model.EventPostDeleted, model.PostDeletedEvent{PostID: postID})
}

// CommentDeleted broadcasts comentario_excluido with the remaining comment count.
func (e *NotificationEmitter) CommentDeleted(ctx context.Context, postID, commentID uint, totalComments int64) {
	defer e.recoverEmitter("comment_deleted")

	e.publisher.Broadcast(model.EventCommentDeleted, model.CommentDeletedEvent{
		PostID:        postID,
		CommentID:     commentID,
		TotalComments: totalComments,
	})
}

func (e *NotificationEmitter) friendEvent(ctx context.Context, emitter string, friendship *model.Friendship,
	recipientID, senderID uint, senderName, notifType, event string) {
	message := e.templateSvc.Render(notifType, map[string]string{"nome": senderName})

	if _, err := e.notifSvc.Create(ctx, CreateNotificationInput{
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notifType,
		Message:     message,
	}); err != nil {
		if errors.Is(err, ErrSelfAction) {
			return
		}
		// the live event still goes out; the row is what failed
		e.fail(emitter, err, zap.Uint("friendship_id", friendship.ID))
	}

	e.publisher.EmitToUser(recipientID, event, model.FriendEvent{
		FriendshipID: friendship.ID,
		UserID:       senderID,
		UserName:     senderName,
		Message:      message,
		Timestamp:    e.now(),
	})
	e.pushUnreadCount(ctx, emitter, recipientID)
}

func (e *NotificationEmitter) notificationEvent(n *model.Notification, senderName string, comment *string) model.NotificationEvent {
	var senderID uint
	if n.SenderID != nil {
		senderID = *n.SenderID
	}
	return model.NotificationEvent{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		PostID:    n.PostID,
		Sender:    senderName,
		SenderID:  senderID,
		Timestamp: n.CreatedAt,
		Comment:   comment,
	}
}

func (e *NotificationEmitter) pushUnreadCount(ctx context.Context, emitter string, userID uint) {
	count, err := e.notifSvc.UnreadCount(ctx, userID)
	if err != nil {
		e.fail(emitter, err, zap.Uint("user_id", userID))
		return
	}
	e.publisher.EmitToUser(userID, model.EventUnreadCount, count)
}

func (e *NotificationEmitter) fail(emitter string, err error, fields ...zap.Field) {
	utils.EmitterFailures.WithLabelValues(emitter).Inc()
	utils.WithModule("emitter").Error("emitter failed",
		append(fields, zap.String("emitter", emitter), zap.Error(err))...)
}

func (e *NotificationEmitter) recoverEmitter(emitter string) {
	if r := recover(); r != nil {
		utils.EmitterFailures.WithLabelValues(emitter).Inc()
		utils.WithModule("emitter").Error("emitter panic", zap.String("emitter", emitter), zap.Any("panic", r))
	}
}
