package service

import (
	"context"
	"fmt"

	"alerta_social/model"
	"alerta_social/utils"

	"gorm.io/gorm"
)

// DefaultListLimit caps lista_notificacoes when no limit is configured.
const DefaultListLimit = 50

type NotificationService struct {
	db        *gorm.DB
	listLimit int
}

func NewNotificationService(db *gorm.DB, listLimit int) *NotificationService {
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &NotificationService{db: db, listLimit: listLimit}
}

// CreateNotificationInput describes one notification row.
type CreateNotificationInput struct {
	RecipientID uint
	SenderID    uint
	PostID      *uint
	Type        string
	Message     string
}

// Create persists a notification. Self-notifications are refused with ErrSelfAction.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*model.Notification, error) {
	if input.RecipientID == 0 {
		return nil, fmt.Errorf("notification recipient is required: %w", ErrInvalidInput)
	}
	if input.RecipientID == input.SenderID {
		return nil, ErrSelfAction
	}
	if !model.IsValidNotificationType(input.Type) {
		return nil, fmt.Errorf("notification type %q: %w", input.Type, ErrInvalidInput)
	}

	notification := &model.Notification{
		UserID:  input.RecipientID,
		PostID:  input.PostID,
		Type:    input.Type,
		Message: input.Message,
	}
	if input.SenderID != 0 {
		senderID := input.SenderID
		notification.SenderID = &senderID
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	utils.NotificationsPersisted.WithLabelValues(input.Type).Inc()
	return notification, nil
}

// HasPostNotification reports whether senderID already notified recipientID
// about postID with the given tipo.
func (s *NotificationService) HasPostNotification(ctx context.Context, recipientID, senderID, postID uint, notifType string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("usuario_id = ? AND remetente_id = ? AND postagem_id = ? AND tipo = ?", recipientID, senderID, postID, notifType).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return count > 0, nil
}

// ListRecent returns the newest notifications of userID, capped by the list limit.
func (s *NotificationService) ListRecent(ctx context.Context, userID uint) ([]model.NotificationListItem, error) {
	return s.List(ctx, userID, s.listLimit, 0)
}

// List returns a page of notifications, newest first, with the sender name.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]model.NotificationListItem, error) {
	if limit <= 0 || limit > s.listLimit {
		limit = s.listLimit
	}
	if offset < 0 {
		offset = 0
	}

	items := make([]model.NotificationListItem, 0)
	err := s.db.WithContext(ctx).
		Table("notificacoes n").
		Select("n.id, n.tipo, n.mensagem, n.lida, n.postagem_id, n.criada_em, u.nome AS remetente_nome").
		Joins("LEFT JOIN usuarios u ON u.id = n.remetente_id").
		Where("n.usuario_id = ?", userID).
		Order("n.criada_em DESC, n.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	return items, nil
}

// UnreadCount counts unread notifications of userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("usuario_id = ? AND lida = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. The row must belong to userID;
// otherwise zero rows change and no error is returned.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND usuario_id = ?", notificationID, userID).
		Update("lida", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkAllRead flags every unread notification of userID as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("usuario_id = ? AND lida = ?", userID, false).
		Update("lida", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}
