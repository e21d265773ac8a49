package handler

import (
	"context"
	"strconv"

	"alerta_social/middleware"
	"alerta_social/model"
	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notifSvc  *service.NotificationService
	publisher service.EventPublisher
	listLimit int
}

func NewNotificationHandler(notifSvc *service.NotificationService, publisher service.EventPublisher, listLimit int) *NotificationHandler {
	if listLimit <= 0 {
		listLimit = service.DefaultListLimit
	}
	return &NotificationHandler{notifSvc: notifSvc, publisher: publisher, listLimit: listLimit}
}

// GetNotifications returns a page of notifications, newest first, with the unread total
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.listLimit)))
	if err != nil || limit <= 0 || limit > h.listLimit {
		limit = h.listLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	notifications, err := h.notifSvc.List(ctx, userID, limit, offset)
	if err != nil {
		respondServiceError(c, err, "erro ao buscar notificações")
		return
	}

	unread, err := h.notifSvc.UnreadCount(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao buscar notificações")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"notificacoes":    notifications,
		"total_nao_lidas": unread,
	})
}

// MarkAsRead marks one of the caller's notifications. Someone else's id changes nothing.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	updated, err := h.notifSvc.MarkRead(ctx, userID, notificationID)
	if err != nil {
		respondServiceError(c, err, "erro ao marcar notificação como lida")
		return
	}

	unread, err := h.pushUnreadCount(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao buscar total de notificações não lidas")
		return
	}
	utils.SuccessResponse(c, gin.H{"atualizadas": updated, "total_nao_lidas": unread})
}

// MarkAllAsRead marks every notification of the caller as read
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	ctx := c.Request.Context()
	if err := h.notifSvc.MarkAllRead(ctx, userID); err != nil {
		respondServiceError(c, err, "erro ao marcar notificações como lidas")
		return
	}

	unread, err := h.pushUnreadCount(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao buscar total de notificações não lidas")
		return
	}
	utils.SuccessResponse(c, gin.H{"total_nao_lidas": unread})
}

// pushUnreadCount keeps the caller's open sockets in step with the HTTP write.
func (h *NotificationHandler) pushUnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := h.notifSvc.UnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	h.publisher.EmitToUser(userID, model.EventUnreadCount, count)
	return count, nil
}
