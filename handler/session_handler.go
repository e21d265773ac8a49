package handler

import (
	"alerta_social/middleware"
	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes presence reads and logout.
type SessionHandler struct {
	hub       *Hub
	friendSvc *service.FriendshipService
	presence  *service.PresenceService
}

func NewSessionHandler(hub *Hub, friendSvc *service.FriendshipService, presence *service.PresenceService) *SessionHandler {
	return &SessionHandler{hub: hub, friendSvc: friendSvc, presence: presence}
}

// GetPresence tells a user whether a friend is online. Non-friends get 403.
func (h *SessionHandler) GetPresence(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if targetID != userID {
		friends, err := h.friendSvc.AreFriends(ctx, userID, targetID)
		if err != nil {
			respondServiceError(c, err, "erro ao consultar presença")
			return
		}
		if !friends {
			utils.Forbidden(c, "presença disponível apenas para amigos")
			return
		}
	}

	online := h.hub.IsOnline(targetID)
	if !online {
		// another process may hold the connection
		mirrored, err := h.presence.IsOnline(ctx, targetID)
		if err != nil {
			utils.WithModule("presence").Warn("presence lookup failed", zap.Uint("user_id", targetID), zap.Error(err))
		}
		online = mirrored
	}

	utils.SuccessResponse(c, gin.H{"usuario_id": targetID, "online": online})
}

// Logout drops every live connection of the caller
func (h *SessionHandler) Logout(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	closed := h.hub.ForceOffline(userID)
	utils.SuccessResponse(c, gin.H{"conexoes_encerradas": closed})
}
