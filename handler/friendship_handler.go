package handler

import (
	"alerta_social/middleware"
	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	friendSvc *service.FriendshipService
	userSvc   *service.UserService
	emitters  service.Emitters
}

func NewFriendshipHandler(friendSvc *service.FriendshipService, userSvc *service.UserService, emitters service.Emitters) *FriendshipHandler {
	return &FriendshipHandler{friendSvc: friendSvc, userSvc: userSvc, emitters: emitters}
}

type friendRequestBody struct {
	TargetID uint `json:"amigo_id" binding:"required,gt=0"`
}

// SendRequest creates a friend request and notifies the target if online
func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req friendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "amigo_id inválido")
		return
	}

	ctx := c.Request.Context()
	requester, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao enviar solicitação")
		return
	}

	friendship, err := h.friendSvc.Request(ctx, userID, req.TargetID)
	if err != nil {
		respondServiceError(c, err, "erro ao enviar solicitação")
		return
	}

	emitCtx, cancel := emitContext(c)
	defer cancel()
	h.emitters.FriendRequest(emitCtx, friendship, requester.Name)
	utils.CreatedResponse(c, gin.H{"solicitacao": friendship})
}

// AcceptRequest accepts a pending request addressed to the caller
func (h *FriendshipHandler) AcceptRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	friendshipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	accepter, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao aceitar solicitação")
		return
	}

	friendship, err := h.friendSvc.Accept(ctx, friendshipID, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao aceitar solicitação")
		return
	}

	emitCtx, cancel := emitContext(c)
	defer cancel()
	h.emitters.FriendAccepted(emitCtx, friendship, accepter.Name)
	utils.SuccessResponse(c, gin.H{"solicitacao": friendship})
}

// RejectRequest declines a pending request. The requester is not notified.
func (h *FriendshipHandler) RejectRequest(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	friendshipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	friendship, err := h.friendSvc.Reject(c.Request.Context(), friendshipID, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao recusar solicitação")
		return
	}

	utils.SuccessResponse(c, gin.H{"solicitacao": friendship})
}

func (h *FriendshipHandler) ListPending(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	requests, err := h.friendSvc.ListPending(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "erro ao buscar solicitações")
		return
	}

	utils.SuccessResponse(c, gin.H{"solicitacoes": requests})
}
