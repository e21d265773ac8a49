package handler

import (
	"alerta_social/middleware"
	"alerta_social/service"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
)

// PostHandler is the write path for postagens, curtidas and comentarios.
// Every action commits first and then hands the result to the emitters.
type PostHandler struct {
	postSvc  *service.PostService
	userSvc  *service.UserService
	emitters service.Emitters
}

func NewPostHandler(postSvc *service.PostService, userSvc *service.UserService, emitters service.Emitters) *PostHandler {
	return &PostHandler{postSvc: postSvc, userSvc: userSvc, emitters: emitters}
}

type createPostRequest struct {
	Content string `json:"conteudo" binding:"required,max=5000"`
	Type    string `json:"tipo" binding:"omitempty,max=30"`
}

type createCommentRequest struct {
	Content string `json:"conteudo" binding:"required,max=2000"`
}

// CreatePost stores a notice and broadcasts nova_postagem
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "conteúdo inválido")
		return
	}

	ctx := c.Request.Context()
	author, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao criar postagem")
		return
	}

	post, err := h.postSvc.CreatePost(ctx, userID, req.Content, req.Type)
	if err != nil {
		respondServiceError(c, err, "erro ao criar postagem")
		return
	}

	emitCtx, cancel := emitContext(c)
	defer cancel()
	h.emitters.NewPost(emitCtx, post, author.Name)
	utils.CreatedResponse(c, gin.H{"postagem": post})
}

// DeletePost removes the caller's own post and broadcasts postagem_excluida
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.postSvc.DeletePost(ctx, userID, postID); err != nil {
		respondServiceError(c, err, "erro ao excluir postagem")
		return
	}

	emitCtx, cancel := emitContext(c)
	defer cancel()
	h.emitters.PostDeleted(emitCtx, postID)
	utils.SuccessWithMessage(c, "postagem excluída", nil)
}

// ToggleLike likes or unlikes a post. Only a new like notifies the owner.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	actor, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao curtir postagem")
		return
	}

	post, liked, total, err := h.postSvc.ToggleLike(ctx, userID, postID)
	if err != nil {
		respondServiceError(c, err, "erro ao curtir postagem")
		return
	}

	if liked {
		emitCtx, cancel := emitContext(c)
		defer cancel()
		h.emitters.NewLike(emitCtx, service.LikeInput{
			PostID:    post.ID,
			ActorID:   userID,
			OwnerID:   post.UserID,
			ActorName: actor.Name,
		})
	}

	utils.SuccessResponse(c, gin.H{"curtido": liked, "total_curtidas": total})
}

// AddComment stores a comment, notifies the post owner and broadcasts novo_comentario
func (h *PostHandler) AddComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "conteúdo inválido")
		return
	}

	ctx := c.Request.Context()
	actor, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		respondServiceError(c, err, "erro ao comentar")
		return
	}

	comment, post, err := h.postSvc.AddComment(ctx, userID, postID, req.Content)
	if err != nil {
		respondServiceError(c, err, "erro ao comentar")
		return
	}

	emitCtx, cancel := emitContext(c)
	defer cancel()
	h.emitters.NewComment(emitCtx, service.CommentInput{
		CommentID:     comment.ID,
		PostID:        post.ID,
		ActorID:       userID,
		OwnerID:       post.UserID,
		ActorName:     actor.Name,
		ActorUsername: actor.Username,
		Content:       comment.Content,
		CreatedAt:     comment.CreatedAt,
	})
	utils.CreatedResponse(c, gin.H{"comentario": comment})
}

// DeleteComment removes a comment and broadcasts the new total
func (h *PostHandler) DeleteComment(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	comment, total, err := h.postSvc.DeleteComment(ctx, userID, commentID)
	if err != nil {
		respondServiceError(c, err, "erro ao excluir comentário")
		return
	}

	emitCtx, cancel := emitContext(c)
	defer cancel()
	h.emitters.CommentDeleted(emitCtx, comment.PostID, comment.ID, total)
	utils.SuccessResponse(c, gin.H{"total_comentarios": total})
}
