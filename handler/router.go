package handler

import (
	"alerta_social/middleware"
	"alerta_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Hub           *Hub
	Verifier      *middleware.Verifier
	Posts         *PostHandler
	Friendships   *FriendshipHandler
	Notifications *NotificationHandler
	Sessions      *SessionHandler
}

// NewRouter builds the gin engine with the public, socket and authenticated routes.
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandlerMiddleware())

	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// the socket authenticates with ?token= or a Bearer header, not the HTTP middleware
	r.GET("/ws", HandleWebSocket(h.Hub))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(h.Verifier))
	{
		api.POST("/postagens", h.Posts.CreatePost)
		api.DELETE("/postagens/:id", h.Posts.DeletePost)
		api.POST("/postagens/:id/curtir", h.Posts.ToggleLike)
		api.POST("/postagens/:id/comentarios", h.Posts.AddComment)
		api.DELETE("/comentarios/:id", h.Posts.DeleteComment)

		api.POST("/amigos/solicitar", h.Friendships.SendRequest)
		api.POST("/amigos/:id/aceitar", h.Friendships.AcceptRequest)
		api.POST("/amigos/:id/recusar", h.Friendships.RejectRequest)
		api.GET("/amigos/pendentes", h.Friendships.ListPending)

		api.GET("/notificacoes", h.Notifications.GetNotifications)
		api.POST("/notificacoes/:id/lida", h.Notifications.MarkAsRead)
		api.POST("/notificacoes/lidas", h.Notifications.MarkAllAsRead)

		api.GET("/presenca/:id", h.Sessions.GetPresence)
		api.POST("/logout", h.Sessions.Logout)
	}

	return r
}
