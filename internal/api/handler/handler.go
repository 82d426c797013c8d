package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"connectly/backend/internal/apperr"
	"connectly/backend/internal/calls"
	"connectly/backend/internal/chathub"
	"connectly/backend/internal/messaging"
)

// Handler wires the HTTP surface to the realtime hub and domain services.
type Handler struct {
	Registry  *chathub.Registry
	Router    *chathub.Router
	Messages  *messaging.Service
	Calls     *calls.Service
	JWTSecret []byte
}

// NewHandler constructs the HTTP handler.
func NewHandler(registry *chathub.Registry, router *chathub.Router, messages *messaging.Service, callSvc *calls.Service, jwtSecret []byte) *Handler {
	return &Handler{
		Registry:  registry,
		Router:    router,
		Messages:  messages,
		Calls:     callSvc,
		JWTSecret: jwtSecret,
	}
}

// RegisterRoutes attaches all routes to the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/token", h.GetToken)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api", h.AuthRequired())

	messages := api.Group("/messages")
	messages.POST("/send", h.SendMessage)
	messages.GET("/chat/:userId", h.GetChatHistory)
	messages.PUT("/read", h.MarkMessagesRead)
	messages.GET("/unread", h.GetUnreadCount)
	messages.GET("/conversations", h.GetRecentConversations)
	messages.PUT("/:messageId", h.EditMessage)
	messages.DELETE("/:messageId", h.DeleteMessage)

	callRoutes := api.Group("/calls")
	callRoutes.POST("/start", h.StartCall)
	callRoutes.POST("/answer", h.AnswerCall)
	callRoutes.POST("/decline", h.DeclineCall)
	callRoutes.POST("/end", h.EndCall)
	callRoutes.GET("/history", h.GetCallHistory)
	callRoutes.GET("/active", h.GetActiveCall)
	callRoutes.GET("/stats", h.GetCallStats)
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// writeError maps a domain error to its HTTP status.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeBadRequest:
		status = http.StatusBadRequest
	case apperr.CodeConflict:
		status = http.StatusConflict
	case apperr.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"success": false, "error": apperr.MessageOf(err)})
}

// currentUserID reads the authenticated user set by the auth middleware.
func currentUserID(c *gin.Context) (string, error) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", errors.New("no authenticated user in context")
	}
	return v.(string), nil
}
