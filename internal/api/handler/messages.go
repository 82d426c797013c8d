package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ReceiverID string  `json:"receiverId" binding:"required"`
	Content    string  `json:"content" binding:"required"`
	Type       string  `json:"type"`
	ReplyTo    *string `json:"replyTo"`
}

// SendMessage is the REST fallback for send_message.
func (h *Handler) SendMessage(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	msg, err := h.Messages.Send(userID, req.ReceiverID, req.Content, req.Type, req.ReplyTo)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": msg})
}

// GetChatHistory returns one page of the conversation with another user.
func (h *Handler) GetChatHistory(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	otherUserID := c.Param("userId")
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)

	messages, pagination, err := h.Messages.GetChatHistory(userID, otherUserID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"messages": messages, "pagination": pagination},
	})
}

type markReadRequest struct {
	SenderID string `json:"senderId" binding:"required"`
}

// MarkMessagesRead bulk-marks messages from a sender as read.
func (h *Handler) MarkMessagesRead(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.Messages.MarkRead(req.SenderID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetUnreadCount returns the caller's unread message count.
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	count, err := h.Messages.GetUnreadCount(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"unreadCount": count}})
}

type editMessageRequest struct {
	NewContent string `json:"newContent" binding:"required"`
}

// EditMessage updates the caller's own message.
func (h *Handler) EditMessage(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	msg, err := h.Messages.EditMessage(c.Param("messageId"), userID, req.NewContent)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": msg})
}

// DeleteMessage soft-deletes the caller's own message.
func (h *Handler) DeleteMessage(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if _, err := h.Messages.DeleteMessage(c.Param("messageId"), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetRecentConversations returns the caller's conversation list.
func (h *Handler) GetRecentConversations(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	limit := queryInt(c, "limit", 0)

	conversations, err := h.Messages.RecentConversations(userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": conversations})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
