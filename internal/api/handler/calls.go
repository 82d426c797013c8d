package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type startCallRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Type       string `json:"type"`
}

// StartCall is the REST fallback for start_call.
func (h *Handler) StartCall(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	call, err := h.Calls.StartCall(userID, req.ReceiverID, req.Type)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": call})
}

type callActionRequest struct {
	CallID string `json:"callId" binding:"required"`
	Reason string `json:"reason"`
}

// AnswerCall transitions a ringing call to answered.
func (h *Handler) AnswerCall(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req callActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	call, err := h.Calls.AnswerCall(req.CallID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": call})
}

// DeclineCall transitions a ringing call to declined.
func (h *Handler) DeclineCall(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req callActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	call, err := h.Calls.DeclineCall(req.CallID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": call})
}

// EndCall ends an active call.
func (h *Handler) EndCall(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req callActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	call, err := h.Calls.EndCall(req.CallID, userID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": call})
}

// GetCallHistory returns the caller's calls, filterable by type and status.
func (h *Handler) GetCallHistory(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 0)

	calls, pagination, err := h.Calls.GetCallHistory(userID, page, limit, c.Query("type"), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"calls": calls, "pagination": pagination},
	})
}

// GetActiveCall returns the caller's active call, if any.
func (h *Handler) GetActiveCall(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	call, err := h.Calls.GetActiveCall(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": call})
}

// GetCallStats returns aggregate stats over the caller's calls.
func (h *Handler) GetCallStats(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	stats, err := h.Calls.GetCallStats(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
}
