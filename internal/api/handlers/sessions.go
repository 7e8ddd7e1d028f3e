package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/middleware"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/response"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type UpdateSessionRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

// ListSessionsHandler returns a page of the user's sessions, newest first.
func (h *Handler) ListSessionsHandler(c *gin.Context) {
	userID := middleware.UserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	sessions, total, err := h.store.ListSessions(c.Request.Context(), userID, pageSize, (page-1)*pageSize)
	if err != nil {
		log.Printf("Failed to list sessions: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response.Success(c, http.StatusOK, "Sessions retrieved", gin.H{
		"sessions":  sessions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// CreateSessionHandler creates a new, empty session.
func (h *Handler) CreateSessionHandler(c *gin.Context) {
	userID := middleware.UserID(c)

	// The body is optional; an empty one means a default title.
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if req.Title == "" {
		req.Title = "New Conversation"
	}

	session := models.Session{
		UserID: userID,
		Title:  req.Title,
	}
	if err := h.store.CreateSession(c.Request.Context(), &session); err != nil {
		log.Printf("Failed to create session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to create session")
		return
	}

	response.Success(c, http.StatusCreated, "Session created", session)
}

// GetSessionHandler returns a session with its full ordered message history.
func (h *Handler) GetSessionHandler(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.store.GetSessionDetail(c.Request.Context(), userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to load session")
		return
	}

	response.Success(c, http.StatusOK, "Session retrieved", session)
}

// UpdateSessionHandler renames a session.
func (h *Handler) UpdateSessionHandler(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	session, err := h.store.UpdateSessionTitle(c.Request.Context(), userID, sessionID, req.Title)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("Failed to update session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to update session")
		return
	}

	response.Success(c, http.StatusOK, "Session updated", session)
}

// DeleteSessionHandler removes a session and its messages.
func (h *Handler) DeleteSessionHandler(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid session ID")
		return
	}

	err = h.store.DeleteSession(c.Request.Context(), userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("Failed to delete session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	response.Success(c, http.StatusOK, "Session deleted", nil)
}

// DeleteAllSessionsHandler removes every session of the user.
func (h *Handler) DeleteAllSessionsHandler(c *gin.Context) {
	userID := middleware.UserID(c)

	deleted, err := h.store.DeleteAllSessions(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to delete sessions: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to delete sessions")
		return
	}

	response.Success(c, http.StatusOK, "All sessions deleted", gin.H{"deleted": deleted})
}

// ExportSessionsHandler returns every session with its messages, oldest
// session first, as a single JSON document.
func (h *Handler) ExportSessionsHandler(c *gin.Context) {
	userID := middleware.UserID(c)

	sessions, err := h.store.ExportSessions(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to export sessions: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to export sessions")
		return
	}

	response.Success(c, http.StatusOK, "Sessions exported", gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
