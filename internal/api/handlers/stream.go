package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/middleware"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/response"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/chat"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/store"
)

type streamMessageRequest struct {
	Content string `json:"content" form:"content"`
	Model   string `json:"model" form:"model"`
	APIKey  string `json:"api_key" form:"api_key"`
}

type regenerateRequest struct {
	MessageID string `json:"message_id" form:"message_id" binding:"required"`
	Type      string `json:"type" form:"type"`
	Model     string `json:"model" form:"model"`
	APIKey    string `json:"api_key" form:"api_key"`
}

// StreamMessageHandler starts a new conversation turn: it persists the user
// message (with any uploaded files), then streams the AI reply over SSE.
// Accepts multipart form data or plain JSON.
func (h *Handler) StreamMessageHandler(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.store.GetSession(c.Request.Context(), userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to load session")
		return
	}

	var req streamMessageRequest
	var files []chat.UploadedFile

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
		files, err = h.saveUploads(c)
		if err != nil {
			log.Printf("Failed to save uploads: %v", err)
			response.Error(c, http.StatusInternalServerError, "Failed to save uploaded files")
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
			return
		}
	}

	if strings.TrimSpace(req.Content) == "" && len(files) == 0 {
		response.Error(c, http.StatusBadRequest, "Message content or files required")
		return
	}

	run, err := h.orchestrator.PrepareNewMessage(c.Request.Context(), chat.NewMessageRequest{
		Session: session,
		Content: req.Content,
		Model:   h.resolveModel(req.Model),
		APIKey:  h.resolveAPIKey(c, req.APIKey),
		Files:   files,
	})
	if err != nil {
		log.Printf("Failed to prepare message stream: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to start message stream")
		return
	}

	h.stream(c, run)
}

// RegenerateHandler rewrites or continues an existing AI message, selected
// by the type field (regenerate or continue), streaming the result over SSE.
func (h *Handler) RegenerateHandler(c *gin.Context) {
	userID := middleware.UserID(c)
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid session ID")
		return
	}

	session, err := h.store.GetSession(c.Request.Context(), userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to load session")
		return
	}

	var req regenerateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid message ID")
		return
	}

	switch req.Type {
	case "", "regenerate", "continue":
	default:
		response.Error(c, http.StatusBadRequest, "Type must be 'regenerate' or 'continue'")
		return
	}

	run, err := h.orchestrator.PrepareRegenerate(c.Request.Context(), chat.RegenerateRequest{
		Session:   session,
		MessageID: messageID,
		Continue:  req.Type == "continue",
		Model:     h.resolveModel(req.Model),
		APIKey:    h.resolveAPIKey(c, req.APIKey),
	})
	if errors.Is(err, store.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "AI message not found in this session")
		return
	}
	if err != nil {
		log.Printf("Failed to prepare regenerate stream: %v", err)
		response.Error(c, http.StatusInternalServerError, "Failed to start regenerate stream")
		return
	}

	h.stream(c, run)
}

// stream commits the SSE headers and drives the run to its terminal status.
// After this point failures surface as in-stream error events, not HTTP
// status codes.
func (h *Handler) stream(c *gin.Context, run *chat.Run) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	run.Stream(c.Request.Context(), chat.NewEncoder(c.Writer))
}

// saveUploads stores each multipart file under the upload directory with a
// unique name and returns its saved location paired with the original name.
func (h *Handler) saveUploads(c *gin.Context) ([]chat.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(h.config.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	var files []chat.UploadedFile
	for _, upload := range uploads {
		name := filepath.Base(upload.Filename)
		stored := filepath.Join(h.config.UploadDir, uuid.New().String()+filepath.Ext(name))
		if err := c.SaveUploadedFile(upload, stored); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", name, err)
		}
		files = append(files, chat.UploadedFile{Name: name, Path: stored})
	}
	return files, nil
}

func (h *Handler) resolveModel(model string) string {
	if strings.TrimSpace(model) == "" {
		return h.config.DefaultModel
	}
	return model
}

// resolveAPIKey prefers the per-request key, accepted either in the body or
// in the X-DeepSeek-API-Key header. An empty result falls through to the
// configured default inside the upstream client.
func (h *Handler) resolveAPIKey(c *gin.Context, bodyKey string) string {
	if key := strings.TrimSpace(bodyKey); key != "" {
		return key
	}
	return strings.TrimSpace(c.GetHeader("X-DeepSeek-API-Key"))
}
