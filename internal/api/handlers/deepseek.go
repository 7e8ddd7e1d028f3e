package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/api/response"
)

type checkUsageRequest struct {
	APIKey string `json:"api_key"`
}

// CheckUsageHandler verifies a DeepSeek API key and returns its balance.
// The key comes from the body, the X-DeepSeek-API-Key header or the
// configured default, in that order of preference.
func (h *Handler) CheckUsageHandler(c *gin.Context) {
	var req checkUsageRequest
	// Body is optional; header or configured key may carry the credential.
	_ = c.ShouldBindJSON(&req)

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(c.GetHeader("X-DeepSeek-API-Key"))
	}
	if apiKey == "" {
		apiKey = h.config.DeepSeekAPIKey
	}
	if apiKey == "" {
		response.Error(c, http.StatusBadRequest, "No API key provided")
		return
	}

	data, err := h.balance.Check(c.Request.Context(), apiKey)
	if err != nil {
		response.Error(c, http.StatusBadGateway, err.Error())
		return
	}

	response.Success(c, http.StatusOK, "Balance retrieved", data)
}
