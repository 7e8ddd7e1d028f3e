package handlers

import (
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/chat"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/config"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/extract"
	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/store"
)

// Handler is the core struct with all dependencies
type Handler struct {
	store        *store.Store
	orchestrator *chat.Orchestrator
	balance      *chat.BalanceChecker
	config       *config.Config
}

// NewHandler wires the conversation store, the DeepSeek clients and the
// stream orchestrator.
func NewHandler(db *gorm.DB, redisClient *redis.Client, config *config.Config) *Handler {
	st := store.New(db, redisClient)
	upstream := chat.NewUpstreamClient(config.DeepSeekAPIURL, config.DeepSeekAPIKey)
	orchestrator := chat.NewOrchestrator(st, upstream, extract.New())
	balance := chat.NewBalanceChecker(config.DeepSeekBalanceURL, config.DeepSeekModelsURL)

	return &Handler{
		store:        st,
		orchestrator: orchestrator,
		balance:      balance,
		config:       config,
	}
}
