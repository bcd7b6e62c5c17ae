package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	httputil "travelpay/pkg/http"
	"travelpay/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
}

type pingFunc func(ctx context.Context) error

type HealthHandler struct {
	pingMongo pingFunc
	pingRedis pingFunc
	log       *logger.Logger
}

// NewHealthHandler builds readiness checks for the configured clients.
// A nil Redis client means the in-memory duplicate guard is in use and is not checked.
func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client, log *logger.Logger) *HealthHandler {
	h := &HealthHandler{log: log}
	if mongoClient != nil {
		h.pingMongo = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}
	if redisClient != nil {
		h.pingRedis = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return h
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ready"}
	status := http.StatusOK

	if h.pingMongo != nil {
		resp.Database = "ok"
		if err := h.pingMongo(ctx); err != nil {
			h.log.Error("Database health check failed", "error", err, "path", r.URL.Path)
			resp.Database = "error"
			status = http.StatusServiceUnavailable
		}
	}

	if h.pingRedis != nil {
		resp.Redis = "ok"
		if err := h.pingRedis(ctx); err != nil {
			h.log.Error("Redis health check failed", "error", err, "path", r.URL.Path)
			resp.Redis = "error"
			status = http.StatusServiceUnavailable
		}
	}

	if status != http.StatusOK {
		resp.Status = "unavailable"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
