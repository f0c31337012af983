package handlers

import (
	"context"
	"net/http"
	"time"

	"event-escrow/internal/blockchain"
	"event-escrow/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports database, height clock and RPC status
type HealthHandler struct {
	db     *gorm.DB
	clock  services.Clock
	solana *blockchain.SolanaClient
}

// NewHealthHandler creates a new HealthHandler. solana may be nil when
// heights come from a local clock.
func NewHealthHandler(db *gorm.DB, clock services.Clock, solana *blockchain.SolanaClient) *HealthHandler {
	return &HealthHandler{
		db:     db,
		clock:  clock,
		solana: solana,
	}
}

// Health reports whether the database answers and the current height
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	}

	height, err := h.clock.CurrentHeight(ctx)
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["clock"] = err.Error()
	} else {
		body["height"] = height
	}

	c.JSON(status, body)
}

// Solana runs RPC diagnostics
// GET /health/solana
func (h *HealthHandler) Solana(c *gin.Context) {
	if h.solana == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "solana clock not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result := h.solana.RunDiagnostics(ctx)
	status := http.StatusOK
	if !result.RPCConnected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
