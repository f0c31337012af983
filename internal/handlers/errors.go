package handlers

import (
	"log"
	"net/http"
	"strconv"

	"event-escrow/internal/services"

	"github.com/gin-gonic/gin"
)

// statusByKind maps ledger error kinds to HTTP status codes
var statusByKind = map[string]int{
	"not_found":           http.StatusNotFound,
	"unauthorized":        http.StatusForbidden,
	"invalid_input":       http.StatusBadRequest,
	"invalid_odds":        http.StatusBadRequest,
	"event_closed":        http.StatusConflict,
	"event_not_closed":    http.StatusConflict,
	"event_not_resolved":  http.StatusConflict,
	"bet_inactive":        http.StatusConflict,
	"outcome_exists":      http.StatusConflict,
	"outcome_not_winning": http.StatusConflict,
	"capacity_exceeded":   http.StatusUnprocessableEntity,
	"transfer_failed":     http.StatusPaymentRequired,
}

// respondError writes err with the status code of its kind
func respondError(c *gin.Context, err error) {
	kind := services.ErrorKind(err)
	status, ok := statusByKind[kind]
	if !ok {
		log.Printf("[Handlers] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "kind": kind})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

// uintParam parses a numeric path parameter
func uintParam(c *gin.Context, name string) (uint64, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return value, true
}
