package handlers

import (
	"errors"
	"log"
	"net/http"

	"event-escrow/internal/auth"
	"event-escrow/internal/models"
	"event-escrow/internal/services"
	"event-escrow/internal/wallet"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service *services.EscrowService
	ledger  *wallet.Ledger
	admin   models.Identity
}

func NewAdminHandler(service *services.EscrowService, ledger *wallet.Ledger, admin models.Identity) *AdminHandler {
	return &AdminHandler{
		service: service,
		ledger:  ledger,
		admin:   admin,
	}
}

// AdminMiddleware checks if the caller is the configured administrator
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, exists := auth.GetIdentity(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if identity != h.admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SetFee updates the fee rate
// PUT /api/admin/fee
func (h *AdminHandler) SetFee(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)

	var req models.SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetFee(c.Request.Context(), *req.Rate, identity); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Admin] Fee rate set to %d by %s", *req.Rate, identity)
	c.JSON(http.StatusOK, gin.H{"success": true, "rate": *req.Rate})
}

// CreditAccount deposits funds into a custody account
// POST /api/admin/accounts/credit
func (h *AdminHandler) CreditAccount(c *gin.Context) {
	identity, _ := auth.GetIdentity(c)

	var req models.CreditAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	address, err := models.ParseIdentity(req.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.Credit(c.Request.Context(), address, req.Amount); err != nil {
		if errors.Is(err, wallet.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[Admin] Credited %d to %s by %s", req.Amount, address, identity)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"address": address,
		"balance": balance,
	})
}
