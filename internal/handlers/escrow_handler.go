package handlers

import (
	"net/http"
	"strconv"

	"event-escrow/internal/auth"
	"event-escrow/internal/models"
	"event-escrow/internal/services"
	"event-escrow/internal/wallet"

	"github.com/gin-gonic/gin"
)

// EscrowHandler exposes events, outcomes and bets over HTTP
type EscrowHandler struct {
	service *services.EscrowService
	ledger  *wallet.Ledger
}

// NewEscrowHandler creates a new EscrowHandler
func NewEscrowHandler(service *services.EscrowService, ledger *wallet.Ledger) *EscrowHandler {
	return &EscrowHandler{
		service: service,
		ledger:  ledger,
	}
}

func caller(c *gin.Context) (models.Identity, bool) {
	identity, ok := auth.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return identity, true
}

// CreateEvent registers an event created by the caller
// POST /api/events
func (h *EscrowHandler) CreateEvent(c *gin.Context) {
	creator, ok := caller(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventID, err := h.service.CreateEvent(
		c.Request.Context(),
		req.Name,
		req.Category,
		req.StartHeight,
		req.EndHeight,
		models.Identity(req.Oracle),
		creator,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	event, err := h.service.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// CloseEvent stops betting on an event
// POST /api/events/:id/close
func (h *EscrowHandler) CloseEvent(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	eventID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.CloseEvent(c.Request.Context(), eventID, identity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_id": eventID, "status": models.EventStatusClosed})
}

// ResolveEvent declares the winning outcome of a closed event
// POST /api/events/:id/resolve
func (h *EscrowHandler) ResolveEvent(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	eventID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req models.ResolveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ResolveEvent(c.Request.Context(), eventID, req.WinningOutcomeID, identity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id":           eventID,
		"status":             models.EventStatusResolved,
		"winning_outcome_id": req.WinningOutcomeID,
	})
}

// AddOutcome attaches an outcome to an event
// POST /api/events/:id/outcomes
func (h *EscrowHandler) AddOutcome(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	eventID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req models.AddOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.AddOutcome(c.Request.Context(), eventID, req.OutcomeID, req.Description, req.Odds, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	outcome, err := h.service.GetOutcome(c.Request.Context(), eventID, req.OutcomeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, outcome)
}

// ListEvents lists events, optionally filtered by status
// GET /api/events
func (h *EscrowHandler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	events, total, err := h.service.ListEvents(
		c.Request.Context(),
		models.EventStatus(c.Query("status")),
		limit,
		offset,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetEvent returns one event
// GET /api/events/:id
func (h *EscrowHandler) GetEvent(c *gin.Context) {
	eventID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListEventOutcomes returns every outcome of an event
// GET /api/events/:id/outcomes
func (h *EscrowHandler) ListEventOutcomes(c *gin.Context) {
	eventID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	outcomes, err := h.service.ListEventOutcomes(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": outcomes})
}

// GetOutcome returns one outcome
// GET /api/events/:id/outcomes/:outcomeId
func (h *EscrowHandler) GetOutcome(c *gin.Context) {
	eventID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	outcomeID, ok := uintParam(c, "outcomeId")
	if !ok {
		return
	}

	outcome, err := h.service.GetOutcome(c.Request.Context(), eventID, outcomeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// PlaceBet stakes the caller's funds on an outcome
// POST /api/bets
func (h *EscrowHandler) PlaceBet(c *gin.Context) {
	bettor, ok := caller(c)
	if !ok {
		return
	}

	var req models.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	betID, err := h.service.PlaceBet(c.Request.Context(), req.EventID, req.OutcomeID, req.Amount, bettor)
	if err != nil {
		respondError(c, err)
		return
	}

	bet, err := h.service.GetBet(c.Request.Context(), betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bet)
}

// ClaimWinnings pays out a winning bet to its bettor
// POST /api/bets/:id/claim
func (h *EscrowHandler) ClaimWinnings(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	betID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.ClaimWinnings(c.Request.Context(), betID, identity); err != nil {
		respondError(c, err)
		return
	}

	bet, err := h.service.GetBet(c.Request.Context(), betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bet)
}

// GetBet returns one bet
// GET /api/bets/:id
func (h *EscrowHandler) GetBet(c *gin.Context) {
	betID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	bet, err := h.service.GetBet(c.Request.Context(), betID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bet)
}

// GetMyBets returns the caller's bets in placement order
// GET /api/bets
func (h *EscrowHandler) GetMyBets(c *gin.Context) {
	bettor, ok := caller(c)
	if !ok {
		return
	}
	h.respondUserBets(c, bettor)
}

// GetUserBets returns a wallet's bets in placement order
// GET /api/users/:wallet/bets
func (h *EscrowHandler) GetUserBets(c *gin.Context) {
	bettor, err := models.ParseIdentity(c.Param("wallet"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondUserBets(c, bettor)
}

func (h *EscrowHandler) respondUserBets(c *gin.Context, bettor models.Identity) {
	bets, err := h.service.GetUserBetRecords(c.Request.Context(), bettor)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]uint64, 0, len(bets))
	for _, bet := range bets {
		ids = append(ids, bet.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"bettor":  bettor,
		"bet_ids": ids,
		"data":    bets,
	})
}

// GetFee returns the current fee rate in per-mille
// GET /api/fee
func (h *EscrowHandler) GetFee(c *gin.Context) {
	rate, err := h.service.Fee(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rate":  rate,
		"scale": services.FeeScale,
		"max":   services.MaxFeeRate,
	})
}

// GetBalance returns the caller's custody balance and recent movements
// GET /api/wallet/balance
func (h *EscrowHandler) GetBalance(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.ledger.History(c.Request.Context(), identity, 20)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address": identity,
		"balance":        balance,
		"transactions":   history,
	})
}
