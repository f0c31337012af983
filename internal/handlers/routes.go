package handlers

import (
	"event-escrow/internal/auth"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the authentication, ledger and admin endpoints
func RegisterRoutes(router *gin.Engine, authHandler *AuthHandler, escrowHandler *EscrowHandler, adminHandler *AdminHandler) {
	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public read routes
	public := router.Group("/api")
	{
		public.GET("/events", escrowHandler.ListEvents)
		public.GET("/events/:id", escrowHandler.GetEvent)
		public.GET("/events/:id/outcomes", escrowHandler.ListEventOutcomes)
		public.GET("/events/:id/outcomes/:outcomeId", escrowHandler.GetOutcome)
		public.GET("/bets/:id", escrowHandler.GetBet)
		public.GET("/users/:wallet/bets", escrowHandler.GetUserBets)
		public.GET("/fee", escrowHandler.GetFee)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/events", escrowHandler.CreateEvent)
		api.POST("/events/:id/close", escrowHandler.CloseEvent)
		api.POST("/events/:id/resolve", escrowHandler.ResolveEvent)
		api.POST("/events/:id/outcomes", escrowHandler.AddOutcome)

		api.POST("/bets", escrowHandler.PlaceBet)
		api.GET("/bets", escrowHandler.GetMyBets)
		api.POST("/bets/:id/claim", escrowHandler.ClaimWinnings)

		api.GET("/wallet/balance", escrowHandler.GetBalance)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.PUT("/fee", adminHandler.SetFee)
		admin.POST("/accounts/credit", adminHandler.CreditAccount)
	}
}
