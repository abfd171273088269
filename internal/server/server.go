package server

import (
	"context"
	"net/http"
	"time"

	"overlaykit/internal/admin"
	"overlaykit/internal/auth"
	"overlaykit/internal/payment"
	"overlaykit/internal/purchase"
	"overlaykit/internal/subscription"
	"overlaykit/internal/user"
	"overlaykit/internal/wallet"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Config struct {
	Port           string
	JWTSecret      string
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Users         user.Service
	Wallets       wallet.Service
	Subscriptions subscription.Service
	Purchases     *purchase.Orchestrator
	Payments      *payment.Service
	Reconciler    *payment.Reconciler
	Admin         *admin.Service
	AdminList     *auth.AllowList
	DB            Pinger
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg Config, deps Deps) *Server {
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	userHandler := user.NewHandler(deps.Users)
	walletHandler := wallet.NewHandler(deps.Wallets)
	subHandler := subscription.NewHandler(deps.Subscriptions)
	purchaseHandler := purchase.NewHandler(deps.Purchases)
	paymentHandler := payment.NewHandler(deps.Payments, deps.Reconciler)
	adminHandler := admin.NewHandler(deps.Admin)

	router.GET("/health", Health)
	router.GET("/ready", Ready(deps.DB))
	router.GET("/metrics", Metrics())

	// Processor callbacks come from a handful of addresses and must never be
	// throttled into a retry storm.
	hooks := router.Group("/webhooks")
	{
		hooks.GET("/crypto", paymentHandler.Webhook)
		hooks.POST("/crypto", paymentHandler.Webhook)
	}

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	public := limited.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}
	limited.GET("/packages", subHandler.ListPackages)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := limited.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/wallet", walletHandler.GetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/subscriptions", subHandler.ListMy)
		protected.GET("/subscriptions/active", subHandler.GetActive)
		protected.POST("/purchase", purchaseHandler.Purchase)
		protected.POST("/payments", paymentHandler.CreateTopUp)
		protected.GET("/payments", paymentHandler.List)
		protected.GET("/payments/:id", paymentHandler.Get)
	}

	adminGroup := limited.Group("/admin")
	adminGroup.Use(authMiddleware, auth.RequireAdmin(deps.AdminList, deps.Users))
	{
		adminGroup.GET("/audit", adminHandler.ListAudit)
		adminGroup.PATCH("/users/:userID", adminHandler.EditUser)
		adminGroup.DELETE("/users/:userID", adminHandler.DeleteUser)
		adminGroup.POST("/users/:userID/lock", adminHandler.LockUser)
		adminGroup.POST("/users/:userID/unlock", adminHandler.UnlockUser)
		adminGroup.GET("/users/:userID/wallet", adminHandler.GetUserWallet)
		adminGroup.POST("/users/:userID/wallet", adminHandler.AdjustWallet)
		adminGroup.POST("/users/:userID/subscriptions", adminHandler.AssignPackage)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
