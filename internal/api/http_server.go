package api

import (
	"context"
	"net/http"
	"time"

	"bloodbank/internal/auth"
	"bloodbank/internal/config"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/service"
	"bloodbank/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 5 * time.Second

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg     config.Config
	repo    model.Repository
	metrics *metrics.Metrics

	// 服务层
	auth      *service.AuthService
	donors    *service.DonorService
	donations *service.DonationService
	inventory *service.InventoryService
	requests  *service.RequestService
	stats     *service.StatsService
	backups   *service.BackupService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage, m *metrics.Metrics) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	thresholds := cfg.Thresholds()
	ids := service.UUIDGenerator{}
	inventory := service.NewInventoryService(repo, thresholds, m)
	donations := service.NewDonationService(repo, inventory, ids, m)

	return &HTTPHandler{
		cfg:       cfg,
		repo:      repo,
		metrics:   m,
		auth:      service.NewAuthService(repo, auth.NewBcryptHasher(0), tokens, cfg.SignupEnabled),
		donors:    service.NewDonorService(repo, donations, ids, m),
		donations: donations,
		inventory: inventory,
		requests:  service.NewRequestService(repo, inventory, ids, m),
		stats:     service.NewStatsService(repo, thresholds, m, cfg.StatsCacheSize, cfg.StatsCacheTTL),
		backups:   service.NewBackupService(repo, store),
	}, nil
}

// RegisterRoutes 注册所有 HTTP 路由
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.GET("/status", h.AuthStatus)
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", h.AuthMiddleware(), h.Me)
	authGroup.PATCH("/me", h.AuthMiddleware(), h.UpdateMe)

	protected := apiGroup.Group("")
	protected.Use(h.AuthMiddleware())
	protected.GET("/dashboard", h.Dashboard)

	protected.GET("/donors", h.ListDonors)
	protected.POST("/donors", h.CreateDonor)
	protected.GET("/donors/eligible", h.EligibleDonors)
	protected.GET("/donors/:id", h.GetDonor)
	protected.PATCH("/donors/:id", h.UpdateDonor)

	protected.GET("/donations", h.ListDonations)
	protected.POST("/donations", h.CreateDonation)
	protected.PATCH("/donations/:id", h.UpdateDonation)

	protected.GET("/inventory", h.ListInventory)
	protected.POST("/update_stock", h.RequireAdmin(), h.UpdateStock)

	protected.GET("/requests", h.ListRequests)
	protected.POST("/requests", h.CreateRequest)
	protected.POST("/requests/:id/approve", h.ApproveRequest)
	protected.POST("/requests/:id/reject", h.RejectRequest)
	protected.POST("/requests/:id/cancel", h.CancelRequest)
	protected.POST("/requests/:id/fulfill", h.FulfillRequest)

	userAdmin := protected.Group("/users")
	userAdmin.Use(h.RequireAdmin())
	userAdmin.GET("", h.ListUsers)

	admin := protected.Group("/admin")
	admin.Use(h.RequireAdmin())
	admin.GET("/health-report", h.HealthReport)
	admin.POST("/backups", h.CreateBackup)
}

// Health 存活检查，包含数据库连通性
func (h *HTTPHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.repo.Ping(ctx); err != nil {
		logrus.WithError(err).Warn("health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

// requestContext 为服务调用派生带超时的上下文，身份信息已由中间件写入
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}
