package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/vitrine-next/internal/authz"
	"github.com/vitrine-next/internal/cache"
	"github.com/vitrine-next/internal/config"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/queue"
	"github.com/vitrine-next/internal/repository"
	"github.com/vitrine-next/internal/service"

	"gorm.io/gorm"
)

const redisPingTimeout = 2 * time.Second

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	Cache       *cache.Store
	QueueClient *queue.Client

	// Repositories
	CouponRepo           repository.CouponRepository
	CouponRedemptionRepo repository.CouponRedemptionRepository
	AuthzAuditLogRepo    repository.AuthzAuditLogRepository

	// Services
	AuthzService       *authz.Service
	AuthzAuditService  *service.AuthzAuditService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	CouponStatsService *service.CouponStatsService
	TokenService       *service.TokenService
}

// NewContainer 使用全局数据库初始化容器，失败时直接退出
func NewContainer(cfg *config.Config) *Container {
	c, err := New(cfg, models.DB)
	if err != nil {
		logger.Errorw("provider_init_failed", "error", err)
		panic(err)
	}
	return c
}

// New 初始化容器
func New(cfg *config.Config, db *gorm.DB) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}

	// 缓存不可用时降级为直查数据库
	store := cache.NewStore(&cfg.Redis)
	if store.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		if err := store.Ping(ctx); err != nil {
			logger.Warnw("provider_init_redis_failed", "error", err)
		}
		cancel()
	}

	queueClient, err := queue.NewClient(&cfg.Queue, cfg.Coupon.RedemptionMaxRetry)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		Cache:       store,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	c.CouponRepo = repository.NewCouponRepository(c.DB)
	c.CouponRedemptionRepo = repository.NewCouponRedemptionRepository(c.DB)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(c.DB)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		return fmt.Errorf("init authz: %w", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return fmt.Errorf("bootstrap builtin roles: %w", err)
	}
	c.AuthzService = authzService
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)

	var statsCache service.JSONCache
	if c.Cache.Enabled() {
		statsCache = c.Cache
	}
	c.CouponStatsService = service.NewCouponStatsService(c.CouponRepo, c.CouponRedemptionRepo, statsCache, c.Config.Coupon.StatsCacheTTL())
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponRedemptionRepo, c.CouponStatsService)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.CouponRedemptionRepo, c.CouponStatsService)
	c.TokenService = service.NewTokenService(c.Config.JWT, c.Config.UserJWT)
	return nil
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_failed", "error", err)
	}
	if err := c.Cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
