package router

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vitrine-next/internal/authz"
	"github.com/vitrine-next/internal/config"
	adminhandlers "github.com/vitrine-next/internal/http/handlers/admin"
	publichandlers "github.com/vitrine-next/internal/http/handlers/public"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/i18n"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/metrics"
	"github.com/vitrine-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const adminPrefix = "/api/v1/admin/"

// validateBodyLimit 校验接口的请求体上限
const validateBodyLimit = 64 << 10

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "vt"
	}
	var redisClient *redis.Client
	if c.Cache != nil && c.Cache.Enabled() {
		redisClient = c.Cache.Client()
	}
	validateIPRule := buildRule("coupon_validate_ip", redisPrefix, cfg.Security.CouponValidateIPRateLimit)
	validateRule := buildRule("coupon_validate", redisPrefix, cfg.Security.CouponValidateRateLimit)
	adminRule := buildRule("admin", redisPrefix, cfg.Security.AdminRateLimit)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
	}
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		cms := apiV1.Group("/cms")
		{
			// 先按 IP 限制总量，再按 IP + 优惠码限制同一码的重试
			cms.POST("/coupons/validate",
				BodyLimitMiddleware(validateBodyLimit),
				RateLimitMiddleware(redisClient, validateIPRule, KeyByIP),
				RateLimitMiddleware(redisClient, validateRule, KeyByIPAndJSONField("code")),
				OptionalUserJWTMiddleware(c.TokenService),
				publicHandler.ValidateCoupon,
			)
		}

		admin := apiV1.Group("/admin")
		admin.Use(
			AdminJWTMiddleware(c.TokenService),
			RateLimitMiddleware(redisClient, adminRule, KeyByIP),
			AdminRBACMiddleware(c.AuthzService),
		)
		{
			// 优惠券
			admin.GET("/coupons", adminHandler.ListCoupons)
			admin.GET("/coupons/stats", adminHandler.GetCouponStats)
			admin.GET("/coupons/:id", adminHandler.GetCoupon)
			admin.POST("/coupons", adminHandler.CreateCoupon)
			admin.PUT("/coupons/:id", adminHandler.UpdateCoupon)
			admin.PATCH("/coupons/:id/active", adminHandler.SetCouponActive)
			admin.DELETE("/coupons/:id", adminHandler.DeleteCoupon)

			// 核销流水
			admin.GET("/coupon-redemptions", adminHandler.ListCouponRedemptions)
			admin.POST("/coupon-redemptions", adminHandler.RecordCouponRedemption)
			admin.DELETE("/coupon-redemptions/:order_ref", adminHandler.RevokeCouponRedemption)

			// 权限管理
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/roles/:role/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/roles/:role/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/admins/:id/roles", adminHandler.GetAdminRoles)
			admin.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
			admin.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, gin.H{"permissions": buildAdminPermissionCatalog(r)})
			})
		}
	}

	r.GET("/health", healthHandler(c))
	if cfg.Metrics.Enabled {
		path := strings.TrimSpace(cfg.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(metrics.Handler()))
	}

	r.NoRoute(func(ctx *gin.Context) {
		response.Error(ctx, http.StatusNotFound, i18n.T(i18n.ResolveLocale(ctx), "error.not_found"))
	})

	return r
}

func buildRule(name, redisPrefix string, cfg config.RateLimitConfig) RateLimitRule {
	if !cfg.Enabled {
		return RateLimitRule{Name: name}
	}
	return RateLimitRule{
		Name:          name,
		Prefix:        fmt.Sprintf("%s:rate:%s", redisPrefix, name),
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxRequests,
	}
}

// healthHandler 数据库不可达时返回 503
func healthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checks := gin.H{"database": "ok"}
		healthy := true

		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if c.DB == nil {
			checks["database"] = "unavailable"
			healthy = false
		} else if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(reqCtx) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
		if c.Cache != nil && c.Cache.Enabled() {
			checks["redis"] = "ok"
			if err := c.Cache.Ping(reqCtx); err != nil {
				checks["redis"] = "degraded"
			}
		}

		status := http.StatusOK
		label := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			label = "unavailable"
		}
		ctx.JSON(status, gin.H{"status": label, "checks": checks})
	}
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成可授权的权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, route := range routes {
		method := strings.ToUpper(strings.TrimSpace(route.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(route.Path, adminPrefix) {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     permissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// permissionModule /admin/coupons/:id -> coupons
func permissionModule(object string) string {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(object), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "system"
	}
	if segments[0] == "admin" && len(segments) > 1 {
		return segments[1]
	}
	return segments[0]
}
