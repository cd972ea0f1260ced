package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitrine-next/internal/authz"
	"github.com/vitrine-next/internal/config"
	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/i18n"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/metrics"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Authorization",
			"Accept-Language",
			"X-Locale",
			requestIDHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed := matchOrigin(origin, allowedOrigins, cfg.AllowCredentials); allowed != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", requestIDHeader+", Retry-After")
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// matchOrigin 通配时回显来源（携带凭据场景），否则精确匹配
func matchOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Z()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		if c.Writer.Status() >= 500 {
			entry.Warnw("request")
			return
		}
		entry.Infow("request")
	}
}

// MetricsMiddleware 记录请求量、耗时与并发数，路由标签取注册模板避免高基数
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.TrackInFlight()
		start := time.Now()
		c.Next()
		done()
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// BodyLimitMiddleware 限制请求体大小，已知长度超限直接返回 413
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			response.AbortWithError(c, response.CodePayloadTooLarge, i18n.T(i18n.ResolveLocale(c), "error.payload_too_large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// bearerToken 读取 Authorization 头；present 表示请求是否携带了该头
func bearerToken(c *gin.Context) (token string, present bool, ok bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", false, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, false
	}
	return strings.TrimSpace(parts[1]), true, true
}

func abortUnauthorized(c *gin.Context) {
	response.AbortWithError(c, response.CodeUnauthorized, i18n.T(i18n.ResolveLocale(c), "error.unauthorized"))
}

// AdminJWTMiddleware 管理端令牌鉴权
func AdminJWTMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tokens.AdminEnabled() {
			logger.Errorw("admin_jwt_secret_missing", "path", c.Request.URL.Path)
			abortUnauthorized(c)
			return
		}
		raw, _, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		claims, err := tokens.ParseAdminToken(raw)
		if err != nil {
			logger.Debugw("admin_token_rejected", "request_id", c.GetString(constants.ContextKeyRequestID), "error", err)
			abortUnauthorized(c)
			return
		}

		c.Set(constants.ContextKeyAdminID, claims.AdminID)
		c.Set(constants.ContextKeyAdminName, claims.Username)
		c.Set(constants.ContextKeyAdminRoles, claims.Roles)
		c.Set(constants.ContextKeyAdminSuper, claims.IsSuper)
		c.Next()
	}
}

// AdminRBACMiddleware 管理端 RBAC 鉴权中间件
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c)
			return
		}
		if c.GetBool(constants.ContextKeyAdminSuper) {
			c.Next()
			return
		}

		adminID := contextAdminID(c)
		if adminID == 0 {
			abortUnauthorized(c)
			return
		}
		roles, _ := c.Get(constants.ContextKeyAdminRoles)
		tokenRoles, _ := roles.([]string)

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.Authorize(adminID, tokenRoles, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c)
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"roles", tokenRoles,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.AbortWithError(c, response.CodeForbidden, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			return
		}
		c.Next()
	}
}

func contextAdminID(c *gin.Context) uint {
	raw, ok := c.Get(constants.ContextKeyAdminID)
	if !ok {
		return 0
	}
	switch value := raw.(type) {
	case uint:
		return value
	case int:
		if value > 0 {
			return uint(value)
		}
	case float64:
		if value > 0 {
			return uint(value)
		}
	}
	return 0
}

// OptionalUserJWTMiddleware 前台令牌可选：未携带按游客处理，携带但无效返回 401。
// 未配置前台密钥时忽略令牌。
func OptionalUserJWTMiddleware(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, present, ok := bearerToken(c)
		if !present || !tokens.UserEnabled() {
			c.Next()
			return
		}
		if !ok {
			abortUnauthorized(c)
			return
		}
		claims, err := tokens.ParseUserToken(raw)
		if err != nil {
			logger.Debugw("user_token_rejected", "request_id", c.GetString(constants.ContextKeyRequestID), "error", err)
			abortUnauthorized(c)
			return
		}
		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Next()
	}
}
