package router

import (
	"strconv"
	"strings"
	"time"

	"github.com/ecommapi/internal/authz"
	"github.com/ecommapi/internal/cache"
	"github.com/ecommapi/internal/config"
	"github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/metrics"
	"github.com/ecommapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Authorization",
			"X-Request-ID",
			"Stripe-Signature",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		allowedOrigin := resolveAllowedOrigin(c.GetHeader("Origin"), allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
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

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
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
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

// MetricsMiddleware 记录请求耗时与状态，按路由模板聚合
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
func UserJWTAuthMiddleware(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			response.AbortWithError(c, response.CodeUnauthorized, "Authentication credentials were not provided.")
			return
		}
		authenticate(c, accounts)
	}
}

// OptionalUserAuthMiddleware 可选鉴权：没有 Authorization 头时按游客处理，
// 携带了无效 token 仍返回 401
func OptionalUserAuthMiddleware(accounts *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			c.Next()
			return
		}
		authenticate(c, accounts)
	}
}

func authenticate(c *gin.Context, accounts *service.AccountService) {
	if accounts == nil {
		response.AbortWithError(c, response.CodeUnauthorized, "Invalid token.")
		return
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		response.AbortWithError(c, response.CodeUnauthorized, "Authorization header must be 'Bearer <token>'.")
		return
	}

	claims, err := accounts.ParseUserJWT(strings.TrimSpace(parts[1]))
	if err != nil || claims.UserID == 0 {
		response.AbortWithError(c, response.CodeUnauthorized, "Invalid token.")
		return
	}

	state, hit, cacheErr := cache.GetUserAuthState(c.Request.Context(), claims.UserID)
	if cacheErr != nil || !hit || state == nil {
		user, err := accounts.GetAuthUser(claims.UserID)
		if err != nil || user == nil {
			response.AbortWithError(c, response.CodeUnauthorized, "Invalid token.")
			return
		}
		state = cache.BuildUserAuthState(user)
		if err := cache.SetUserAuthState(c.Request.Context(), state); err != nil {
			logger.Debugw("auth_state_cache_set_failed", "user_id", claims.UserID, "error", err)
		}
	}
	if !state.IsActive {
		response.AbortWithError(c, response.CodeUnauthorized, "User account is disabled.")
		return
	}
	if claims.TokenVersion != state.TokenVersion {
		response.AbortWithError(c, response.CodeUnauthorized, "Token has been revoked.")
		return
	}

	c.Set(shared.ContextUserID, state.UserID)
	c.Set(shared.ContextIsStaff, state.IsStaff)
	c.Set(shared.ContextIsSuperuser, state.IsSuperuser)
	c.Next()
}

// StaffAuthzMiddleware 员工写操作 casbin 鉴权，须放在 UserJWTAuthMiddleware 之后
func StaffAuthzMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("staff_authz_service_unavailable")
			response.AbortWithError(c, response.CodeForbidden, "You do not have permission to perform this action.")
			return
		}
		actor, ok := shared.CurrentActor(c)
		if !ok {
			response.AbortWithError(c, response.CodeUnauthorized, "Authentication credentials were not provided.")
			return
		}

		principal := authz.Principal{UserID: actor.UserID, IsStaff: actor.IsStaff, IsSuperuser: actor.IsSuperuser}
		allowed, err := authzService.EnforcePrincipal(principal, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			logger.Errorw("staff_authz_enforce_failed",
				"user_id", actor.UserID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.AbortWithError(c, response.CodeForbidden, "You do not have permission to perform this action.")
			return
		}
		if !allowed {
			logger.Warnw("staff_authz_permission_denied",
				"user_id", actor.UserID,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(c.Request.URL.Path),
			)
			response.AbortWithError(c, response.CodeForbidden, "You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}
