package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce-hub/backend/config"
	"workforce-hub/backend/internal/api/handler"
	"workforce-hub/backend/internal/api/middleware"
	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/pkg/jwt"
	"workforce-hub/backend/pkg/redis"
)

// 角色分组
var (
	userAdmins    = []string{model.RoleSuperAdmin, model.RoleAdmin, model.RoleHRManager}
	detailViewers = []string{model.RoleSuperAdmin, model.RoleAdmin, model.RoleHRManager, model.RoleDepartmentHead, model.RoleManager}
	systemAdmins  = []string{model.RoleSuperAdmin, model.RoleAdmin}
)

// Setup 初始化并返回 Gin 路由引擎；rdb、db 可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	writeLimit := middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", writeLimit, h.Auth.Login)
			auth.POST("/refresh", writeLimit, h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			users := authorized.Group("/users")
			{
				// 静态路径先于 /:id 注册
				users.POST("/rebuild-relationships", middleware.RoleAuth(systemAdmins...), writeLimit, h.Relationship.Rebuild)
				users.GET("/validate-relationships", middleware.RoleAuth(systemAdmins...), h.Relationship.Validate)
				users.GET("/hierarchy/export", middleware.RoleAuth(userAdmins...), h.Export.ExportHierarchy)

				users.PUT("/:id", middleware.RoleAuth(userAdmins...), writeLimit, h.User.UpdateUser)
				users.PATCH("/:id", middleware.RoleAuth(userAdmins...), writeLimit, h.User.UpdateUser)
				users.GET("/:id/details", middleware.RoleAuth(detailViewers...), h.User.GetUserDetails)
			}
		}
	}

	return r
}
