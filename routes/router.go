package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/demaesdadas/aldeia/config"
	"github.com/demaesdadas/aldeia/controllers"
	"github.com/demaesdadas/aldeia/middleware"
	"github.com/demaesdadas/aldeia/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file, app log stays separate.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	moderationController := controllers.NewModerationController(db)
	notificationController := controllers.NewNotificationController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/send-email-code", authController.SendEmailCode)
	authGroup.POST("/password/request-reset", authController.RequestPasswordReset)
	authGroup.POST("/password/verify-code", authController.VerifyResetCode)
	authGroup.POST("/password/reset", authController.ResetPassword)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// The feed is public; writes accept anonymous authors, so they carry the
	// optional auth that picks up the identity when a token is present.
	postsGroup := api.Group("/posts")
	postsGroup.GET("", middleware.AuthOptional(), postController.ListFeed)
	postsGroup.GET("/:id", middleware.AuthOptional(), postController.GetPost)
	postsGroup.POST("", middleware.AuthOptional(), middleware.RateLimitMiddleware(), postController.CreatePost)
	postsGroup.POST("/:id/comments", middleware.AuthOptional(), middleware.RateLimitMiddleware(), postController.CreateComment)

	api.GET("/stats", statsController.GetStats)
	api.POST("/subscribe-interest", middleware.RateLimitMiddleware(), authController.SubscribeInterest)

	// One-click decision links from moderation emails; authorization lives in
	// the signed token, not in a session.
	api.GET("/moderation/link", moderationController.DecideViaLink)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.GET("/users/me/posts", postController.ListMyPosts)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.PUT("/comments/:id", postController.UpdateComment)
	protected.POST("/likes", postController.ToggleLike)
	protected.GET("/notifications", notificationController.List)
	protected.GET("/notifications/unread-count", notificationController.UnreadCount)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)
	protected.POST("/notifications/read-all", notificationController.MarkAllRead)

	moderationGroup := api.Group("/moderation")
	moderationGroup.Use(middleware.AuthRequired(), middleware.ModeratorRequired())
	moderationGroup.GET("/pending", moderationController.ListPending)
	moderationGroup.POST("/decide", moderationController.Decide)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
