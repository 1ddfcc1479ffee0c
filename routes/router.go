package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/controllers"
	"github.com/amaforum/ama/middleware"
	"github.com/amaforum/ama/store"
	"github.com/amaforum/ama/utils"
)

// Dependencies are the optional collaborators of the router. Zero values are valid:
// no cache, an in-memory token blacklist and no payment processor.
type Dependencies struct {
	Cache     *utils.Cache
	Blacklist *utils.TokenBlacklist
	Payments  utils.PaymentProcessor
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, s store.Store, deps Dependencies) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Blacklist == nil {
		deps.Blacklist = utils.NewTokenBlacklist(nil)
	}

	r := gin.New()
	// Access log goes to its own rolling file, at the application log level
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, true))
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
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		// credentials cannot be combined with a literal "*", so echo the caller's origin
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ama is running")
	})
	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(cfg, deps.Blacklist)
	userController := controllers.NewUserController(s, deps.Cache, cfg)
	postController := controllers.NewPostController(s, deps.Cache, cfg)
	commentController := controllers.NewCommentController(s, deps.Cache)
	tagController := controllers.NewTagController(s)
	announcementController := controllers.NewAnnouncementController(s)
	feedbackController := controllers.NewFeedbackController(s)
	statsController := controllers.NewStatsController(s, deps.Cache)
	paymentController := controllers.NewPaymentController(deps.Payments, cfg)

	// reads
	r.GET("/user/:email", userController.GetUser)
	r.GET("/manage-users", userController.ListUsers)
	r.GET("/search-users", userController.SearchUsers)
	r.GET("/all-post", postController.ListPosts)
	r.GET("/popular-post", postController.PopularPosts)
	r.GET("/search-post", postController.SearchPosts)
	r.GET("/tag-search", postController.TagSearch)
	r.GET("/my-post/:email", postController.ListUserPosts)
	r.GET("/recent-post/:email", postController.RecentUserPosts)
	r.GET("/post-count", postController.CountPosts)
	r.GET("/post-details/:id", middleware.AuthRequired(cfg.JWTSecret, deps.Blacklist), postController.GetPost)
	r.GET("/comments/:id", commentController.ListComments)
	r.GET("/specific-comments/:title", commentController.ListCommentsByTitle)
	r.GET("/all-tags", tagController.ListTags)
	r.GET("/stored-tags", tagController.ListSearchTags)
	r.GET("/all-announcement", announcementController.ListAnnouncements)
	r.GET("/announcement-count", announcementController.CountAnnouncements)
	r.GET("/stored-feedback", feedbackController.ListFeedback)
	r.GET("/statistics", statsController.GetStats)

	// writes are rate limited per client IP
	writes := r.Group("")
	writes.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	writes.POST("/jwt", authController.IssueToken)
	writes.POST("/logout", authController.Logout)
	writes.POST("/users", userController.CreateUser)
	writes.POST("/create-payment-intent", paymentController.CreatePaymentIntent)
	writes.POST("/upgrade/:email", userController.UpgradeMembership)
	writes.POST("/make-admin/:id", userController.MakeAdmin)
	writes.POST("/add-post", postController.CreatePost)
	writes.DELETE("/delete-post/:id", postController.DeletePost)
	writes.POST("/upVote/:id", postController.UpVote)
	writes.POST("/downVote/:id", postController.DownVote)
	writes.POST("/add-comment", commentController.CreateComment)
	writes.POST("/all-tags", tagController.RegisterTag)
	writes.POST("/store-searchTag", tagController.RecordSearchTag)
	writes.POST("/add-announcement", announcementController.CreateAnnouncement)
	writes.POST("/add-feedback", feedbackController.CreateFeedback)
	writes.DELETE("/delete-feedback/:id", feedbackController.DeleteFeedback)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
