package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/aletheia-backend/internal/http/handlers"
	httpMW "github.com/yungbote/aletheia-backend/internal/http/middleware"
	"github.com/yungbote/aletheia-backend/internal/observability"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	TracingEnabled bool

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	ProfileHandler      *httpH.ProfileHandler
	PostHandler         *httpH.PostHandler
	QuestHandler        *httpH.QuestHandler
	HabitHandler        *httpH.HabitHandler
	AchievementHandler  *httpH.AchievementHandler
	LeaderboardHandler  *httpH.LeaderboardHandler
	NotificationHandler *httpH.NotificationHandler
	ReportHandler       *httpH.ReportHandler
	AIHandler           *httpH.AIHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "aletheia"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.Status)
		}

		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.GET("/check-username", cfg.AuthHandler.CheckUsername)
		}

		// Public reads
		if cfg.ProfileHandler != nil {
			api.GET("/profile/:id", cfg.ProfileHandler.Get)
			api.GET("/search/users", cfg.ProfileHandler.Search)
		}
		if cfg.PostHandler != nil {
			api.GET("/posts", cfg.PostHandler.Feed)
			api.GET("/posts/:id/comments", cfg.PostHandler.Comments)
		}
		if cfg.AchievementHandler != nil {
			api.GET("/achievements/:userId", cfg.AchievementHandler.List)
		}
		if cfg.LeaderboardHandler != nil {
			api.GET("/leaderboard", cfg.LeaderboardHandler.Top)
		}

		// Onboarding oracles run before an account exists.
		if cfg.AIHandler != nil {
			api.POST("/ai/identity", cfg.AIHandler.Identity)
			api.POST("/ai/mysterious-name", cfg.AIHandler.MysteriousName)
			api.GET("/ai/wisdom", cfg.AIHandler.Wisdom)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Profiles
		if cfg.ProfileHandler != nil {
			protected.POST("/profile/:id/update", cfg.ProfileHandler.Update)
			protected.POST("/profile/:id/follow", cfg.ProfileHandler.ToggleFollow)
			protected.DELETE("/profile/:id", cfg.ProfileHandler.Delete)
			protected.GET("/rewards/:userId", cfg.ProfileHandler.RewardHistory)
		}

		// Feed
		if cfg.PostHandler != nil {
			protected.POST("/posts", cfg.PostHandler.Create)
			protected.POST("/posts/like", cfg.PostHandler.ToggleLike)
			protected.POST("/posts/:id/comments", cfg.PostHandler.AddComment)
		}

		// Quests
		if cfg.QuestHandler != nil {
			protected.GET("/quests/:userId", cfg.QuestHandler.List)
			protected.POST("/quests/create", cfg.QuestHandler.Create)
			protected.POST("/quests/:id/complete", cfg.QuestHandler.Complete)
			protected.POST("/ai/quest/generate", cfg.QuestHandler.Generate)
		}

		// Habits
		if cfg.HabitHandler != nil {
			protected.GET("/habits/:userId", cfg.HabitHandler.List)
			protected.GET("/habits/:userId/:habitId/logs", cfg.HabitHandler.History)
			protected.POST("/habits", cfg.HabitHandler.Create)
			protected.POST("/habits/track", cfg.HabitHandler.Track)
		}

		// Achievements
		if cfg.AchievementHandler != nil {
			protected.POST("/achievements/calculate", cfg.AchievementHandler.Calculate)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications/stream", cfg.NotificationHandler.Stream)
			protected.GET("/notifications/:userId", cfg.NotificationHandler.List)
			protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
		}

		// Mirror and advisor
		if cfg.AIHandler != nil {
			protected.POST("/ai/mirror/scenario", cfg.AIHandler.MirrorScenario)
			protected.POST("/ai/mirror/evaluate", cfg.AIHandler.MirrorEvaluate)
			protected.POST("/ai/advisor", cfg.AIHandler.Advisor)
		}

		// Moderation
		if cfg.ReportHandler != nil {
			protected.POST("/reports", cfg.ReportHandler.Submit)
		}
	}

	return r
}
