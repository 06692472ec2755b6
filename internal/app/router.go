package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/http"
	httpMW "github.com/yungbote/aletheia-backend/internal/http/middleware"
	"github.com/yungbote/aletheia-backend/internal/observability"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log.With("Middleware", "RequestLogger"),
		ServiceName:    cfg.Otel.ServiceName,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Metrics:        metrics,
		TracingEnabled: cfg.Otel.Enabled,

		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,

		ProfileHandler:      handlers.Profile,
		PostHandler:         handlers.Post,
		QuestHandler:        handlers.Quest,
		HabitHandler:        handlers.Habit,
		AchievementHandler:  handlers.Achievement,
		LeaderboardHandler:  handlers.Leaderboard,
		NotificationHandler: handlers.Notification,
		ReportHandler:       handlers.Report,
		AIHandler:           handlers.AI,

		HealthHandler: handlers.Health,
	})
}
