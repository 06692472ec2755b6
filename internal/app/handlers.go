package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/aletheia-backend/internal/http/handlers"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	Profile      *httpH.ProfileHandler
	Post         *httpH.PostHandler
	Quest        *httpH.QuestHandler
	Habit        *httpH.HabitHandler
	Achievement  *httpH.AchievementHandler
	Leaderboard  *httpH.LeaderboardHandler
	Notification *httpH.NotificationHandler
	Report       *httpH.ReportHandler
	AI           *httpH.AIHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Auth:         httpH.NewAuthHandler(services.Auth),
		Profile:      httpH.NewProfileHandler(services.Profiles, services.Achievements),
		Post:         httpH.NewPostHandler(services.Posts),
		Quest:        httpH.NewQuestHandler(services.Quests),
		Habit:        httpH.NewHabitHandler(services.Habits),
		Achievement:  httpH.NewAchievementHandler(services.Achievements),
		Leaderboard:  httpH.NewLeaderboardHandler(services.Leaderboard),
		Notification: httpH.NewNotificationHandler(services.Notifications, clients.Realtime.Hub()),
		Report:       httpH.NewReportHandler(services.Reports),
		AI:           httpH.NewAIHandler(services.Oracle, services.Mirror),
	}
}
