package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/prompts"
	"github.com/yungbote/aletheia-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Profiles      services.ProfileService
	Posts         services.PostService
	Quests        services.QuestService
	Habits        services.HabitService
	Achievements  services.AchievementService
	Mirror        services.MirrorService
	Oracle        services.OracleService
	Leaderboard   services.LeaderboardService
	Notifications services.NotificationService
	Reports       services.ReportService
	Progression   services.ProgressionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, set repos.Set, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := prompts.Default()
	if err != nil {
		return Services{}, fmt.Errorf("load prompt catalog: %w", err)
	}
	oracle := services.NewOracle(log, clients.LLM, catalog)

	board := services.NewLeaderboardService(log, set.Profiles, clients.Leaderboard)
	progression := services.NewProgressionService(log, set.Profiles, set.RewardEvents, set.Achievements, set.Notifications, board, clients.Realtime)

	return Services{
		Auth:          services.NewAuthService(db, log, set.Profiles, board, cfg.JWTSecretKey, cfg.AccessTokenTTL()),
		Profiles:      services.NewProfileService(db, log, set, board, clients.Realtime),
		Posts:         services.NewPostService(db, log, set.Posts, set.PostLikes, set.Comments, set.Notifications, set.Profiles, clients.Realtime),
		Quests:        services.NewQuestService(db, log, set.Quests, set.Profiles, progression, oracle),
		Habits:        services.NewHabitService(db, log, set.Habits, set.HabitLogs, set.Profiles, progression, oracle, habitZone(log, cfg)),
		Achievements:  services.NewAchievementService(db, log, set.Achievements, set.RewardEvents, set.Profiles, progression, oracle),
		Mirror:        services.NewMirrorService(db, log, set.Profiles, progression, oracle),
		Oracle:        services.NewOracleService(log, oracle),
		Leaderboard:   board,
		Notifications: services.NewNotificationService(log, set.Notifications),
		Reports:       services.NewReportService(db, log, set.Reports, set.Posts, set.Profiles, set.Notifications, oracle, clients.Realtime),
		Progression:   progression,
	}, nil
}

func habitZone(log *logger.Logger, cfg Config) *time.Location {
	loc := cfg.HabitLocation()
	log.Info("Habit day boundary", "zone", loc.String())
	return loc
}
