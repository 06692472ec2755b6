package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos/directives"
	"github.com/yungbote/aletheia-backend/internal/data/repos/ledger"
	"github.com/yungbote/aletheia-backend/internal/data/repos/social"
	"github.com/yungbote/aletheia-backend/internal/data/repos/user"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type ProfileRepo = user.ProfileRepo
type FollowRepo = user.FollowRepo

type QuestRepo = directives.QuestRepo
type HabitRepo = directives.HabitRepo
type HabitLogRepo = directives.HabitLogRepo

type RewardEventRepo = ledger.RewardEventRepo
type AchievementRepo = ledger.AchievementRepo

type PostRepo = social.PostRepo
type PostLikeRepo = social.PostLikeRepo
type CommentRepo = social.CommentRepo
type NotificationRepo = social.NotificationRepo
type ReportRepo = social.ReportRepo

func NewProfileRepo(db *gorm.DB, log *logger.Logger) ProfileRepo {
	return user.NewProfileRepo(db, log)
}

func NewFollowRepo(db *gorm.DB, log *logger.Logger) FollowRepo {
	return user.NewFollowRepo(db, log)
}

func NewQuestRepo(db *gorm.DB, log *logger.Logger) QuestRepo {
	return directives.NewQuestRepo(db, log)
}

func NewHabitRepo(db *gorm.DB, log *logger.Logger) HabitRepo {
	return directives.NewHabitRepo(db, log)
}

func NewHabitLogRepo(db *gorm.DB, log *logger.Logger) HabitLogRepo {
	return directives.NewHabitLogRepo(db, log)
}

func NewRewardEventRepo(db *gorm.DB, log *logger.Logger) RewardEventRepo {
	return ledger.NewRewardEventRepo(db, log)
}

func NewAchievementRepo(db *gorm.DB, log *logger.Logger) AchievementRepo {
	return ledger.NewAchievementRepo(db, log)
}

func NewPostRepo(db *gorm.DB, log *logger.Logger) PostRepo {
	return social.NewPostRepo(db, log)
}

func NewPostLikeRepo(db *gorm.DB, log *logger.Logger) PostLikeRepo {
	return social.NewPostLikeRepo(db, log)
}

func NewCommentRepo(db *gorm.DB, log *logger.Logger) CommentRepo {
	return social.NewCommentRepo(db, log)
}

func NewNotificationRepo(db *gorm.DB, log *logger.Logger) NotificationRepo {
	return social.NewNotificationRepo(db, log)
}

func NewReportRepo(db *gorm.DB, log *logger.Logger) ReportRepo {
	return social.NewReportRepo(db, log)
}

// Set holds one instance of every repository.
type Set struct {
	Profiles      ProfileRepo
	Follows       FollowRepo
	Quests        QuestRepo
	Habits        HabitRepo
	HabitLogs     HabitLogRepo
	RewardEvents  RewardEventRepo
	Achievements  AchievementRepo
	Posts         PostRepo
	PostLikes     PostLikeRepo
	Comments      CommentRepo
	Notifications NotificationRepo
	Reports       ReportRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Profiles:      NewProfileRepo(db, log),
		Follows:       NewFollowRepo(db, log),
		Quests:        NewQuestRepo(db, log),
		Habits:        NewHabitRepo(db, log),
		HabitLogs:     NewHabitLogRepo(db, log),
		RewardEvents:  NewRewardEventRepo(db, log),
		Achievements:  NewAchievementRepo(db, log),
		Posts:         NewPostRepo(db, log),
		PostLikes:     NewPostLikeRepo(db, log),
		Comments:      NewCommentRepo(db, log),
		Notifications: NewNotificationRepo(db, log),
		Reports:       NewReportRepo(db, log),
	}
}
