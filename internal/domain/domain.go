package domain

import (
	"github.com/yungbote/aletheia-backend/internal/domain/directives"
	"github.com/yungbote/aletheia-backend/internal/domain/ledger"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/domain/user"
)

type (
	Profile  = user.Profile
	Follow   = user.Follow
	Artifact = user.Artifact

	Quest    = directives.Quest
	Habit    = directives.Habit
	HabitLog = directives.HabitLog

	Post         = social.Post
	PostLike     = social.PostLike
	Comment      = social.Comment
	Notification = social.Notification
	Report       = social.Report

	RewardEvent = ledger.RewardEvent
	Achievement = ledger.Achievement

	Stats = progression.Stats
)

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&user.Profile{},
		&user.Follow{},

		&directives.Quest{},
		&directives.Habit{},
		&directives.HabitLog{},

		&ledger.RewardEvent{},
		&ledger.Achievement{},

		&social.Post{},
		&social.PostLike{},
		&social.Comment{},
		&social.Notification{},
		&social.Report{},
	}
}
