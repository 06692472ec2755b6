package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/domain/social"
	"github.com/yungbote/aletheia-backend/internal/domain/user"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

const (
	maxDisplayName = 60
	maxURLLen      = 2048
	maxInventory   = 500

	maxSearchResults = 20
	maxSearchQuery   = 64
)

type ProfileView struct {
	*types.Profile
	FollowersCount int64       `json:"followers_count"`
	Following      []uuid.UUID `json:"following"`
}

// ProfilePatch carries owner-editable fields. Stats are not editable.
type ProfilePatch struct {
	DisplayName OptionalString   `json:"display_name"`
	AvatarURL   OptionalString   `json:"avatar_url"`
	CoverURL    OptionalString   `json:"cover_url"`
	Tasks       OptionalJSON     `json:"tasks"`
	Inventory   *[]user.Artifact `json:"inventory"`
	Goals       *[]string        `json:"goals"`
	Entropy     *int             `json:"entropy"`

	// Version, when set, must match the stored row.
	Version *int64 `json:"version"`
}

// VersionConflict carries the authoritative profile for a stale update.
type VersionConflict struct {
	Current *ProfileView
}

func (e *VersionConflict) Error() string { return "profile version conflict" }

func (e *VersionConflict) Unwrap() error {
	return apierr.Conflict("version_conflict", "profile was modified, reload and retry")
}

// ProfileSummary is the public card returned by search.
type ProfileSummary struct {
	ID          uuid.UUID         `json:"id"`
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	AvatarURL   string            `json:"avatar_url"`
	Stats       progression.Stats `json:"stats"`
}

type FollowState struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}

type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (*ProfileView, error)
	Update(ctx context.Context, actor, id uuid.UUID, patch ProfilePatch) (*ProfileView, error)
	ToggleFollow(ctx context.Context, actor, target uuid.UUID) (*FollowState, error)
	// Search returns up to limit active profiles by username or display name
	// prefix; limit is clamped to 1..20.
	Search(ctx context.Context, query string, limit int) ([]ProfileSummary, error)
	// Delete removes the profile and everything it owns in one transaction.
	Delete(ctx context.Context, actor, id uuid.UUID) error
}

type profileService struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	board LeaderboardService
	push  Pusher
}

func NewProfileService(db *gorm.DB, baseLog *logger.Logger, set repos.Set, board LeaderboardService, push Pusher) ProfileService {
	return &profileService{
		db:    db,
		log:   baseLog.With("service", "ProfileService"),
		repos: set,
		board: board,
		push:  push,
	}
}

func (s *profileService) view(dbc dbctx.Context, p *types.Profile) (*ProfileView, error) {
	followers, err := s.repos.Follows.CountFollowers(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	following, err := s.repos.Follows.ListFollowing(dbc, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	if following == nil {
		following = []uuid.UUID{}
	}
	return &ProfileView{Profile: p, FollowersCount: followers, Following: following}, nil
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*ProfileView, error) {
	dbc := dbctx.Context{Ctx: ctx}
	p, err := s.repos.Profiles.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil || p.IsDeactivated {
		return nil, apierr.NotFound("profile_not_found", "profile not found")
	}
	return s.view(dbc, p)
}

func (s *profileService) Search(ctx context.Context, query string, limit int) ([]ProfileSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apierr.BadRequest("invalid_query", "q is required")
	}
	if len(query) > maxSearchQuery {
		return nil, apierr.BadRequest("invalid_query", fmt.Sprintf("q must be at most %d characters", maxSearchQuery))
	}
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}
	found, err := s.repos.Profiles.Search(dbctx.Context{Ctx: ctx}, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	out := make([]ProfileSummary, 0, len(found))
	for _, p := range found {
		out = append(out, ProfileSummary{
			ID:          p.ID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			Stats:       p.CurrentStats(),
		})
	}
	return out, nil
}

func (s *profileService) Update(ctx context.Context, actor, id uuid.UUID, patch ProfilePatch) (*ProfileView, error) {
	if err := RequireSelf(actor, id); err != nil {
		return nil, err
	}
	updates, err := patch.columns()
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}
	ok, err := s.repos.Profiles.UpdateFieldsCAS(dbc, id, patch.Version, updates)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if !ok {
		current, gerr := s.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, &VersionConflict{Current: current}
	}
	return s.Get(ctx, id)
}

func (p ProfilePatch) columns() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if p.DisplayName.Set {
		name := trimTo(p.DisplayName.String(), maxDisplayName)
		if name == "" {
			return nil, apierr.BadRequest("invalid_request", "display_name cannot be empty")
		}
		out["display_name"] = name
	}
	for col, v := range map[string]OptionalString{"avatar_url": p.AvatarURL, "cover_url": p.CoverURL} {
		if !v.Set {
			continue
		}
		if len(v.String()) > maxURLLen {
			return nil, apierr.BadRequest("invalid_request", col+" is too long")
		}
		out[col] = v.String()
	}
	if p.Tasks.Set {
		raw := json.RawMessage("[]")
		if p.Tasks.Value != nil {
			raw = *p.Tasks.Value
		}
		var probe []json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, apierr.BadRequest("invalid_request", "tasks must be an array")
		}
		out["tasks"] = datatypes.JSON(raw)
	}
	if p.Inventory != nil {
		inv := *p.Inventory
		if len(inv) > maxInventory {
			return nil, apierr.BadRequest("invalid_request", "inventory is too large")
		}
		for i := range inv {
			inv[i].Rarity = user.ParseRarity(strings.ToUpper(string(inv[i].Rarity)))
		}
		out["inventory"] = datatypes.NewJSONType(inv)
	}
	if p.Goals != nil {
		out["goals"] = datatypes.NewJSONType(cleanGoals(*p.Goals))
	}
	if p.Entropy != nil {
		out["entropy"] = *p.Entropy
	}
	return out, nil
}

func (s *profileService) ToggleFollow(ctx context.Context, actor, target uuid.UUID) (*FollowState, error) {
	if actor == target {
		return nil, apierr.BadRequest("cannot_follow_self", "cannot follow yourself")
	}
	state := &FollowState{}
	var note *types.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		followee, err := s.repos.Profiles.GetByID(dbc, target)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if followee == nil || followee.IsDeactivated {
			return apierr.NotFound("profile_not_found", "profile not found")
		}
		exists, err := s.repos.Follows.Exists(dbc, actor, target)
		if err != nil {
			return fmt.Errorf("check follow: %w", err)
		}
		if exists {
			if err := s.repos.Follows.Delete(dbc, actor, target); err != nil {
				return fmt.Errorf("unfollow: %w", err)
			}
		} else {
			if err := s.repos.Follows.Create(dbc, actor, target); err != nil {
				return fmt.Errorf("follow: %w", err)
			}
			follower, err := s.repos.Profiles.GetByID(dbc, actor)
			if err != nil {
				return fmt.Errorf("load follower: %w", err)
			}
			name := "A seeker"
			if follower != nil {
				name = follower.Username
			}
			sender := actor
			note = &types.Notification{
				UserID:   target,
				Type:     social.NotifyFollow,
				SenderID: &sender,
				Content:  fmt.Sprintf("%s now follows your path.", name),
			}
			if err := s.repos.Notifications.Create(dbc, note); err != nil {
				return fmt.Errorf("notify follow: %w", err)
			}
		}
		state.Following = !exists
		state.FollowersCount, err = s.repos.Follows.CountFollowers(dbc, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	pushNotes(ctx, s.push, note)
	return state, nil
}

func (s *profileService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := RequireSelf(actor, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.repos.Profiles.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if p == nil {
			return apierr.NotFound("profile_not_found", "profile not found")
		}
		postIDs, err := s.repos.Posts.ListIDsByAuthor(dbc, id)
		if err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		steps := []struct {
			name string
			run  func() error
		}{
			{"post likes", func() error { return s.repos.PostLikes.DeleteByPosts(dbc, postIDs) }},
			{"post comments", func() error { return s.repos.Comments.DeleteByPosts(dbc, postIDs) }},
			{"likes", func() error { return s.repos.PostLikes.DeleteByUser(dbc, id) }},
			{"comments", func() error { return s.repos.Comments.DeleteByUser(dbc, id) }},
			{"posts", func() error { return s.repos.Posts.DeleteByAuthor(dbc, id) }},
			{"notifications", func() error { return s.repos.Notifications.DeleteByUser(dbc, id) }},
			{"reports", func() error { return s.repos.Reports.DeleteByUser(dbc, id) }},
			{"achievements", func() error { return s.repos.Achievements.DeleteByUser(dbc, id) }},
			{"reward events", func() error { return s.repos.RewardEvents.DeleteByUser(dbc, id) }},
			{"habit logs", func() error { return s.repos.HabitLogs.DeleteByUser(dbc, id) }},
			{"habits", func() error { return s.repos.Habits.DeleteByUser(dbc, id) }},
			{"quests", func() error { return s.repos.Quests.DeleteByUser(dbc, id) }},
			{"follows", func() error { return s.repos.Follows.DeleteByUser(dbc, id) }},
			{"profile", func() error { return s.repos.Profiles.Delete(dbc, id) }},
		}
		for _, st := range steps {
			if err := st.run(); err != nil {
				return fmt.Errorf("delete %s: %w", st.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.board.Forget(ctx, id)
	s.log.Info("profile deleted", "user_id", id)
	return nil
}
