package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	types "github.com/yungbote/aletheia-backend/internal/domain"
	"github.com/yungbote/aletheia-backend/internal/domain/ledger"
	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/domain/user"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/dbctx"
	"github.com/yungbote/aletheia-backend/internal/platform/errs"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/prompts"
)

const (
	maxMirrorField      = 1000
	maxArtifactName     = 60
	maxArtifactText     = 280
	defaultArtifactIcon = "✨"
	fallbackOutcome     = "Fate ripples."
	fallbackMirrorXP    = 10
)

type MirrorScenario struct {
	Situation  string `json:"situation"`
	ChoiceA    string `json:"choiceA"`
	ChoiceB    string `json:"choiceB"`
	Context    string `json:"context"`
	TestedStat string `json:"testedStat"`
}

type MirrorChoice struct {
	Situation  string
	ChoiceA    string
	ChoiceB    string
	Choice     string
	TestedStat string
}

type MirrorVerdict struct {
	Outcome  string
	Artifact *user.Artifact
	Result   *RewardOutcome
}

type MirrorService interface {
	Scenario(ctx context.Context, userID uuid.UUID) (*MirrorScenario, error)
	// Evaluate judges one choice per user per UTC day.
	Evaluate(ctx context.Context, userID uuid.UUID, in MirrorChoice) (*MirrorVerdict, error)
}

type mirrorService struct {
	db          *gorm.DB
	log         *logger.Logger
	profiles    repos.ProfileRepo
	progression ProgressionService
	oracle      *Oracle
	now         func() time.Time
}

func NewMirrorService(
	db *gorm.DB,
	baseLog *logger.Logger,
	profiles repos.ProfileRepo,
	progression ProgressionService,
	oracle *Oracle,
) MirrorService {
	return &mirrorService{
		db:          db,
		log:         baseLog.With("service", "MirrorService"),
		profiles:    profiles,
		progression: progression,
		oracle:      oracle,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func fallbackScenario() MirrorScenario {
	return MirrorScenario{
		Situation:  "A fork in the road.",
		ChoiceA:    "Left",
		ChoiceB:    "Right",
		TestedStat: string(progression.Spiritual),
	}
}

func (s *mirrorService) Scenario(ctx context.Context, userID uuid.UUID) (*MirrorScenario, error) {
	p, err := s.profiles.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("profile_not_found", "profile not found")
	}
	stats := p.CurrentStats()
	attrs := map[string]int{}
	for _, a := range progression.Attributes {
		attrs[string(a)] = stats.Get(a)
	}
	sc, _ := askJSON(ctx, s.oracle, prompts.MirrorScenario, map[string]any{
		"Class": stats.Class,
		"Level": stats.Level,
		"Stats": attrs,
	}, fallbackScenario(), func(sc *MirrorScenario) error {
		sc.Situation = strings.TrimSpace(sc.Situation)
		sc.ChoiceA = strings.TrimSpace(sc.ChoiceA)
		sc.ChoiceB = strings.TrimSpace(sc.ChoiceB)
		sc.Context = strings.TrimSpace(sc.Context)
		if sc.Situation == "" || sc.ChoiceA == "" || sc.ChoiceB == "" {
			return errors.New("incomplete scenario")
		}
		if attr, ok := progression.ParseAttribute(sc.TestedStat); ok {
			sc.TestedStat = string(attr)
		} else {
			sc.TestedStat = string(progression.Spiritual)
		}
		return nil
	})
	return &sc, nil
}

type mirrorArtifact struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
	Effect      string `json:"effect"`
	Icon        string `json:"icon"`
}

type mirrorReply struct {
	Outcome    string             `json:"outcome"`
	StatChange map[string]float64 `json:"statChange"`
	Reward     *mirrorArtifact    `json:"reward"`
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func mirrorFaced() error {
	return apierr.TooManyRequests("mirror_already_faced", "the mirror has already judged you today")
}

func (s *mirrorService) Evaluate(ctx context.Context, userID uuid.UUID, in MirrorChoice) (*MirrorVerdict, error) {
	choice := strings.ToUpper(strings.TrimSpace(in.Choice))
	if choice != "A" && choice != "B" {
		return nil, apierr.BadRequest("invalid_choice", "choice must be A or B")
	}
	in.Situation = trimTo(strings.TrimSpace(in.Situation), maxMirrorField)
	if in.Situation == "" {
		return nil, apierr.BadRequest("invalid_request", "situation is required")
	}
	tested := string(progression.Spiritual)
	if attr, ok := progression.ParseAttribute(in.TestedStat); ok {
		tested = string(attr)
	}

	now := s.now()
	p, err := s.profiles.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, apierr.NotFound("profile_not_found", "profile not found")
	}
	if p.LastMirrorAt != nil && sameUTCDay(*p.LastMirrorAt, now) {
		return nil, mirrorFaced()
	}

	reply, _ := askJSON(ctx, s.oracle, prompts.MirrorEvaluate, map[string]any{
		"Situation":  in.Situation,
		"ChoiceA":    trimTo(strings.TrimSpace(in.ChoiceA), maxMirrorField),
		"ChoiceB":    trimTo(strings.TrimSpace(in.ChoiceB), maxMirrorField),
		"Choice":     choice,
		"TestedStat": tested,
	}, mirrorReply{Outcome: fallbackOutcome, StatChange: map[string]float64{"xp": fallbackMirrorXP}}, func(r *mirrorReply) error {
		r.Outcome = strings.TrimSpace(r.Outcome)
		if r.Outcome == "" {
			return errors.New("empty outcome")
		}
		return nil
	})

	raw := progression.RawReward{Stats: map[string]float64{}}
	for k, v := range reply.StatChange {
		if strings.EqualFold(strings.TrimSpace(k), "xp") {
			raw.XP += v
			continue
		}
		raw.Stats[k] = v
	}
	reward := progression.SanitizeReward(raw, progression.MirrorLimits)
	artifact := buildArtifact(reply.Reward, userID, now)

	var verdict MirrorVerdict
	err = WithRetry(ctx, s.db, s.log, func(tx *gorm.DB) error {
		out, err := s.progression.Apply(dbctx.Context{Ctx: ctx, Tx: tx}, RewardRequest{
			UserID:    userID,
			Source:    ledger.SourceMirror,
			SourceKey: now.Format(wisdomDayLayout),
			Reward:    reward,
			Extra: func(locked *types.Profile) (map[string]interface{}, error) {
				if locked.LastMirrorAt != nil && sameUTCDay(*locked.LastMirrorAt, now) {
					return nil, mirrorFaced()
				}
				cols := map[string]interface{}{"last_mirror_at": now}
				if artifact != nil {
					inv := append(append([]user.Artifact{}, locked.Inventory.Data()...), *artifact)
					cols["inventory"] = datatypes.NewJSONType(inv)
					locked.Inventory = datatypes.NewJSONType(inv)
				}
				locked.LastMirrorAt = &now
				return cols, nil
			},
		})
		if err != nil {
			return err
		}
		verdict = MirrorVerdict{Outcome: reply.Outcome, Artifact: artifact, Result: out}
		return nil
	})
	if errors.Is(err, errs.ErrAlreadyApplied) {
		return nil, mirrorFaced()
	}
	if err != nil {
		return nil, rewardError(err, "mirror_already_faced")
	}
	s.progression.Published(ctx, verdict.Result)
	return &verdict, nil
}

func buildArtifact(r *mirrorArtifact, userID uuid.UUID, now time.Time) *user.Artifact {
	if r == nil {
		return nil
	}
	name := trimTo(strings.TrimSpace(r.Name), maxArtifactName)
	if name == "" {
		return nil
	}
	icon := strings.TrimSpace(r.Icon)
	if icon == "" {
		icon = defaultArtifactIcon
	}
	return &user.Artifact{
		ID:           uuid.New().String(),
		Name:         name,
		Description:  trimTo(strings.TrimSpace(r.Description), maxArtifactText),
		Rarity:       user.ParseRarity(strings.ToUpper(strings.TrimSpace(r.Rarity))),
		Effect:       trimTo(strings.TrimSpace(r.Effect), maxArtifactText),
		Icon:         trimTo(icon, 8),
		DateAcquired: now.UnixMilli(),
		CreatorID:    userID.String(),
	}
}
