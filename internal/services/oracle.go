package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/aletheia-backend/internal/domain/progression"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
	"github.com/yungbote/aletheia-backend/internal/prompts"
)

const (
	maxManifestoRunes     = 5000
	maxAdvisorMessage     = 2000
	maxAdvisorType        = 40
	maxNameRunes          = 24
	fallbackIdentityNote  = "You walk the path."
	fallbackWisdomText    = "The path unfolds before you."
	fallbackWisdomAuthor  = "The Oracle"
	fallbackName          = "Initiate"
	fallbackAdvisorReply  = "The transmission was lost in the void."
	defaultAdvisorType    = "mystic"
	wisdomDayLayout       = "2006-01-02"
	fallbackIdentityScore = 5
)

type IdentityVerdict struct {
	Approved     bool              `json:"approved"`
	Reason       string            `json:"reason"`
	InitialStats progression.Stats `json:"initialStats"`
}

type Wisdom struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Date   string `json:"date"`
}

type OracleService interface {
	AnalyzeIdentity(ctx context.Context, manifesto string) (*IdentityVerdict, error)
	DailyWisdom(ctx context.Context) (*Wisdom, error)
	MysteriousName(ctx context.Context) string
	Advise(ctx context.Context, advisorType, message string) (string, error)
}

type oracleService struct {
	log    *logger.Logger
	oracle *Oracle
	now    func() time.Time

	wisdomGroup singleflight.Group
	mu          sync.Mutex
	wisdom      *Wisdom
}

func NewOracleService(baseLog *logger.Logger, oracle *Oracle) OracleService {
	return &oracleService{
		log:    baseLog.With("service", "OracleService"),
		oracle: oracle,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type identityReply struct {
	Approved     *bool                `json:"approved"`
	Reason       string               `json:"reason"`
	InitialStats progression.RawStats `json:"initialStats"`
}

func fallbackIdentity() identityReply {
	yes := true
	return identityReply{
		Approved: &yes,
		Reason:   fallbackIdentityNote,
		InitialStats: progression.RawStats{
			Intelligence: fallbackIdentityScore,
			Physical:     fallbackIdentityScore,
			Spiritual:    fallbackIdentityScore,
			Social:       fallbackIdentityScore,
			Wealth:       fallbackIdentityScore,
			Class:        progression.InitialClassName,
		},
	}
}

func (s *oracleService) AnalyzeIdentity(ctx context.Context, manifesto string) (*IdentityVerdict, error) {
	manifesto = strings.TrimSpace(manifesto)
	if manifesto == "" {
		return nil, apierr.BadRequest("invalid_request", "manifesto is required")
	}
	if utf8.RuneCountInString(manifesto) > maxManifestoRunes {
		return nil, apierr.BadRequest("invalid_request", "manifesto is too long")
	}
	reply, _ := askJSON(ctx, s.oracle, prompts.Identity, map[string]any{"Manifesto": manifesto}, fallbackIdentity(), func(r *identityReply) error {
		if r.Approved == nil {
			return errors.New("approved missing")
		}
		r.Reason = strings.TrimSpace(r.Reason)
		if r.Reason == "" {
			r.Reason = fallbackIdentityNote
		}
		return nil
	})
	return &IdentityVerdict{
		Approved:     *reply.Approved,
		Reason:       reply.Reason,
		InitialStats: progression.SanitizeInitialStats(reply.InitialStats),
	}, nil
}

// DailyWisdom computes one reading per UTC day. Concurrent first callers
// share a single upstream request.
func (s *oracleService) DailyWisdom(ctx context.Context) (*Wisdom, error) {
	day := s.now().Format(wisdomDayLayout)
	s.mu.Lock()
	cached := s.wisdom
	s.mu.Unlock()
	if cached != nil && cached.Date == day {
		cp := *cached
		return &cp, nil
	}

	v, err, _ := s.wisdomGroup.Do(day, func() (interface{}, error) {
		w, used := askJSON(ctx, s.oracle, prompts.Wisdom, map[string]any{"Date": day},
			Wisdom{Text: fallbackWisdomText, Author: fallbackWisdomAuthor},
			func(w *Wisdom) error {
				w.Text = strings.TrimSpace(w.Text)
				w.Author = strings.TrimSpace(w.Author)
				if w.Text == "" {
					return errors.New("empty wisdom")
				}
				if w.Author == "" {
					w.Author = fallbackWisdomAuthor
				}
				return nil
			})
		w.Date = day
		// fallbacks are not cached
		if used {
			s.mu.Lock()
			s.wisdom = &w
			s.mu.Unlock()
		}
		return w, nil
	})
	if err != nil {
		return nil, err
	}
	w := v.(Wisdom)
	return &w, nil
}

func (s *oracleService) MysteriousName(ctx context.Context) string {
	raw := s.oracle.askText(ctx, prompts.MysteriousName, nil, fallbackName)
	if name := cleanName(raw); name != "" {
		return name
	}
	return fallbackName
}

// cleanName keeps the letters of the first non-empty line.
func cleanName(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		var b strings.Builder
		n := 0
		for _, r := range line {
			if unicode.IsLetter(r) && n < maxNameRunes {
				b.WriteRune(r)
				n++
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func (s *oracleService) Advise(ctx context.Context, advisorType, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apierr.BadRequest("invalid_request", "message is required")
	}
	if utf8.RuneCountInString(message) > maxAdvisorMessage {
		return "", apierr.BadRequest("invalid_request", "message is too long")
	}
	advisorType = strings.TrimSpace(advisorType)
	if advisorType == "" {
		advisorType = defaultAdvisorType
	}
	advisorType = trimTo(advisorType, maxAdvisorType)
	return s.oracle.askText(ctx, prompts.Advisor, map[string]any{"Type": advisorType, "Message": message}, fallbackAdvisorReply), nil
}

func trimTo(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
