package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/data/repos"
	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	"github.com/yungbote/aletheia-backend/internal/platform/apierr"
	"github.com/yungbote/aletheia-backend/internal/platform/llm"
	"github.com/yungbote/aletheia-backend/internal/prompts"
	"github.com/yungbote/aletheia-backend/internal/realtime"
)

type harness struct {
	db          *gorm.DB
	repos       repos.Set
	board       LeaderboardService
	progression ProgressionService
	oracle      *Oracle
}

func newHarness(t *testing.T, client llm.Client) *harness {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(gdb, log)
	catalog, err := prompts.Default()
	require.NoError(t, err)
	board := NewLeaderboardService(log, set.Profiles, nil)
	return &harness{
		db:          gdb,
		repos:       set,
		board:       board,
		progression: NewProgressionService(log, set.Profiles, set.RewardEvents, set.Achievements, set.Notifications, board, nil),
		oracle:      NewOracle(log, client, catalog),
	}
}

// reply returns a client that answers every prompt with raw and counts calls.
func reply(raw string, calls *int32) llm.Client {
	return llm.Func(func(ctx context.Context, system, user string) (string, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return raw, nil
	})
}

func failing() llm.Client {
	return llm.Func(func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("upstream 503")
	})
}

func requireAPICode(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := apierr.As(err)
	require.True(t, ok, "expected api error, got %v", err)
	require.Equal(t, status, apiErr.Status)
	require.Equal(t, code, apiErr.Code)
}

type pushed struct {
	UserID uuid.UUID
	Event  realtime.Event
	Data   any
}

type recordingPusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *recordingPusher) Push(ctx context.Context, userID uuid.UUID, event realtime.Event, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{UserID: userID, Event: event, Data: data})
}

func (p *recordingPusher) events() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushed(nil), p.sent...)
}
