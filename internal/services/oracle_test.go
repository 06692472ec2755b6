package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/aletheia-backend/internal/data/repos/testutil"
	"github.com/yungbote/aletheia-backend/internal/platform/llm"
)

func newOracleService(t *testing.T, client llm.Client, now time.Time) OracleService {
	t.Helper()
	h := newHarness(t, client)
	svc := NewOracleService(testutil.Logger(t), h.oracle)
	svc.(*oracleService).now = func() time.Time { return now }
	return svc
}

func TestDailyWisdomSharesOneCall(t *testing.T) {
	var calls int32
	slow := llm.Func(func(ctx context.Context, system, user string) (string, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(30 * time.Millisecond)
		return `{"text":"Know thyself.","author":""}`, nil
	})
	svc := newOracleService(t, slow, time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := svc.DailyWisdom(context.Background())
			if err != nil || w.Text != "Know thyself." {
				t.Errorf("unexpected wisdom: %+v err=%v", w, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	w, err := svc.DailyWisdom(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fallbackWisdomAuthor, w.Author)
	assert.Equal(t, "2026-01-02", w.Date)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDailyWisdomDoesNotCacheFallback(t *testing.T) {
	var calls int32
	down := llm.Func(func(ctx context.Context, system, user string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("timeout")
	})
	svc := newOracleService(t, down, time.Now().UTC())

	for i := 0; i < 2; i++ {
		w, err := svc.DailyWisdom(context.Background())
		require.NoError(t, err)
		assert.Equal(t, fallbackWisdomText, w.Text)
	}
	assert.Equal(t, int32(2), calls)
}

func TestAnalyzeIdentityClampsStats(t *testing.T) {
	raw := `{"approved":false,"reason":"","initialStats":{"intelligence":42,"physical":-3,"spiritual":6.5,"social":2,"wealth":1,"class":"  Stormcaller  "}}`
	svc := newOracleService(t, reply(raw, nil), time.Now())

	v, err := svc.AnalyzeIdentity(context.Background(), "I seek mastery.")
	require.NoError(t, err)
	assert.False(t, v.Approved)
	assert.Equal(t, fallbackIdentityNote, v.Reason)
	assert.Equal(t, 10, v.InitialStats.Intelligence)
	assert.Equal(t, 1, v.InitialStats.Physical)
	assert.Equal(t, 7, v.InitialStats.Spiritual)
	assert.Equal(t, "Stormcaller", v.InitialStats.Class)
	assert.Equal(t, 1, v.InitialStats.Level)

	_, err = svc.AnalyzeIdentity(context.Background(), strings.Repeat("a", maxManifestoRunes+1))
	requireAPICode(t, err, 400, "invalid_request")
}

func TestAnalyzeIdentityFallback(t *testing.T) {
	for name, client := range map[string]llm.Client{
		"upstream error":   failing(),
		"missing approved": reply(`{"reason":"maybe"}`, nil),
		"not json":         reply("I cannot answer that.", nil),
		"disabled":         nil,
	} {
		t.Run(name, func(t *testing.T) {
			svc := newOracleService(t, client, time.Now())
			v, err := svc.AnalyzeIdentity(context.Background(), "Five years from now I lead.")
			require.NoError(t, err)
			assert.True(t, v.Approved)
			assert.Equal(t, fallbackIdentityNote, v.Reason)
			assert.Equal(t, 5, v.InitialStats.Wealth)
			assert.Equal(t, "Seeker", v.InitialStats.Class)
		})
	}
}

func TestMysteriousName(t *testing.T) {
	svc := newOracleService(t, reply("\n  \"Vael-thorn\" 42\nsecond", nil), time.Now())
	assert.Equal(t, "Vaelthorn", svc.MysteriousName(context.Background()))

	svc = newOracleService(t, reply("1234", nil), time.Now())
	assert.Equal(t, fallbackName, svc.MysteriousName(context.Background()))
}

func TestAdvise(t *testing.T) {
	var seen string
	echo := llm.Func(func(ctx context.Context, system, user string) (string, error) {
		seen = system
		return "  Walk on.  ", nil
	})
	svc := newOracleService(t, echo, time.Now())

	out, err := svc.Advise(context.Background(), "", "What now?")
	require.NoError(t, err)
	assert.Equal(t, "Walk on.", out)
	assert.Contains(t, seen, defaultAdvisorType)

	_, err = svc.Advise(context.Background(), "stoic", "")
	requireAPICode(t, err, 400, "invalid_request")

	svc = newOracleService(t, failing(), time.Now())
	out, err = svc.Advise(context.Background(), "stoic", "Help")
	require.NoError(t, err)
	assert.Equal(t, fallbackAdvisorReply, out)
}
