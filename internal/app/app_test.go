package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		LogMode:               "test",
		DBDriver:              "sqlite",
		DBLogLevel:            "silent",
		SQLitePath:            filepath.Join(t.TempDir(), "aletheia.db"),
		JWTSecretKey:          "test-secret",
		AccessTokenTTLSeconds: 3600,
		LLMProvider:           LLMProviderNone,
		LLMTimeoutSeconds:     1,
		HabitDayTZ:            "UTC",
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := NewWithConfig(context.Background(), logger.Nop(), testConfig(t))
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

type apiResult struct {
	Code int
	Body map[string]any
	Raw  []byte
}

func call(t *testing.T, a *App, method, path, token string, body any) apiResult {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	res := apiResult{Code: rec.Code, Raw: rec.Body.Bytes()}
	_ = json.Unmarshal(res.Raw, &res.Body)
	return res
}

func errorCode(r apiResult) string {
	env, _ := r.Body["error"].(map[string]any)
	code, _ := env["code"].(string)
	return code
}

func register(t *testing.T, a *App, username string) (id, token string) {
	t.Helper()
	res := call(t, a, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username":  username,
		"password":  "hunter22",
		"manifesto": "I will become more than I am.",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("register %s: status=%d body=%s", username, res.Code, res.Raw)
	}
	id, _ = res.Body["id"].(string)
	token, _ = res.Body["token"].(string)
	if id == "" || token == "" {
		t.Fatalf("register %s: missing id or token: %s", username, res.Raw)
	}
	return id, token
}

func statsOf(t *testing.T, r apiResult) map[string]any {
	t.Helper()
	stats, ok := r.Body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("missing stats: %s", r.Raw)
	}
	return stats
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecretKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
	cfg = testConfig(t)
	cfg.LLMProvider = "pollinations"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown provider to fail")
	}
	cfg = testConfig(t)
	cfg.HabitDayTZ = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected bad zone to fail")
	}
	cfg = testConfig(t)
	cfg.Port = "9090"
	if cfg.Addr() != ":9090" {
		t.Fatalf("addr: got=%s", cfg.Addr())
	}
}

func TestProbes(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: %d %q", rec.Code, rec.Body.String())
	}
	res := call(t, a, http.MethodGet, "/api/health", "", nil)
	if res.Code != http.StatusOK || res.Body["status"] != "ok" {
		t.Fatalf("health: %d %s", res.Code, res.Raw)
	}
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp(t)
	id, _ := register(t, a, "Alice")

	res := call(t, a, http.MethodGet, "/api/check-username?username=alice", "", nil)
	if res.Code != http.StatusOK || res.Body["available"] != false {
		t.Fatalf("check-username: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/auth/register", "", map[string]any{"username": "alice", "password": "hunter22"})
	if res.Code != http.StatusConflict || errorCode(res) != "username_taken" {
		t.Fatalf("duplicate register: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "ALICE", "password": "hunter22"})
	if res.Code != http.StatusOK || res.Body["id"] != id {
		t.Fatalf("login: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "alice", "password": "wrong-pass"})
	if res.Code != http.StatusUnauthorized || errorCode(res) != "invalid_credentials" {
		t.Fatalf("bad login: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodGet, "/api/profile/"+id, "", nil)
	if res.Code != http.StatusOK || res.Body["username"] != "alice" {
		t.Fatalf("get profile: %d %s", res.Code, res.Raw)
	}
	if _, leaked := res.Body["password_hash"]; leaked {
		t.Fatalf("password hash serialised")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestApp(t)
	res := call(t, a, http.MethodPost, "/api/habits", "", map[string]any{"name": "Read"})
	if res.Code != http.StatusUnauthorized || errorCode(res) != "unauthorized" {
		t.Fatalf("no token: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/habits", "not-a-jwt", map[string]any{"name": "Read"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d %s", res.Code, res.Raw)
	}
}

func TestRewardLoopOverHTTP(t *testing.T) {
	a := newTestApp(t)
	id, token := register(t, a, "bram")

	res := call(t, a, http.MethodPost, "/api/quests/create", token, map[string]any{
		"text": "Run 3km", "difficulty": "E", "xp_reward": 40,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("create quest: %d %s", res.Code, res.Raw)
	}
	quest, _ := res.Body["quest"].(map[string]any)
	questID, _ := quest["id"].(string)
	if questID == "" || quest["status"] != "pending" {
		t.Fatalf("unexpected quest: %s", res.Raw)
	}

	res = call(t, a, http.MethodPost, "/api/quests/"+questID+"/complete", token, nil)
	if res.Code != http.StatusOK || res.Body["success"] != true {
		t.Fatalf("complete: %d %s", res.Code, res.Raw)
	}
	if got := statsOf(t, res)["xp"]; got != float64(40) {
		t.Fatalf("xp after quest: %v", got)
	}
	if _, ok := res.Body["version"]; !ok {
		t.Fatalf("missing version: %s", res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/quests/"+questID+"/complete", token, nil)
	if res.Code != http.StatusConflict || errorCode(res) != "quest_already_completed" {
		t.Fatalf("second complete: %d %s", res.Code, res.Raw)
	}

	res = call(t, a, http.MethodPost, "/api/habits", token, map[string]any{"name": "Meditate"})
	if res.Code != http.StatusCreated {
		t.Fatalf("create habit: %d %s", res.Code, res.Raw)
	}
	habitID, _ := res.Body["id"].(string)
	res = call(t, a, http.MethodPost, "/api/habits/track", token, map[string]any{"habit_id": habitID, "action": "completed"})
	if res.Code != http.StatusOK || res.Body["xp"] != float64(50) || res.Body["feedback"] != "Your effort is noted." {
		t.Fatalf("track: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/habits/track", token, map[string]any{"habit_id": habitID})
	if res.Code != http.StatusConflict || errorCode(res) != "already_tracked_today" {
		t.Fatalf("second track: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodGet, "/api/habits/"+id+"/"+habitID+"/logs", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("habit logs: %d %s", res.Code, res.Raw)
	}

	mirror := map[string]any{"situation": "A stranger drops a wallet.", "choiceA": "Return it", "choiceB": "Keep it", "choice": "A", "testedStat": "social"}
	res = call(t, a, http.MethodPost, "/api/ai/mirror/evaluate", token, mirror)
	if res.Code != http.StatusOK || res.Body["outcome"] != "Fate ripples." {
		t.Fatalf("mirror: %d %s", res.Code, res.Raw)
	}
	stats := statsOf(t, res)
	if stats["level"] != float64(2) || stats["xp"] != float64(0) || res.Body["leveled_up"] != true {
		t.Fatalf("expected level 2 after 100 xp: %s", res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/ai/mirror/evaluate", token, mirror)
	if res.Code != http.StatusTooManyRequests || errorCode(res) != "mirror_already_faced" {
		t.Fatalf("second mirror: %d %s", res.Code, res.Raw)
	}

	res = call(t, a, http.MethodGet, "/api/rewards/"+id, token, nil)
	events, _ := res.Body["events"].([]any)
	if res.Code != http.StatusOK || len(events) != 3 {
		t.Fatalf("reward history: %d %s", res.Code, res.Raw)
	}

	res = call(t, a, http.MethodGet, "/api/leaderboard?sort=level", "", nil)
	entries, _ := res.Body["entries"].([]any)
	if res.Code != http.StatusOK || len(entries) != 1 {
		t.Fatalf("leaderboard: %d %s", res.Code, res.Raw)
	}
	if top, _ := entries[0].(map[string]any); top["username"] != "bram" || top["level"] != float64(2) {
		t.Fatalf("unexpected top entry: %v", entries[0])
	}
}

func TestSearchUsers(t *testing.T) {
	a := newTestApp(t)
	id, _ := register(t, a, "wanderer")
	register(t, a, "warden")
	register(t, a, "oracle")

	res := call(t, a, http.MethodGet, "/api/search/users?q=WAN", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("search: %d %s", res.Code, res.Raw)
	}
	var hits []map[string]any
	if err := json.Unmarshal(res.Raw, &hits); err != nil {
		t.Fatalf("decode hits: %v %s", err, res.Raw)
	}
	if len(hits) != 1 || hits[0]["id"] != id || hits[0]["username"] != "wanderer" {
		t.Fatalf("unexpected hits: %s", res.Raw)
	}
	stats, _ := hits[0]["stats"].(map[string]any)
	if class, _ := stats["class"].(string); class == "" {
		t.Fatalf("hit missing stats.class: %s", res.Raw)
	}
	if _, ok := hits[0]["password_hash"]; ok {
		t.Fatalf("search leaked password hash")
	}

	res = call(t, a, http.MethodGet, "/api/search/users?q=wa", "", nil)
	if err := json.Unmarshal(res.Raw, &hits); err != nil || len(hits) != 2 {
		t.Fatalf("prefix wa: %d %s", res.Code, res.Raw)
	}

	res = call(t, a, http.MethodGet, "/api/search/users", "", nil)
	if res.Code != http.StatusBadRequest || errorCode(res) != "invalid_query" {
		t.Fatalf("missing q: %d %s", res.Code, res.Raw)
	}
}

func TestOwnershipAndFeed(t *testing.T) {
	a := newTestApp(t)
	aliceID, aliceToken := register(t, a, "alice")
	_, bobToken := register(t, a, "bob")

	res := call(t, a, http.MethodPost, "/api/profile/"+aliceID+"/update", bobToken, map[string]any{"display_name": "pwned"})
	if res.Code != http.StatusForbidden || errorCode(res) != "forbidden" {
		t.Fatalf("foreign update: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodGet, "/api/notifications/"+aliceID, bobToken, nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("foreign notifications: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/posts", bobToken, map[string]any{"author_id": aliceID, "content": "spoof"})
	if res.Code != http.StatusForbidden {
		t.Fatalf("spoofed author: %d %s", res.Code, res.Raw)
	}

	res = call(t, a, http.MethodPost, "/api/posts", aliceToken, map[string]any{"content": "First light."})
	if res.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", res.Code, res.Raw)
	}
	postID, _ := res.Body["id"].(string)
	res = call(t, a, http.MethodPost, "/api/posts/like", bobToken, map[string]any{"post_id": postID})
	if res.Code != http.StatusOK || res.Body["isLiked"] != true || res.Body["resonance"] != float64(1) {
		t.Fatalf("like: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/posts/"+postID+"/comments", bobToken, map[string]any{"content": "Well said."})
	if res.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", res.Code, res.Raw)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	var feed []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &feed); err != nil || len(feed) != 1 {
		t.Fatalf("feed: %v %s", err, rec.Body.String())
	}
	if feed[0]["username"] != "alice" || feed[0]["comment_count"] != float64(1) {
		t.Fatalf("unexpected feed row: %v", feed[0])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/notifications/"+aliceID, nil)
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	var notes []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &notes); err != nil || len(notes) != 1 || notes[0]["type"] != "RESONANCE" {
		t.Fatalf("notifications: %v %s", err, rec.Body.String())
	}
}

func TestOraclesFallBackWithoutProvider(t *testing.T) {
	a := newTestApp(t)

	res := call(t, a, http.MethodGet, "/api/ai/wisdom", "", nil)
	if res.Code != http.StatusOK || res.Body["text"] != "The path unfolds before you." {
		t.Fatalf("wisdom: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/ai/mysterious-name", "", nil)
	if res.Code != http.StatusOK || res.Body["name"] != "Initiate" {
		t.Fatalf("name: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/ai/identity", "", map[string]any{"manifesto": "I seek."})
	if res.Code != http.StatusOK || res.Body["approved"] != true {
		t.Fatalf("identity: %d %s", res.Code, res.Raw)
	}

	_, token := register(t, a, "cyra")
	res = call(t, a, http.MethodPost, "/api/ai/advisor", token, map[string]any{"type": "mystic", "message": "What now?"})
	if res.Code != http.StatusOK || res.Body["reply"] != "The transmission was lost in the void." {
		t.Fatalf("advisor: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/ai/quest/generate", token, map[string]any{"goals": []string{"strength"}})
	quests, _ := res.Body["quests"].([]any)
	if res.Code != http.StatusOK || res.Body["fallback"] != true || len(quests) != 3 {
		t.Fatalf("generate: %d %s", res.Code, res.Raw)
	}
}

func TestMalformedIDsAreBadRequests(t *testing.T) {
	a := newTestApp(t)
	_, token := register(t, a, "dane")
	res := call(t, a, http.MethodPost, "/api/quests/not-a-uuid/complete", token, nil)
	if res.Code != http.StatusBadRequest || errorCode(res) != "invalid_quest_id" {
		t.Fatalf("bad quest id: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodPost, "/api/habits/track", token, map[string]any{"habit_id": "zzz"})
	if res.Code != http.StatusBadRequest || errorCode(res) != "invalid_habit_id" {
		t.Fatalf("bad habit id: %d %s", res.Code, res.Raw)
	}
	res = call(t, a, http.MethodGet, "/api/leaderboard?sort=luck", "", nil)
	if res.Code != http.StatusBadRequest || errorCode(res) != "invalid_sort" {
		t.Fatalf("bad sort: %d %s", res.Code, res.Raw)
	}
}

func TestNotificationStreamDeliversLikes(t *testing.T) {
	a := newTestApp(t)
	authorID, authorToken := register(t, a, "erin")
	_, fanToken := register(t, a, "finn")

	res := call(t, a, http.MethodPost, "/api/posts", authorToken, map[string]any{"content": "Listen."})
	if res.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", res.Code, res.Raw)
	}
	postID, _ := res.Body["id"].(string)

	srv := httptest.NewServer(a.Router)
	defer srv.Close()
	defer a.Clients.Realtime.Hub().Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications/stream?token="+authorToken, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	stream, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer stream.Body.Close()
	if stream.StatusCode != http.StatusOK {
		t.Fatalf("stream status: %d", stream.StatusCode)
	}

	sc := bufio.NewScanner(stream.Body)
	if !sc.Scan() || !strings.HasPrefix(sc.Text(), ": connected") {
		t.Fatalf("expected connect preamble, got %q", sc.Text())
	}

	res = call(t, a, http.MethodPost, "/api/posts/like", fanToken, map[string]any{"post_id": postID})
	if res.Code != http.StatusOK {
		t.Fatalf("like: %d %s", res.Code, res.Raw)
	}

	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg struct {
			Channel string         `json:"channel"`
			Event   string         `json:"event"`
			Data    map[string]any `json:"data"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if msg.Event != "notification" || msg.Channel != "user:"+authorID || msg.Data["type"] != "RESONANCE" {
			t.Fatalf("unexpected frame: %+v", msg)
		}
		return
	}
	t.Fatalf("stream ended before a notification arrived: %v", sc.Err())
}
