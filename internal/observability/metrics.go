package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

type Config struct {
	Enabled        bool
	ScrapeInterval time.Duration
}

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	rewards     *CounterVec
	rewardXP    *CounterVec
	levelUps    *Counter
	txRetries   *CounterVec
	boardReads  *CounterVec
	dbStats     *GaugeVec
	redisUp     *Gauge
	redisPing   *Gauge
	collectors  []collector
	scrapeEvery time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry. It returns nil when metrics are
// disabled, and every method on a nil *Metrics is a no-op.
func Init(log *logger.Logger, cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New(cfg)
		if log != nil {
			log.Info("metrics enabled", "scrape_interval", instance.scrapeEvery.String())
		}
	})
	return instance
}

// New returns an unregistered set of collectors.
func New(cfg Config) *Metrics {
	every := cfg.ScrapeInterval
	if every <= 0 {
		every = 10 * time.Second
	}
	m := &Metrics{
		apiRequests: NewCounterVec("aletheia_api_requests_total", "API requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("aletheia_api_request_duration_seconds", "API request latency.", []string{"method", "route"}, nil),
		apiInflight: NewGauge("aletheia_api_inflight_requests", "Requests currently being served."),
		llmRequests: NewCounterVec("aletheia_llm_requests_total", "Model calls by prompt and outcome.", []string{"prompt", "outcome"}),
		llmLatency: NewHistogramVec("aletheia_llm_request_duration_seconds", "Model call latency.", []string{"prompt"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 30}),
		rewards:     NewCounterVec("aletheia_rewards_applied_total", "Rewards applied by source.", []string{"source"}),
		rewardXP:    NewCounterVec("aletheia_reward_xp_total", "XP granted by source.", []string{"source"}),
		levelUps:    NewCounter("aletheia_level_ups_total", "Levels gained across all users."),
		txRetries:   NewCounterVec("aletheia_tx_retries_total", "Transaction retries by cause.", []string{"cause"}),
		boardReads:  NewCounterVec("aletheia_leaderboard_reads_total", "Leaderboard reads by backing store.", []string{"store"}),
		dbStats:     NewGaugeVec("aletheia_db_stats", "database/sql pool statistics.", []string{"stat"}),
		redisUp:     NewGauge("aletheia_redis_up", "1 when the last redis ping succeeded."),
		redisPing:   NewGauge("aletheia_redis_ping_seconds", "Latency of the last redis ping."),
		scrapeEvery: every,
	}
	m.collectors = []collector{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.rewards, m.rewardXP, m.levelUps, m.txRetries, m.boardReads,
		m.dbStats, m.redisUp, m.redisPing,
	}
	return m
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveLLM records one oracle call. outcome is "model" when the reply was
// used and "fallback" when the canned answer was served instead.
func (m *Metrics) ObserveLLM(prompt, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(prompt, outcome)
	m.llmLatency.Observe(dur.Seconds(), prompt)
}

func (m *Metrics) ObserveReward(source string, xp int, levelsGained int) {
	if m == nil {
		return
	}
	m.rewards.Inc(source)
	if xp > 0 {
		m.rewardXP.Add(float64(xp), source)
	}
	if levelsGained > 0 {
		m.levelUps.Add(float64(levelsGained))
	}
}

func (m *Metrics) IncTxRetry(cause string) {
	if m == nil {
		return
	}
	m.txRetries.Inc(cause)
}

func (m *Metrics) IncLeaderboardRead(store string) {
	if m == nil {
		return
	}
	m.boardReads.Inc(store)
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.scrapeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, opts *redis.Options) {
	if m == nil || opts == nil || strings.TrimSpace(opts.Addr) == "" {
		return
	}
	rdb := redis.NewClient(opts)
	go func() {
		ticker := time.NewTicker(m.scrapeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
