package progression

import (
	"math"
	"strings"
	"unicode/utf8"
)

// RawReward is a reward as decoded from untrusted input. Numbers arrive as
// float64 because model output is not guaranteed to be integral.
type RawReward struct {
	XP    float64            `json:"xp"`
	Stats map[string]float64 `json:"stats"`
}

// Limits bound one reward source.
type Limits struct {
	MaxXP    int
	MinDelta int
	MaxDelta int
}

var (
	FeatLimits   = Limits{MaxXP: 500, MinDelta: 0, MaxDelta: 5}
	MirrorLimits = Limits{MaxXP: 100, MinDelta: -2, MaxDelta: 3}
)

// SanitizeReward rounds half away from zero, zeroes NaN and Inf, and clamps
// xp to [0, MaxXP] and each delta to [MinDelta, MaxDelta]. Zero deltas are
// dropped. Unknown keys are kept so ApplyReward can report them.
func SanitizeReward(raw RawReward, limits Limits) Reward {
	out := Reward{XP: clamp(roundFinite(raw.XP), 0, limits.MaxXP)}
	for k, v := range raw.Stats {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		d := clamp(roundFinite(v), limits.MinDelta, limits.MaxDelta)
		if d == 0 {
			continue
		}
		if out.Stats == nil {
			out.Stats = map[string]int{}
		}
		out.Stats[k] += d
	}
	return out
}

// RawStats is a starting stat block from a client or the identity model.
type RawStats struct {
	Intelligence float64 `json:"intelligence"`
	Physical     float64 `json:"physical"`
	Spiritual    float64 `json:"spiritual"`
	Social       float64 `json:"social"`
	Wealth       float64 `json:"wealth"`
	Class        string  `json:"class"`
}

const (
	minInitialAttr   = 1
	maxInitialAttr   = 10
	maxClassRunes    = 40
	InitialClassName = "Seeker"
)

// SanitizeInitialStats builds a level-1 stat block. Attributes clamp to
// [1,10]; the class is trimmed to 40 runes and defaults to Seeker.
func SanitizeInitialStats(raw RawStats) Stats {
	s := DefaultStats()
	s.Intelligence = clamp(roundFinite(raw.Intelligence), minInitialAttr, maxInitialAttr)
	s.Physical = clamp(roundFinite(raw.Physical), minInitialAttr, maxInitialAttr)
	s.Spiritual = clamp(roundFinite(raw.Spiritual), minInitialAttr, maxInitialAttr)
	s.Social = clamp(roundFinite(raw.Social), minInitialAttr, maxInitialAttr)
	s.Wealth = clamp(roundFinite(raw.Wealth), minInitialAttr, maxInitialAttr)
	s.Class = trimRunes(strings.TrimSpace(raw.Class), maxClassRunes)
	if s.Class == "" {
		s.Class = InitialClassName
	}
	return s
}

func roundFinite(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := math.Round(v)
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	if r < math.MinInt32 {
		return math.MinInt32
	}
	return int(r)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trimRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
