// Package progression is the reward ledger math: level rollover, attribute
// accretion and the clamping of untrusted reward payloads. It is pure; the
// services layer owns persistence.
package progression

import "strings"

type Attribute string

const (
	Intelligence Attribute = "intelligence"
	Physical     Attribute = "physical"
	Spiritual    Attribute = "spiritual"
	Social       Attribute = "social"
	Wealth       Attribute = "wealth"
)

// Attributes lists the five rewardable attributes in display order.
var Attributes = []Attribute{Intelligence, Physical, Spiritual, Social, Wealth}

// ParseAttribute matches case-insensitively and ignores surrounding space.
func ParseAttribute(s string) (Attribute, bool) {
	a := Attribute(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case Intelligence, Physical, Spiritual, Social, Wealth:
		return a, true
	default:
		return "", false
	}
}

const (
	DefaultClass         = "Initiate"
	BaseXPToNextLevel    = 100
	levelThresholdGrowth = 1.2
)

type Stats struct {
	Level         int    `json:"level"`
	XP            int    `json:"xp"`
	XPToNextLevel int    `json:"xpToNextLevel"`
	Intelligence  int    `json:"intelligence"`
	Physical      int    `json:"physical"`
	Spiritual     int    `json:"spiritual"`
	Social        int    `json:"social"`
	Wealth        int    `json:"wealth"`
	Class         string `json:"class"`
	Resonance     int    `json:"resonance"`
	MaxResonance  int    `json:"maxResonance"`
	Health        int    `json:"health"`
	MaxHealth     int    `json:"maxHealth"`
}

func DefaultStats() Stats {
	return Stats{
		Level:         1,
		XP:            0,
		XPToNextLevel: BaseXPToNextLevel,
		Intelligence:  1,
		Physical:      1,
		Spiritual:     1,
		Social:        1,
		Wealth:        1,
		Class:         DefaultClass,
		Resonance:     10,
		MaxResonance:  100,
		Health:        10,
		MaxHealth:     100,
	}
}

func (s Stats) Get(a Attribute) int {
	switch a {
	case Intelligence:
		return s.Intelligence
	case Physical:
		return s.Physical
	case Spiritual:
		return s.Spiritual
	case Social:
		return s.Social
	case Wealth:
		return s.Wealth
	}
	return 0
}

func (s *Stats) set(a Attribute, v int) {
	switch a {
	case Intelligence:
		s.Intelligence = v
	case Physical:
		s.Physical = v
	case Spiritual:
		s.Spiritual = v
	case Social:
		s.Social = v
	case Wealth:
		s.Wealth = v
	}
}

// Normalized repairs values a stored document may carry from older clients:
// level below 1, negative xp, a non-positive threshold.
func (s Stats) Normalized() Stats {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XP < 0 {
		s.XP = 0
	}
	if s.XPToNextLevel <= 0 {
		s.XPToNextLevel = BaseXPToNextLevel
	}
	for _, a := range Attributes {
		if s.Get(a) < 0 {
			s.set(a, 0)
		}
	}
	if strings.TrimSpace(s.Class) == "" {
		s.Class = DefaultClass
	}
	return s
}

func nextThreshold(cur int) int {
	n := int(float64(cur) * levelThresholdGrowth)
	if n < 1 {
		n = 1
	}
	return n
}
