package progression

import "strings"

// Difficulty is a quest tier letter.
type Difficulty string

const (
	TierE Difficulty = "E"
	TierD Difficulty = "D"
	TierC Difficulty = "C"
	TierB Difficulty = "B"
	TierA Difficulty = "A"
	TierS Difficulty = "S"
)

var tierLimits = map[Difficulty]Limits{
	TierE: {MaxXP: 50, MinDelta: 0, MaxDelta: 1},
	TierD: {MaxXP: 100, MinDelta: 0, MaxDelta: 2},
	TierC: {MaxXP: 150, MinDelta: 0, MaxDelta: 3},
	TierB: {MaxXP: 250, MinDelta: 0, MaxDelta: 4},
	TierA: {MaxXP: 400, MinDelta: 0, MaxDelta: 5},
	TierS: {MaxXP: 600, MinDelta: 0, MaxDelta: 6},
}

func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := tierLimits[d]
	return d, ok
}

// NormalizeDifficulty falls back to E for anything unrecognised.
func NormalizeDifficulty(s string) Difficulty {
	if d, ok := ParseDifficulty(s); ok {
		return d
	}
	return TierE
}

func TierLimits(d Difficulty) Limits {
	if l, ok := tierLimits[d]; ok {
		return l
	}
	return tierLimits[TierE]
}

// ManualQuestLimits caps user-authored quests: tier xp, no stat deltas.
func ManualQuestLimits(d Difficulty) Limits {
	l := TierLimits(d)
	return Limits{MaxXP: l.MaxXP}
}

const (
	habitBaseXP        = 50
	habitMilestoneDays = 7
)

// HabitReward is the fixed reward for tracking a habit at the given
// post-increment streak: 50 * (1 + floor(streak/7)) xp, plus one spiritual
// point on every 7-day milestone.
func HabitReward(streak int) Reward {
	if streak < 1 {
		streak = 1
	}
	r := Reward{XP: habitBaseXP * (1 + streak/habitMilestoneDays)}
	if streak%habitMilestoneDays == 0 {
		r.Stats = map[string]int{string(Spiritual): 1}
	}
	return r
}
