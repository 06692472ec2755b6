package progression

import "sort"

// Reward is a sanitized payload. Stats keys are attribute names as received;
// keys that do not name an attribute are ignored by ApplyReward.
type Reward struct {
	XP    int            `json:"xp"`
	Stats map[string]int `json:"stats,omitempty"`
}

func (r Reward) IsZero() bool {
	if r.XP != 0 {
		return false
	}
	for _, d := range r.Stats {
		if d != 0 {
			return false
		}
	}
	return true
}

type Result struct {
	Stats        Stats
	LevelsGained int
	LeveledUp    bool
	// IgnoredKeys are reward keys that named no attribute, sorted.
	IgnoredKeys []string
	// Applied holds the attribute deltas actually added, after flooring.
	Applied map[Attribute]int
}

// ApplyReward adds xp with rollover and accretes attribute deltas.
// Rollover loops so a large reward can gain several levels; each level
// raises the threshold to floor(threshold * 1.2). Attributes floor at 0.
// Gauges (resonance, health) and class are never touched.
func ApplyReward(stats Stats, reward Reward) Result {
	out := stats.Normalized()
	startLevel := out.Level

	// Runs for stat-only rewards too: stored xp at or over the threshold rolls over.
	xp := out.XP
	if reward.XP > 0 {
		xp += reward.XP
	}
	for xp >= out.XPToNextLevel {
		xp -= out.XPToNextLevel
		out.Level++
		out.XPToNextLevel = nextThreshold(out.XPToNextLevel)
	}
	out.XP = xp

	res := Result{Applied: map[Attribute]int{}}
	keys := make([]string, 0, len(reward.Stats))
	for k := range reward.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		delta := reward.Stats[k]
		attr, ok := ParseAttribute(k)
		if !ok {
			res.IgnoredKeys = append(res.IgnoredKeys, k)
			continue
		}
		before := out.Get(attr)
		after := before + delta
		if after < 0 {
			after = 0
		}
		out.set(attr, after)
		if after != before {
			res.Applied[attr] += after - before
		}
	}

	res.Stats = out
	res.LevelsGained = out.Level - startLevel
	res.LeveledUp = res.LevelsGained > 0
	return res
}
