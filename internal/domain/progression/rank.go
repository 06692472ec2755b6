package progression

type Rank string

const (
	RankE        Rank = "E"
	RankD        Rank = "D"
	RankC        Rank = "C"
	RankB        Rank = "B"
	RankA        Rank = "A"
	RankS        Rank = "S"
	RankNational Rank = "NATIONAL"
)

type rankStep struct {
	minLevel int
	rank     Rank
}

// ascending by minLevel
var rankSteps = []rankStep{
	{1, RankE},
	{10, RankD},
	{20, RankC},
	{40, RankB},
	{60, RankA},
	{80, RankS},
	{100, RankNational},
}

func RankFor(level int) Rank {
	r := RankE
	for _, s := range rankSteps {
		if level >= s.minLevel {
			r = s.rank
		}
	}
	return r
}

// RanksCrossed returns the ranks first reached when moving from level
// before to level after, lowest first.
func RanksCrossed(before, after int) []Rank {
	var out []Rank
	for _, s := range rankSteps[1:] {
		if before < s.minLevel && after >= s.minLevel {
			out = append(out, s.rank)
		}
	}
	return out
}
