package ranking

import (
	"cmp"
	"maps"
	"slices"

	"longentry/internal/domain"
)

const DefaultMinScore = 40.0

var DefaultMaxActive = map[domain.Pool]int{
	domain.PoolMarkets: 6,
	domain.PoolStocks:  4,
}

// Policy is the activation configuration handed to Rank.
type Policy struct {
	MaxActive map[domain.Pool]int
	MinScore  float64
	Rules     []ThresholdRule

	// Reserved counts pinned-active rows per pool that are not among the
	// candidates, e.g. a pin on an instrument that could not be scored.
	Reserved map[domain.Pool]int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxActive: cloneLimits(DefaultMaxActive),
		MinScore:  DefaultMinScore,
		Rules:     DefaultThresholdRules,
	}
}

func (p Policy) MaxActiveFor(pool domain.Pool) int {
	if n, ok := p.MaxActive[pool]; ok {
		return n
	}
	return DefaultMaxActive[pool]
}

// WithMaxActive returns a copy of the policy with one pool's limit replaced.
func (p Policy) WithMaxActive(pool domain.Pool, n int) Policy {
	p.MaxActive = cloneLimits(p.MaxActive)
	p.MaxActive[pool] = n
	return p
}

// WithReserved returns a copy of the policy holding n extra slots in pool.
func (p Policy) WithReserved(pool domain.Pool, n int) Policy {
	p.Reserved = cloneLimits(p.Reserved)
	p.Reserved[pool] = n
	return p
}

type Candidate struct {
	Symbol     string
	Pool       domain.Pool
	FinalScore float64

	// Overridden pins the candidate; PinnedActive is its frozen state.
	Overridden   bool
	PinnedActive bool
}

type Placement struct {
	Symbol     string
	Pool       domain.Pool
	Rank       int
	Active     bool
	Overridden bool
}

// Rank orders each pool by final score and decides activation. Pinned
// candidates keep their state and each pinned-active one consumes a slot, as
// does every reserved slot;
// the remaining slots go to unpinned candidates in rank order that clear the
// adjusted threshold.
func Rank(cands []Candidate, policy Policy, perf RecentPerformance) []Placement {
	threshold, _ := policy.Threshold(perf)

	pools := make(map[domain.Pool][]Candidate)
	for _, c := range cands {
		pools[c.Pool] = append(pools[c.Pool], c)
	}
	names := make([]domain.Pool, 0, len(pools))
	for p := range pools {
		names = append(names, p)
	}
	slices.Sort(names)

	out := make([]Placement, 0, len(cands))
	for _, pool := range names {
		members := pools[pool]
		slices.SortStableFunc(members, func(a, b Candidate) int {
			if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
				return c
			}
			return cmp.Compare(a.Symbol, b.Symbol)
		})

		pinnedActive := policy.Reserved[pool]
		for _, c := range members {
			if c.Overridden && c.PinnedActive {
				pinnedActive++
			}
		}
		autoSlots := max(0, policy.MaxActiveFor(pool)-pinnedActive)

		auto := 0
		for i, c := range members {
			pl := Placement{Symbol: c.Symbol, Pool: pool, Rank: i + 1, Overridden: c.Overridden}
			if c.Overridden {
				pl.Active = c.PinnedActive
			} else {
				pl.Active = auto < autoSlots && c.FinalScore >= threshold
				auto++
			}
			out = append(out, pl)
		}
	}
	return out
}

func cloneLimits(m map[domain.Pool]int) map[domain.Pool]int {
	if m == nil {
		return make(map[domain.Pool]int)
	}
	return maps.Clone(m)
}
