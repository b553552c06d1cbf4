// Package rank builds sorted shortlists of passing symbols per setup type.
package rank

import (
	"sort"
	"strings"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
)

// maxWhyReasons caps how many reason codes appear in a ranking row's
// joined "why" string.
const maxWhyReasons = 4

// Candidate bundles everything the ranker needs to know about one symbol.
type Candidate struct {
	Symbol   string
	Results  core.SetupResults
	Record   feature.Record
	ScanHits []string
}

// Ranker sorts passing candidates into per-setup shortlists.
type Ranker struct {
	topN int
}

// New creates a Ranker that truncates each shortlist to topN entries.
func New(topN int) *Ranker {
	if topN <= 0 {
		topN = 10
	}
	return &Ranker{topN: topN}
}

// Rank produces one sorted, truncated shortlist per setup type. Only
// candidates whose result passed for that setup are considered.
func (r *Ranker) Rank(candidates []Candidate) map[core.SetupType][]core.RankingEntry {
	out := make(map[core.SetupType][]core.RankingEntry, len(core.SetupTypes))
	for _, setup := range core.SetupTypes {
		out[setup] = r.rankSetup(setup, candidates)
	}
	return out
}

func (r *Ranker) rankSetup(setup core.SetupType, candidates []Candidate) []core.RankingEntry {
	passing := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		res, ok := c.Results[setup]
		if ok && res.Pass {
			passing = append(passing, c)
		}
	}

	sort.Slice(passing, func(i, j int) bool {
		return less(setup, passing[i], passing[j])
	})

	if len(passing) > r.topN {
		passing = passing[:r.topN]
	}

	entries := make([]core.RankingEntry, 0, len(passing))
	for _, c := range passing {
		res := c.Results[setup]
		entries = append(entries, core.RankingEntry{
			Symbol:   c.Symbol,
			Score:    res.Score,
			Why:      joinWhy(res.Why),
			ScanHits: c.ScanHits,
		})
	}
	return entries
}

// less implements the shortlist total order: score descending, then
// volume ratio descending, then distance from the 20-day average
// ascending (less chase), then symbol ascending. The symbol tie-break
// makes the order strict for distinct symbols.
func less(setup core.SetupType, a, b Candidate) bool {
	sa, sb := a.Results[setup].Score, b.Results[setup].Score
	if sa != sb {
		return sa > sb
	}
	va, vb := floatOrZero(a.Record.VolumeRatio), floatOrZero(b.Record.VolumeRatio)
	if va != vb {
		return va > vb
	}
	pa, pb := floatOrZero(a.Record.PctFromSMA20), floatOrZero(b.Record.PctFromSMA20)
	if pa != pb {
		return pa < pb
	}
	return a.Symbol < b.Symbol
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// joinWhy renders the leading reason codes as a single display string.
func joinWhy(reasons []core.Reason) string {
	n := len(reasons)
	if n > maxWhyReasons {
		n = maxWhyReasons
	}
	parts := make([]string, 0, n)
	for _, reason := range reasons[:n] {
		parts = append(parts, string(reason))
	}
	return strings.Join(parts, " + ")
}
