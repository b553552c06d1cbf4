// Package setup scores feature records against the three trade-setup
// rubrics. Each rubric is a declared, ordered list of rules so the full
// scoring policy is enumerable and testable instead of buried in branches.
package setup

import (
	"sync"

	"github.com/newthinker/scout/internal/core"
	"github.com/newthinker/scout/internal/feature"
)

// Rule is one rubric entry: a predicate worth a fixed point delta, tagged
// with its stable reason code.
type Rule struct {
	Reason core.Reason
	Points int
	When   func(feature.Record) bool
}

// Scorer scores one symbol's feature record for one setup type
type Scorer interface {
	Type() core.SetupType
	Description() string
	Score(rec feature.Record) core.SetupResult
}

// evaluate applies the shared scorer shape: hard gates first, then the
// rubric. A failed gate forces pass=false but the rubric still runs so the
// score stays inspectable; pass additionally requires reaching minScore on
// the raw (unclamped) sum. The reported score is clamped to [0, 100].
func evaluate(
	setupType core.SetupType,
	gateFails []core.Reason,
	rules []Rule,
	minScore int,
	rec feature.Record,
	metrics map[string]float64,
) core.SetupResult {
	why := make([]core.Reason, 0, len(gateFails)+len(rules))
	why = append(why, gateFails...)

	raw := 0
	for _, r := range rules {
		if r.When(rec) {
			raw += r.Points
			why = append(why, r.Reason)
		}
	}

	score := raw
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return core.SetupResult{
		Setup:   setupType,
		Pass:    len(gateFails) == 0 && raw >= minScore,
		Score:   score,
		Why:     why,
		Metrics: metrics,
	}
}

// trendOK is the shared uptrend check: above the long average, with the
// mid average either unavailable, stacked bullishly, or reclaimed.
func trendOK(rec feature.Record) bool {
	if rec.SMA200 == nil || rec.Close <= *rec.SMA200 {
		return false
	}
	return rec.SMA50 == nil || *rec.SMA50 >= *rec.SMA200 || rec.Close > *rec.SMA50
}

func putMetric(m map[string]float64, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

func putIntMetric(m map[string]float64, key string, v *int) {
	if v != nil {
		m[key] = float64(*v)
	}
}

// Engine holds the registered scorers and runs them all against one record
type Engine struct {
	mu      sync.RWMutex
	order   []core.SetupType
	scorers map[core.SetupType]Scorer
}

// NewEngine creates an empty scorer engine
func NewEngine() *Engine {
	return &Engine{scorers: make(map[core.SetupType]Scorer)}
}

// Register adds a scorer, keeping registration order for evaluation
func (e *Engine) Register(s Scorer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.scorers[s.Type()]; !ok {
		e.order = append(e.order, s.Type())
	}
	e.scorers[s.Type()] = s
}

// Get retrieves a scorer by setup type
func (e *Engine) Get(t core.SetupType) (Scorer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.scorers[t]
	return s, ok
}

// ScoreAll runs every registered scorer against the same feature record
func (e *Engine) ScoreAll(rec feature.Record) core.SetupResults {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(core.SetupResults, len(e.order))
	for _, t := range e.order {
		out[t] = e.scorers[t].Score(rec)
	}
	return out
}
