package domain

import "time"

// ScoreBreakdown lists the components that make up a score.
type ScoreBreakdown struct {
	Overlap float64
	Rating  float64
	Runtime float64
	Taste   float64
}

// ScoredEntry pairs a record that passed every filter with its score.
type ScoredEntry struct {
	Movie     *MovieRecord
	Score     float64
	Breakdown ScoreBreakdown
}

// FetchStatus describes what happened to a single identifier during a run.
type FetchStatus string

const (
	FetchStatusFetched FetchStatus = "fetched"
	FetchStatusCached  FetchStatus = "cached"
	FetchStatusSkipped FetchStatus = "skipped"
)

// FetchOutcome is the result of one detail-fetch attempt.
type FetchOutcome struct {
	ID     string
	Status FetchStatus
	Reason string
}

// RunReport collects fetch outcomes of a run so skipped items stay visible.
type RunReport struct {
	RunID          string
	StartedAt      time.Time
	Outcomes       []FetchOutcome
	SearchFailures int
}

func (r *RunReport) Record(outcome FetchOutcome) {
	if r == nil {
		return
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// Merge appends the outcomes of other to r.
func (r *RunReport) Merge(other *RunReport) {
	if r == nil || other == nil {
		return
	}
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
	r.SearchFailures += other.SearchFailures
}

func (r *RunReport) Count(status FetchStatus) int {
	if r == nil {
		return 0
	}
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			count++
		}
	}
	return count
}

// Recommendation is the sorted output of one run.
type Recommendation struct {
	Entries  []ScoredEntry
	PoolSize int
	Report   *RunReport
}

// StatusFunc receives progress messages during long-running phases. A nil
// StatusFunc discards them.
type StatusFunc func(message string)

func (f StatusFunc) Report(message string) {
	if f != nil {
		f(message)
	}
}
