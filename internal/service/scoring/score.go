// Package scoring filters and scores cached movies against preferences.
// Every function here is pure.
package scoring

import (
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
)

const (
	noGenreFilterScore = 25
	overlapPerGenre    = 20
	maxOverlapScore    = 50
	maxRatingScore     = 40
	unknownRuntime     = 6
	maxRuntimeScore    = 10
	runtimePenalty     = 6

	genreBoost    = 3
	directorBoost = 8
	actorBoost    = 2
	maxActorHits  = 3
)

// Result is the outcome of scoring one record. Value and Breakdown are zero
// when Included is false.
type Result struct {
	Included  bool
	Value     float64
	Breakdown domain.ScoreBreakdown
}

// Score applies the genre, rating, age-rating and runtime filters to record and
// scores it when all pass. profile may be nil.
func Score(record *domain.MovieRecord, prefs domain.Preferences, profile *domain.TasteProfile) Result {
	if record == nil {
		return Result{}
	}

	genres := distinct(record.Genres())
	overlap := 0
	for _, genre := range genres {
		if prefs.Selects(genre) {
			overlap++
		}
	}
	if prefs.HasGenreFilter() && overlap == 0 {
		return Result{}
	}

	rating := record.Rating()
	if rating < prefs.MinRating {
		return Result{}
	}

	if !RatingAllowed(record.Rated, prefs.AgeRating) {
		return Result{}
	}

	runtime, hasRuntime := record.RuntimeMinutes()
	if hasRuntime && runtime > prefs.MaxRuntime {
		return Result{}
	}

	var breakdown domain.ScoreBreakdown
	if prefs.HasGenreFilter() {
		breakdown.Overlap = float64(util.Min(maxOverlapScore, overlap*overlapPerGenre))
	} else {
		breakdown.Overlap = noGenreFilterScore
	}

	breakdown.Rating = util.Clamp(0, maxRatingScore, rating/10*maxRatingScore)

	breakdown.Runtime = unknownRuntime
	if hasRuntime && prefs.MaxRuntime > 0 {
		ratio := float64(runtime) / float64(prefs.MaxRuntime)
		breakdown.Runtime = util.Clamp(0, maxRuntimeScore, maxRuntimeScore-ratio*runtimePenalty)
	}

	breakdown.Taste = TasteBoost(record, profile)

	total := breakdown.Overlap + breakdown.Rating + breakdown.Runtime + breakdown.Taste
	return Result{
		Included:  true,
		Value:     util.RoundTo(total, 1),
		Breakdown: breakdown,
	}
}

// TasteBoost counts distinct genre, director and actor matches between record
// and profile. Counts in the profile are ignored; only presence matters.
func TasteBoost(record *domain.MovieRecord, profile *domain.TasteProfile) float64 {
	if record == nil || profile.IsEmpty() {
		return 0
	}

	genres := countPresent(distinct(record.Genres()), profile.Genres)
	directors := countPresent(distinct(record.Directors()), profile.Directors)
	actors := countPresent(distinct(record.ActorNames()), profile.Actors)
	if actors > maxActorHits {
		actors = maxActorHits
	}

	return float64(genres*genreBoost + directors*directorBoost + actors*actorBoost)
}

func countPresent(values []string, counts map[string]int) int {
	n := 0
	for _, value := range values {
		if _, ok := counts[value]; ok {
			n++
		}
	}
	return n
}

func distinct(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := values[:0:0]
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
