package scoring

import (
	"slices"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

// RatingAllowed reports whether a movie certified movieRated may be shown under
// the age-rating ceiling pref. Ratings on the same scale compare by rank;
// anything else must match exactly.
func RatingAllowed(movieRated, pref string) bool {
	movie := domain.NormalizeRated(movieRated)
	ceiling := domain.NormalizeAgePreference(pref)

	switch ceiling {
	case domain.AgeRatingAny:
		return true
	case domain.AgeRatingNotRated:
		return movie == domain.AgeRatingNotRated
	}

	for _, scale := range [][]string{constants.TheatricalRatings, constants.TelevisionRatings} {
		movieRank := slices.Index(scale, movie)
		ceilingRank := slices.Index(scale, ceiling)
		if movieRank >= 0 && ceilingRank >= 0 {
			return movieRank <= ceilingRank
		}
	}

	return movie == ceiling
}
