package domain

import (
	"sort"
	"strings"
)

// AgeRatingAny disables the age-rating filter.
const AgeRatingAny = "ANY"

// AgeRatingNotRated is the canonical form of every "no rating" variant.
const AgeRatingNotRated = "NOT-RATED"

// Preferences are the user-selected filters of one recommendation run.
type Preferences struct {
	SelectedGenres map[string]struct{}
	MinRating      float64
	AgeRating      string
	MaxRuntime     int
}

// NewPreferences builds normalized preferences. Genres are uppercased, an empty
// age rating means ANY and a non-positive runtime ceiling falls back to defaultMaxRuntime.
func NewPreferences(genres []string, minRating float64, ageRating string, maxRuntime, defaultMaxRuntime int) Preferences {
	selected := make(map[string]struct{}, len(genres))
	for _, genre := range genres {
		if token := strings.ToUpper(strings.TrimSpace(genre)); token != "" {
			selected[token] = struct{}{}
		}
	}

	if maxRuntime <= 0 {
		maxRuntime = defaultMaxRuntime
	}

	return Preferences{
		SelectedGenres: selected,
		MinRating:      minRating,
		AgeRating:      NormalizeAgePreference(ageRating),
		MaxRuntime:     maxRuntime,
	}
}

// HasGenreFilter reports whether at least one genre is selected.
func (p Preferences) HasGenreFilter() bool {
	return len(p.SelectedGenres) > 0
}

// Genres returns the selected genres in sorted order.
func (p Preferences) Genres() []string {
	genres := make([]string, 0, len(p.SelectedGenres))
	for genre := range p.SelectedGenres {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return genres
}

func (p Preferences) Selects(genre string) bool {
	_, ok := p.SelectedGenres[genre]
	return ok
}

// NormalizeAgePreference canonicalizes a requested age-rating ceiling. Empty
// means ANY; the "no rating" variants collapse to NOT-RATED.
func NormalizeAgePreference(value string) string {
	if strings.TrimSpace(value) == "" {
		return AgeRatingAny
	}
	return NormalizeRated(value)
}

// NormalizeRated canonicalizes a certificate. Empty, "N/A", "Not Rated" and
// "Unrated" all become NOT-RATED.
func NormalizeRated(value string) string {
	upper := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case upper == "", upper == "N/A":
		return AgeRatingNotRated
	case strings.Contains(upper, "NOT RATED"), strings.Contains(upper, "UNRATED"):
		return AgeRatingNotRated
	}
	return upper
}
