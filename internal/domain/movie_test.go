package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieRecordAccessors(t *testing.T) {
	record := &MovieRecord{
		ImdbID:     "tt0133093",
		Genre:      "Action, Sci-Fi",
		Runtime:    "136 min",
		ImdbRating: "8.7",
		Director:   "Lana Wachowski, Lilly Wachowski",
		Actors:     "Keanu Reeves, Laurence Fishburne, ",
		Type:       "movie",
		Poster:     "N/A",
	}

	assert.Equal(t, []string{"ACTION", "SCI-FI"}, record.Genres())
	minutes, ok := record.RuntimeMinutes()
	require.True(t, ok)
	assert.Equal(t, 136, minutes)
	assert.InDelta(t, 8.7, record.Rating(), 1e-9)
	assert.Equal(t, []string{"Lana Wachowski", "Lilly Wachowski"}, record.Directors())
	assert.Equal(t, []string{"Keanu Reeves", "Laurence Fishburne"}, record.ActorNames())
	assert.True(t, record.IsMovie())
	assert.Empty(t, record.PosterURL())
}

func TestMovieRecordMissingFields(t *testing.T) {
	record := &MovieRecord{ImdbRating: "N/A", Runtime: "N/A", Director: "N/A", Type: "series"}

	_, ok := record.RuntimeMinutes()
	assert.False(t, ok)
	assert.Zero(t, record.Rating())
	assert.Empty(t, record.Directors())
	assert.Empty(t, record.Genres())
	assert.False(t, record.IsMovie())
}

func TestParseRuntimeMinutesCaseInsensitive(t *testing.T) {
	minutes, ok := ParseRuntimeMinutes("90MIN")
	require.True(t, ok)
	assert.Equal(t, 90, minutes)

	_, ok = ParseRuntimeMinutes("1h 30m")
	assert.False(t, ok)
}

func TestDiscoveredIndexAddDedupes(t *testing.T) {
	index := DiscoveredIndex{}

	assert.True(t, index.Add("DRAMA", "tt1"))
	assert.False(t, index.Add("DRAMA", "tt1"))
	assert.True(t, index.Add("DRAMA", "tt2"))
	assert.Equal(t, []string{"tt1", "tt2"}, index["DRAMA"])
}

func TestNewPreferencesNormalizes(t *testing.T) {
	prefs := NewPreferences([]string{" drama", "Sci-Fi", ""}, 5, " pg-13 ", 0, 999)

	assert.Equal(t, []string{"DRAMA", "SCI-FI"}, prefs.Genres())
	assert.Equal(t, "PG-13", prefs.AgeRating)
	assert.Equal(t, 999, prefs.MaxRuntime)
	assert.True(t, prefs.HasGenreFilter())

	empty := NewPreferences(nil, 0, "", 120, 999)
	assert.False(t, empty.HasGenreFilter())
	assert.Equal(t, AgeRatingAny, empty.AgeRating)
	assert.Equal(t, 120, empty.MaxRuntime)
}
