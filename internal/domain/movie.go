package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var runtimePattern = regexp.MustCompile(`(?i)(\d+)\s*min`)

// notAvailable is the catalog's placeholder for missing fields.
const notAvailable = "N/A"

// MovieRecord is an OMDb detail object as returned by the catalog. It is cached
// verbatim and only ever replaced wholesale on re-fetch.
type MovieRecord struct {
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Rated      string `json:"Rated"`
	Runtime    string `json:"Runtime"`
	ImdbRating string `json:"imdbRating"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot,omitempty"`
	Type       string `json:"Type"`
	Poster     string `json:"Poster"`
}

// Genres returns the uppercase genre tokens of the record.
func (m *MovieRecord) Genres() []string {
	if m == nil {
		return nil
	}
	return ParseGenres(m.Genre)
}

// RuntimeMinutes extracts the minutes from a free-text runtime such as "142 min".
func (m *MovieRecord) RuntimeMinutes() (int, bool) {
	if m == nil {
		return 0, false
	}
	return ParseRuntimeMinutes(m.Runtime)
}

// Rating returns the numeric external rating; absent or "N/A" ratings count as 0.
func (m *MovieRecord) Rating() float64 {
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(m.ImdbRating), 64)
	if err != nil {
		return 0
	}
	return value
}

func (m *MovieRecord) Directors() []string {
	if m == nil {
		return nil
	}
	return SplitNames(m.Director)
}

func (m *MovieRecord) ActorNames() []string {
	if m == nil {
		return nil
	}
	return SplitNames(m.Actors)
}

// IsMovie reports whether the record is a feature film. Records without a type
// are treated as movies.
func (m *MovieRecord) IsMovie() bool {
	if m == nil {
		return false
	}
	kind := strings.ToLower(strings.TrimSpace(m.Type))
	return kind == "" || kind == "movie"
}

// PosterURL returns the poster link or "" when the catalog has none.
func (m *MovieRecord) PosterURL() string {
	if m == nil {
		return ""
	}
	poster := strings.TrimSpace(m.Poster)
	if poster == "" || strings.EqualFold(poster, notAvailable) {
		return ""
	}
	return poster
}

// SearchHit is a single entry of a catalog search page.
type SearchHit struct {
	ImdbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// DetailsCache maps an identifier to its cached record.
type DetailsCache map[string]*MovieRecord

func (c DetailsCache) Has(id string) bool {
	record, ok := c[id]
	return ok && record != nil
}

// DiscoveredIndex maps a genre token to identifiers confirmed to carry that genre.
type DiscoveredIndex map[string][]string

// Add records id under genre. It reports whether the index changed.
func (d DiscoveredIndex) Add(genre, id string) bool {
	for _, existing := range d[genre] {
		if existing == id {
			return false
		}
	}
	d[genre] = append(d[genre], id)
	return true
}

func ParseGenres(genre string) []string {
	if strings.TrimSpace(genre) == "" {
		return nil
	}
	parts := strings.Split(genre, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.ToUpper(strings.TrimSpace(part)); token != "" && token != notAvailable {
			result = append(result, token)
		}
	}
	return result
}

func ParseRuntimeMinutes(runtime string) (int, bool) {
	match := runtimePattern.FindStringSubmatch(runtime)
	if len(match) < 2 {
		return 0, false
	}
	minutes, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return minutes, true
}

// SplitNames splits a comma-separated list of people, dropping empty and "N/A" names.
func SplitNames(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" && !strings.EqualFold(name, notAvailable) {
			result = append(result, name)
		}
	}
	return result
}
