// Package omdbtest provides an in-memory catalog for tests.
package omdbtest

import (
	"context"
	"strings"
	"sync"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
)

// Catalog implements omdb.MetadataClient over fixed records and search pages.
type Catalog struct {
	mu sync.Mutex

	Records map[string]*domain.MovieRecord
	// Pages maps a query to its result pages; Pages[q][0] is page 1.
	Pages map[string][][]domain.SearchHit
	// FailSearch lists queries whose searches fail with a TransportError.
	FailSearch map[string]bool

	FetchCalls  []string
	SearchCalls []string
}

func NewCatalog() *Catalog {
	return &Catalog{
		Records:    make(map[string]*domain.MovieRecord),
		Pages:      make(map[string][][]domain.SearchHit),
		FailSearch: make(map[string]bool),
	}
}

// Add registers a record under its identifier.
func (c *Catalog) Add(records ...*domain.MovieRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, record := range records {
		c.Records[record.ImdbID] = record
	}
}

func (c *Catalog) FetchByID(_ context.Context, key, id string) (*domain.MovieRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key == "" {
		return nil, errors.ErrMissingAPIKey
	}
	c.FetchCalls = append(c.FetchCalls, id)

	record, ok := c.Records[id]
	if !ok {
		return nil, errors.NewNotFoundError("Incorrect IMDb ID.", id)
	}
	copied := *record
	return &copied, nil
}

func (c *Catalog) SearchByTitle(ctx context.Context, key, query string) ([]domain.SearchHit, error) {
	return c.SearchPaged(ctx, key, query, 1)
}

func (c *Catalog) SearchPaged(_ context.Context, key, query string, page int) ([]domain.SearchHit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key == "" {
		return nil, errors.ErrMissingAPIKey
	}
	c.SearchCalls = append(c.SearchCalls, query)

	if c.FailSearch[query] {
		return nil, errors.NewTransportError("search failed", 500, nil)
	}

	pages := c.Pages[strings.ToLower(query)]
	if page < 1 || page > len(pages) {
		return []domain.SearchHit{}, nil
	}
	return append([]domain.SearchHit(nil), pages[page-1]...), nil
}

// FetchCount returns how many detail fetches were issued.
func (c *Catalog) FetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.FetchCalls)
}

// Hits builds search hits for ids.
func Hits(ids ...string) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, domain.SearchHit{ImdbID: id, Title: id, Type: "movie"})
	}
	return hits
}
