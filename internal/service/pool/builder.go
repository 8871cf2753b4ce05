// Package pool assembles the candidate identifiers of a recommendation run.
//
// The catalog cannot browse by genre, so membership is discovered by keyword
// search and then verified against the fetched record's genre list. Verified
// identifiers are remembered per genre in the discovered index so later runs
// reuse them without fetching again.
package pool

import (
	"context"
	"fmt"
	"iter"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/omdb"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
	"go.uber.org/zap"
)

type Config struct {
	PoolCap       int
	MaxNewDetails int
	PagesPerTerm  int
	StarterIDs    []string
	Keywords      map[string][]string
}

// DefaultConfig returns the built-in limits and seed tables.
func DefaultConfig() Config {
	return Config{
		PoolCap:       constants.DiscoveryConfig.PoolCap,
		MaxNewDetails: constants.DiscoveryConfig.MaxNewDetails,
		PagesPerTerm:  constants.DiscoveryConfig.PagesPerTerm,
		StarterIDs:    constants.StarterIDs,
		Keywords:      constants.GenreKeywords,
	}
}

// Result is the pool of one run.
type Result struct {
	IDs []string
	// BudgetUsed counts detail fetches issued during discovery.
	BudgetUsed int
	Report     *domain.RunReport
}

type Builder struct {
	client  omdb.MetadataClient
	library *store.Library
	cfg     Config
	logger  *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a Builder. rng shuffles the search plan; pass a seeded source
// for reproducible discovery order.
func New(client omdb.MetadataClient, library *store.Library, cfg Config, rng *rand.Rand, logger *zap.Logger) *Builder {
	if cfg.PoolCap <= 0 {
		cfg.PoolCap = constants.DiscoveryConfig.PoolCap
	}
	if cfg.PagesPerTerm <= 0 {
		cfg.PagesPerTerm = constants.DiscoveryConfig.PagesPerTerm
	}
	if cfg.MaxNewDetails < 0 {
		cfg.MaxNewDetails = 0
	}
	if cfg.StarterIDs == nil {
		cfg.StarterIDs = constants.StarterIDs
	}
	if cfg.Keywords == nil {
		cfg.Keywords = constants.GenreKeywords
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return &Builder{
		client:  client,
		library: library,
		cfg:     cfg,
		rng:     rng,
		logger:  logger,
	}
}

// Build returns at most PoolCap unique identifiers for genres. Without genres
// the pool is the starter list followed by the room's own list, also truncated
// to PoolCap, so entries of a long room list past the cap are left out.
func (b *Builder) Build(ctx context.Context, key, room string, genres []string, status domain.StatusFunc) (*Result, error) {
	selected := normalizeGenres(genres)
	report := &domain.RunReport{}

	if len(selected) == 0 {
		userIDs, err := b.library.UserIDs(ctx, room)
		if err != nil {
			return nil, err
		}
		p := newPool(b.cfg.PoolCap)
		p.addAll(b.cfg.StarterIDs)
		p.addAll(userIDs)
		return &Result{IDs: p.ids, Report: report}, nil
	}

	discovered, err := b.library.Discovered(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := b.library.Details(ctx)
	if err != nil {
		return nil, err
	}

	p := newPool(b.cfg.PoolCap)
	for _, genre := range selected {
		p.addAll(discovered[genre])
	}

	for _, id := range b.cfg.StarterIDs {
		if p.full() {
			break
		}
		if record, ok := cache[id]; ok && record != nil && len(matching(record, selected)) > 0 {
			p.add(id)
		}
	}

	run := &discovery{
		builder:    b,
		key:        key,
		selected:   selected,
		pool:       p,
		cache:      cache,
		discovered: discovered,
		budget:     b.cfg.MaxNewDetails,
		seen:       make(map[string]struct{}),
		report:     report,
		status:     status,
	}
	if !p.full() {
		if err := run.discover(ctx); err != nil {
			return nil, err
		}
	}

	if run.indexChanged {
		if err := b.library.SaveDiscovered(ctx, discovered); err != nil {
			return nil, err
		}
	}

	b.logger.Info("Pool built",
		zap.Strings("genres", selected),
		zap.Int("size", len(p.ids)),
		zap.Int("budget_used", run.used),
		zap.Int("search_failures", report.SearchFailures),
	)

	return &Result{IDs: p.ids, BudgetUsed: run.used, Report: report}, nil
}

// searchStep is one keyword/page pair of the discovery plan.
type searchStep struct {
	Term string
	Page int
}

// plan returns every keyword of every genre crossed with pages 1..PagesPerTerm,
// in shuffled order.
func (b *Builder) plan(genres []string) []searchStep {
	var steps []searchStep
	for _, genre := range genres {
		terms := b.cfg.Keywords[genre]
		if len(terms) == 0 {
			terms = []string{strings.ToLower(genre)}
		}
		for _, term := range terms {
			for page := 1; page <= b.cfg.PagesPerTerm; page++ {
				steps = append(steps, searchStep{Term: term, Page: page})
			}
		}
	}

	b.rngMu.Lock()
	b.rng.Shuffle(len(steps), func(i, j int) { steps[i], steps[j] = steps[j], steps[i] })
	b.rngMu.Unlock()

	return steps
}

type discovery struct {
	builder    *Builder
	key        string
	selected   []string
	pool       *pool
	cache      domain.DetailsCache
	discovered domain.DiscoveredIndex
	budget     int
	used       int
	seen       map[string]struct{}
	report     *domain.RunReport
	status     domain.StatusFunc

	indexChanged bool
}

// open reports whether discovery may continue.
func (d *discovery) open() bool {
	return !d.pool.full() && d.used < d.budget
}

// steps yields plan steps until the pool is full or the budget is spent.
func (d *discovery) steps(plan []searchStep) iter.Seq[searchStep] {
	return func(yield func(searchStep) bool) {
		for _, step := range plan {
			if !d.open() {
				return
			}
			if !yield(step) {
				return
			}
		}
	}
}

// hits yields search hits of step that are not pooled or already verified this run.
// A failed search yields nothing and costs no budget.
func (d *discovery) hits(ctx context.Context, step searchStep) iter.Seq[string] {
	return func(yield func(string) bool) {
		results, err := d.builder.client.SearchPaged(ctx, d.key, step.Term, step.Page)
		if err != nil {
			d.report.SearchFailures++
			d.builder.logger.Debug("Discovery search failed, skipping step",
				zap.String("term", step.Term),
				zap.Int("page", step.Page),
				zap.Error(err),
			)
			return
		}

		for _, hit := range results {
			if !d.open() {
				return
			}
			id := strings.TrimSpace(hit.ImdbID)
			if id == "" || d.pool.has(id) {
				continue
			}
			if _, ok := d.seen[id]; ok {
				continue
			}
			d.seen[id] = struct{}{}
			if !yield(id) {
				return
			}
		}
	}
}

func (d *discovery) discover(ctx context.Context) error {
	for step := range d.steps(d.builder.plan(d.selected)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.status.Report(fmt.Sprintf("후보 목록 확장 중… (%d/%d)", len(d.pool.ids), d.pool.limit))

		for id := range d.hits(ctx, step) {
			record, ok, err := d.verify(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			genres := matching(record, d.selected)
			if len(genres) == 0 {
				continue
			}
			d.pool.add(id)
			for _, genre := range genres {
				if d.discovered.Add(genre, id) {
					d.indexChanged = true
				}
			}
		}
	}
	return nil
}

// verify returns the record of id, fetching it when it is not cached. A fetch
// spends one unit of budget whatever its outcome; ok is false when it failed.
func (d *discovery) verify(ctx context.Context, id string) (*domain.MovieRecord, bool, error) {
	if record, ok := d.cache[id]; ok && record != nil {
		d.report.Record(domain.FetchOutcome{ID: id, Status: domain.FetchStatusCached})
		return record, true, nil
	}

	d.used++
	record, err := d.builder.client.FetchByID(ctx, d.key, id)
	if err != nil {
		d.report.Record(domain.FetchOutcome{ID: id, Status: domain.FetchStatusSkipped, Reason: err.Error()})
		return nil, false, nil
	}

	d.cache[id] = record
	if err := d.builder.library.SaveDetails(ctx, d.cache); err != nil {
		return nil, false, err
	}
	d.report.Record(domain.FetchOutcome{ID: id, Status: domain.FetchStatusFetched})
	return record, true, nil
}

// matching returns the selected genres present on record.
func matching(record *domain.MovieRecord, selected []string) []string {
	var result []string
	for _, genre := range record.Genres() {
		for _, want := range selected {
			if genre == want {
				result = append(result, genre)
				break
			}
		}
	}
	return result
}

func normalizeGenres(genres []string) []string {
	seen := make(map[string]struct{}, len(genres))
	result := make([]string, 0, len(genres))
	for _, genre := range genres {
		token := strings.ToUpper(strings.TrimSpace(genre))
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		result = append(result, token)
	}
	return result
}

// pool is an insertion-ordered identifier set bounded by limit.
type pool struct {
	ids   []string
	index map[string]struct{}
	limit int
}

func newPool(limit int) *pool {
	return &pool{index: make(map[string]struct{}), limit: limit}
}

func (p *pool) full() bool {
	return len(p.ids) >= p.limit
}

func (p *pool) has(id string) bool {
	_, ok := p.index[id]
	return ok
}

func (p *pool) add(id string) {
	if id == "" || p.full() || p.has(id) {
		return
	}
	p.index[id] = struct{}{}
	p.ids = append(p.ids, id)
}

func (p *pool) addAll(ids []string) {
	for _, id := range ids {
		p.add(id)
	}
}
