package recommend

import (
	"sync"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
)

// Page is one slice of a room's result list.
type Page struct {
	Entries []domain.ScoredEntry
	// Start is the zero-based position of Entries[0] in the full list.
	Start     int
	Total     int
	Remaining int
	PoolSize  int
	// Skipped counts identifiers that could not be loaded during the run.
	Skipped int
}

type session struct {
	entries   []domain.ScoredEntry
	poolSize  int
	skipped   int
	visible   int
	updatedAt time.Time
}

// Pager hands out a room's last result list in fixed-size pages. Sessions
// expire after ttl without activity.
type Pager struct {
	mu       sync.Mutex
	pageSize int
	ttl      time.Duration
	sessions map[string]*session
	now      func() time.Time
}

func NewPager(pageSize int, ttl time.Duration) *Pager {
	if pageSize <= 0 {
		pageSize = 1
	}
	return &Pager{
		pageSize: pageSize,
		ttl:      ttl,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Start replaces the room's list with rec and returns its first page.
func (p *Pager) Start(room string, rec *domain.Recommendation) Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evictExpired()
	s := &session{}
	if rec != nil {
		s.entries = rec.Entries
		s.poolSize = rec.PoolSize
		s.skipped = rec.Report.Count(domain.FetchStatusSkipped)
	}
	p.sessions[room] = s
	return p.advance(s)
}

// Next returns the following page. ok is false when the room has no list or
// every entry was already shown.
func (p *Pager) Next(room string) (Page, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evictExpired()
	s, exists := p.sessions[room]
	if !exists || s.visible >= len(s.entries) {
		return Page{}, false
	}
	return p.advance(s), true
}

func (p *Pager) advance(s *session) Page {
	start := s.visible
	end := min(len(s.entries), start+p.pageSize)
	s.visible = end
	s.updatedAt = p.now()

	return Page{
		Entries:   s.entries[start:end],
		Start:     start,
		Total:     len(s.entries),
		Remaining: len(s.entries) - end,
		PoolSize:  s.poolSize,
		Skipped:   s.skipped,
	}
}

func (p *Pager) evictExpired() {
	if p.ttl <= 0 {
		return
	}
	cutoff := p.now().Add(-p.ttl)
	for room, s := range p.sessions {
		if s.updatedAt.Before(cutoff) {
			delete(p.sessions, room)
		}
	}
}
