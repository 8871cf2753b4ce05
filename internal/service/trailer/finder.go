// Package trailer looks up movie trailers on YouTube.
package trailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	dailyQuotaLimit   = 10000
	searchQuotaCost   = 100 // search.list cost
	quotaSafetyMargin = 2000
	maxResults        = 3
)

// Trailer is one YouTube search result.
type Trailer struct {
	VideoID string
	Title   string
	Channel string
}

func (t Trailer) URL() string {
	return "https://www.youtube.com/watch?v=" + t.VideoID
}

type QuotaExceededError struct {
	Used      int
	Limit     int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d, resets at %s",
		e.Used, e.Limit, e.ResetTime.Format(time.RFC3339))
}

// Finder searches YouTube within a self-imposed daily quota.
type Finder struct {
	service *youtube.Service
	logger  *zap.Logger

	quotaMu    sync.Mutex
	quotaUsed  int
	quotaReset time.Time
	now        func() time.Time
}

func NewFinder(ctx context.Context, apiKey string, logger *zap.Logger, opts ...option.ClientOption) (*Finder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	f := &Finder{service: service, logger: logger, now: time.Now}
	f.quotaReset = nextQuotaReset(f.now())
	return f, nil
}

// Find returns up to three trailer candidates for a title, best match first.
func (f *Finder) Find(ctx context.Context, title, year string) ([]Trailer, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if err := f.reserveQuota(); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(fmt.Sprintf("%s %s official trailer", title, year))
	response, err := f.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == 403 {
			return nil, f.exhausted()
		}
		return nil, fmt.Errorf("YouTube API error: %w", err)
	}

	trailers := make([]Trailer, 0, len(response.Items))
	for _, item := range response.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		trailer := Trailer{VideoID: item.Id.VideoId}
		if item.Snippet != nil {
			trailer.Title = item.Snippet.Title
			trailer.Channel = item.Snippet.ChannelTitle
		}
		trailers = append(trailers, trailer)
	}

	f.logger.Debug("Trailer search finished",
		zap.String("query", query),
		zap.Int("results", len(trailers)),
	)
	return trailers, nil
}

func (f *Finder) reserveQuota() error {
	f.quotaMu.Lock()
	defer f.quotaMu.Unlock()

	if now := f.now(); now.After(f.quotaReset) {
		f.quotaUsed = 0
		f.quotaReset = nextQuotaReset(now)
	}

	if f.quotaUsed+searchQuotaCost > dailyQuotaLimit-quotaSafetyMargin {
		return &QuotaExceededError{Used: f.quotaUsed, Limit: dailyQuotaLimit, ResetTime: f.quotaReset}
	}
	f.quotaUsed += searchQuotaCost
	return nil
}

func (f *Finder) exhausted() error {
	f.quotaMu.Lock()
	defer f.quotaMu.Unlock()
	f.quotaUsed = dailyQuotaLimit
	return &QuotaExceededError{Used: f.quotaUsed, Limit: dailyQuotaLimit, ResetTime: f.quotaReset}
}

// nextQuotaReset returns the next midnight in Pacific time, when YouTube resets quotas.
func nextQuotaReset(now time.Time) time.Time {
	pt, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		pt = time.FixedZone("PST", -8*60*60)
	}
	local := now.In(pt)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, pt)
}
