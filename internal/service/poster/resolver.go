// Package poster finds a poster image for a movie.
package poster

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
	"go.uber.org/zap"
)

const scrapeTimeout = 15 * time.Second

// Resolver returns the catalog poster when there is one. Otherwise it reads
// the og:image of the IMDb title page and remembers the result.
type Resolver struct {
	httpClient *http.Client
	library    *store.Library
	titleURL   string
	logger     *zap.Logger
}

func NewResolver(library *store.Library, titleURL string, logger *zap.Logger) *Resolver {
	if titleURL == "" {
		titleURL = constants.APIConfig.IMDbTitleURL
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: scrapeTimeout},
		library:    library,
		titleURL:   titleURL,
		logger:     logger,
	}
}

// Resolve returns "" when no poster can be found. Scrape failures are logged, not returned.
func (r *Resolver) Resolve(ctx context.Context, record *domain.MovieRecord) string {
	if record == nil {
		return ""
	}
	if url := record.PosterURL(); url != "" {
		return url
	}
	if record.ImdbID == "" {
		return ""
	}

	if cached, found, err := r.library.Poster(ctx, record.ImdbID); err == nil && found {
		return cached
	}

	url, err := r.scrape(ctx, record.ImdbID)
	if err != nil {
		r.logger.Debug("Poster scrape failed", zap.String("id", record.ImdbID), zap.Error(err))
		return ""
	}

	if err := r.library.SavePoster(ctx, record.ImdbID, url); err != nil {
		r.logger.Warn("Failed to cache poster", zap.String("id", record.ImdbID), zap.Error(err))
	}
	return url
}

func (r *Resolver) scrape(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.titleURL+id+"/", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; CineMatchBot/1.0)")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, selector := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); strings.HasPrefix(content, "http") {
				return content, nil
			}
		}
	}
	return "", fmt.Errorf("no poster meta tag")
}
