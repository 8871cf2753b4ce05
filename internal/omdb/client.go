// Package omdb talks to the OMDb catalog API.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/cinematch-kakao-bot-go/internal/constants"
	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/util"
	"github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MetadataClient is the set of catalog lookups the pipeline needs.
type MetadataClient interface {
	FetchByID(ctx context.Context, key, id string) (*domain.MovieRecord, error)
	SearchByTitle(ctx context.Context, key, query string) ([]domain.SearchHit, error)
	SearchPaged(ctx context.Context, key, query string, page int) ([]domain.SearchHit, error)
}

type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client issues single round-trip requests. There are no retries; a rate
// limiter paces calls and a circuit breaker fails fast while OMDb is down.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.APIConfig.OMDbBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.APIConfig.OMDbTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		breaker: util.NewCircuitBreaker(
			"omdb",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			0,
			nil,
			logger,
		),
		logger: logger,
	}
}

type detailResponse struct {
	domain.MovieRecord
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type searchResponse struct {
	Search       []domain.SearchHit `json:"Search"`
	TotalResults string             `json:"totalResults"`
	Response     string             `json:"Response"`
	Error        string             `json:"Error"`
}

// FetchByID loads the detail record of id. A negative catalog response becomes
// a NotFoundError carrying the catalog's message.
func (c *Client) FetchByID(ctx context.Context, key, id string) (*domain.MovieRecord, error) {
	params := url.Values{}
	params.Set("i", id)
	params.Set("plot", "short")

	var resp detailResponse
	if err := c.get(ctx, key, params, &resp); err != nil {
		return nil, err
	}

	if !isTrue(resp.Response) {
		message := resp.Error
		if message == "" {
			message = "Not found"
		}
		return nil, errors.NewNotFoundError(message, id)
	}

	record := resp.MovieRecord
	if record.ImdbID == "" {
		record.ImdbID = id
	}
	return &record, nil
}

// SearchByTitle returns the first page of movies matching query. No matches is
// an empty result, not an error.
func (c *Client) SearchByTitle(ctx context.Context, key, query string) ([]domain.SearchHit, error) {
	return c.search(ctx, key, query, 0)
}

// SearchPaged returns one page of at most constants.APIConfig.OMDbPageSize hits.
// Pages past the last one are empty.
func (c *Client) SearchPaged(ctx context.Context, key, query string, page int) ([]domain.SearchHit, error) {
	if page < 1 {
		page = 1
	}
	return c.search(ctx, key, query, page)
}

func (c *Client) search(ctx context.Context, key, query string, page int) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}, nil
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("type", "movie")
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	var resp searchResponse
	if err := c.get(ctx, key, params, &resp); err != nil {
		return nil, err
	}

	if !isTrue(resp.Response) || len(resp.Search) == 0 {
		return []domain.SearchHit{}, nil
	}
	return resp.Search, nil
}

func (c *Client) get(ctx context.Context, key string, params url.Values, dest any) error {
	if strings.TrimSpace(key) == "" {
		return errors.ErrMissingAPIKey
	}

	if !c.breaker.CanExecute() {
		return errors.NewTransportError("omdb circuit open", http.StatusServiceUnavailable, nil)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.NewTransportError("rate limiter wait failed", 0, err)
	}

	params.Set("apikey", key)
	params.Set("r", "json")
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errors.NewTransportError("failed to build request", 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure(0)
		c.logger.Warn("OMDb request failed", zap.Error(err))
		return errors.NewTransportError("omdb request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure(0)
		return errors.NewTransportError("failed to read omdb response", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.breaker.RecordFailure(constants.CircuitBreakerConfig.RateLimitTimeout)
		return errors.NewTransportError("omdb rate limited", resp.StatusCode, nil)
	case resp.StatusCode >= 500:
		c.breaker.RecordFailure(0)
		return errors.NewTransportError(fmt.Sprintf("omdb server error: %d", resp.StatusCode), resp.StatusCode, nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errors.NewTransportError(fmt.Sprintf("omdb request rejected: %d", resp.StatusCode), resp.StatusCode, nil)
	}

	c.breaker.RecordSuccess()

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.NewTransportError("failed to decode omdb response", resp.StatusCode, err)
	}
	return nil
}

func isTrue(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
