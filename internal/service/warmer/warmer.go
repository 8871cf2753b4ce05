// Package warmer makes sure identifiers have cached detail records.
package warmer

import (
	"context"
	"fmt"

	"github.com/kapu/cinematch-kakao-bot-go/internal/domain"
	"github.com/kapu/cinematch-kakao-bot-go/internal/omdb"
	"github.com/kapu/cinematch-kakao-bot-go/internal/store"
	"go.uber.org/zap"
)

// Warmer fetches missing records one at a time and persists after every success.
type Warmer struct {
	client  omdb.MetadataClient
	library *store.Library
	logger  *zap.Logger
}

func New(client omdb.MetadataClient, library *store.Library, logger *zap.Logger) *Warmer {
	return &Warmer{client: client, library: library, logger: logger}
}

// Warm returns the details cache after trying to fill in every id it lacks.
// Fetch failures are recorded in the report and skipped. Only store failures
// are returned as errors.
func (w *Warmer) Warm(ctx context.Context, key string, ids []string, status domain.StatusFunc) (domain.DetailsCache, *domain.RunReport, error) {
	cache, err := w.library.Details(ctx)
	if err != nil {
		return nil, nil, err
	}

	report := &domain.RunReport{}
	for i, id := range ids {
		if cache.Has(id) {
			report.Record(domain.FetchOutcome{ID: id, Status: domain.FetchStatusCached})
			continue
		}

		if err := ctx.Err(); err != nil {
			return cache, report, err
		}

		status.Report(fmt.Sprintf("영화 정보 불러오는 중… (%d/%d)", i+1, len(ids)))

		record, err := w.client.FetchByID(ctx, key, id)
		if err != nil {
			w.logger.Debug("Skipping movie detail",
				zap.String("id", id),
				zap.Error(err),
			)
			report.Record(domain.FetchOutcome{ID: id, Status: domain.FetchStatusSkipped, Reason: err.Error()})
			continue
		}

		cache[id] = record
		if err := w.library.SaveDetails(ctx, cache); err != nil {
			return cache, report, err
		}
		report.Record(domain.FetchOutcome{ID: id, Status: domain.FetchStatusFetched})
	}

	if fetched := report.Count(domain.FetchStatusFetched); fetched > 0 {
		w.logger.Info("Cache warmed",
			zap.Int("requested", len(ids)),
			zap.Int("fetched", fetched),
			zap.Int("skipped", report.Count(domain.FetchStatusSkipped)),
			zap.Int("cached_total", len(cache)),
		)
	}

	return cache, report, nil
}
