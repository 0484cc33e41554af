package ingestion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/domain"
)

// Result summarises one account's aggregation run across every active
// source.
type Result struct {
	SourcesChecked int
	SourcesFailed  int
	ArticlesStored int
}

// Aggregator runs the Fetcher across every active NewsSource of a tenant
// and persists the normalised, deduped records, isolating per-source
// failures per spec §4.3 ("A per-source failure is isolated and does not
// abort sibling sources").
type Aggregator struct {
	fetcher *Fetcher
	store   domain.Storage
	logger  zerolog.Logger
}

func NewAggregator(fetcher *Fetcher, store domain.Storage, logger zerolog.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, store: store, logger: logger}
}

// Run aggregates every active source for accountID. A progress callback is
// invoked after each source so the caller can report incremental job
// progress (spec §4.9).
func (a *Aggregator) Run(ctx context.Context, accountID string, onSourceDone func(done, total int)) (Result, error) {
	sources, err := a.store.ListActiveNewsSources(ctx, accountID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, source := range sources {
		res.SourcesChecked++
		stored, err := a.runOne(ctx, accountID, source)
		if err != nil {
			res.SourcesFailed++
			a.logger.Warn().Err(err).Int64("source_id", source.SourceID).Str("account_id", accountID).Msg("source fetch failed, continuing with remaining sources")
		}
		res.ArticlesStored += stored
		if onSourceDone != nil {
			onSourceDone(i+1, len(sources))
		}
	}
	return res, nil
}

func (a *Aggregator) runOne(ctx context.Context, accountID string, source *domain.NewsSource) (int, error) {
	exists := func(ctx context.Context, url string) (bool, error) {
		return a.store.ArticleExistsByURL(ctx, accountID, url)
	}

	records, err := a.fetcher.FetchSource(ctx, source, exists)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	stored := 0
	for _, rec := range records {
		article, err := domain.NewScrapedArticle(accountID, &source.SourceID, rec.Title, rec.URL, rec.Text, rec.PublishedAt, now)
		if err != nil {
			a.logger.Warn().Err(err).Str("url", rec.URL).Msg("skipping invalid record")
			continue
		}
		_, inserted, err := a.store.InsertArticle(ctx, article)
		if err != nil {
			return stored, err
		}
		if inserted {
			stored++
		}
	}

	return stored, a.store.TouchNewsSourceChecked(ctx, accountID, source.SourceID, now)
}
