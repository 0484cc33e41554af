// Package ingestion implements the Source Fetcher (C3): pulling articles
// from a tenant's feed or HTML news sources, normalising them, and
// deduping by URL within the tenant. Grounded on
// HTTPRequestExecutor client construction (internal/application/executor/node_executors.go).
package ingestion

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/smilemakc/contentforge/internal/domain"
)

const (
	feedMaxEntries   = 20
	scrapeMaxEntries = 10
	feedMinTextLen   = 100
	scrapeMinTextLen = 50
	perSourceTimeout = 30 * time.Second
)

// Record is a normalised article ready for de-dup and insertion.
type Record struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	Text        string
}

// Fetcher polls one NewsSource at a time, dispatching to feed or scrape
// mode per spec §4.3.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

func NewFetcher(userAgent string, timeout time.Duration, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchSource returns the normalised records for one source, already
// deduped against articles already on file for accountID. A per-source
// failure (network error, timeout, parse error) is returned as an error
// but must never abort sibling sources in the caller's aggregation loop.
func (f *Fetcher) FetchSource(ctx context.Context, source *domain.NewsSource, exists func(ctx context.Context, url string) (bool, error)) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, perSourceTimeout)
	defer cancel()

	var raw []Record
	var err error
	if source.FeedMode() {
		raw, err = f.fetchFeed(ctx, source.FeedURL)
	} else {
		raw, err = f.fetchScrape(ctx, source.HomepageURL)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if _, dup := seen[r.URL]; dup {
			continue
		}
		ok, dupErr := exists(ctx, r.URL)
		if dupErr != nil {
			return nil, dupErr
		}
		if ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

func normalize(r Record) Record {
	r.Text = domain.NormalizeFetchedText(r.Text, domain.FetchedTextMaxLen)
	return r
}
