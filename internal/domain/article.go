package domain

import (
	"strings"
	"time"

	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

const (
	// ArticleTitleMaxLen is the persisted title cap (spec §3).
	ArticleTitleMaxLen = 255
	// ArticleTextMaxLen is the persisted full-text cap (spec §3, §4.3).
	ArticleTextMaxLen = 10000
	// FetchedTextMaxLen caps a single fetched record pre-persistence
	// (spec §4.3), tighter than the persisted cap because a normalised
	// record may still be summarised/truncated again on the way in.
	FetchedTextMaxLen = 5000
)

// ArticleStatus is the bit-exact status vocabulary of spec §6.
type ArticleStatus string

const (
	ArticleStatusScraped  ArticleStatus = "scraped"
	ArticleStatusAnalyzed ArticleStatus = "analyzed"
	ArticleStatusProcessed ArticleStatus = "processed"
	ArticleStatusFailed   ArticleStatus = "failed"
)

// ScrapedArticle is a tenant-owned article ingested by the Source Fetcher
// (C3) and scored by the Analyser (C4) (spec §3).
type ScrapedArticle struct {
	ArticleID      int64
	AccountID      string
	SourceID       *int64
	Title          string
	URL            string
	PublishedAt    *time.Time
	FullText       string
	Status         ArticleStatus
	Summary        string
	Keywords       []string
	RelevanceScore *float64
	ScrapedAt      time.Time
}

// ClampRelevanceScore clamps a provider-returned score into [0,1] per
// spec §8's boundary law, returning whether clamping was necessary so the
// caller can log a warning without silently losing the out-of-range fact.
func ClampRelevanceScore(score float64) (clamped float64, wasClamped bool) {
	switch {
	case score < 0:
		return 0, true
	case score > 1:
		return 1, true
	default:
		return score, false
	}
}

// NormalizeFetchedText collapses whitespace, strips control characters,
// and caps length, matching the Source Fetcher's per-record normalisation
// (spec §4.3).
func NormalizeFetchedText(raw string, maxLen int) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range raw {
		if r == '\n' || r == '\t' || r == '\r' {
			r = ' '
		}
		if r < 0x20 && r != ' ' {
			continue // strip control characters
		}
		if r == ' ' {
			if lastWasSpace {
				continue
			}
			lastWasSpace = true
		} else {
			lastWasSpace = false
		}
		b.WriteRune(r)
	}
	text := strings.TrimSpace(b.String())
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return text
}

// NewScrapedArticle validates and builds an article ready for insertion.
// FullText is capped at ArticleTextMaxLen and Title at ArticleTitleMaxLen
// per spec §3, regardless of how long the fetcher's own normalisation left
// them.
func NewScrapedArticle(accountID string, sourceID *int64, title, url, fullText string, publishedAt *time.Time, now time.Time) (*ScrapedArticle, error) {
	if accountID == "" {
		return nil, cferrors.NewValidationError("accountId", "required")
	}
	if url == "" {
		return nil, cferrors.NewValidationError("url", "required")
	}
	if len(title) > ArticleTitleMaxLen {
		title = title[:ArticleTitleMaxLen]
	}
	if len(fullText) > ArticleTextMaxLen {
		fullText = fullText[:ArticleTextMaxLen]
	}
	return &ScrapedArticle{
		AccountID:   accountID,
		SourceID:    sourceID,
		Title:       title,
		URL:         url,
		PublishedAt: publishedAt,
		FullText:    fullText,
		Status:      ArticleStatusScraped,
		ScrapedAt:   now,
	}, nil
}
