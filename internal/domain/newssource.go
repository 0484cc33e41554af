package domain

import (
	"time"

	"github.com/smilemakc/contentforge/internal/domain/cferrors"
)

// NewsSource is a tenant-owned feed or page the Source Fetcher (C3) polls
// (spec §3). Created externally via an admin action; soft-disabled by
// flipping Active rather than deleting it.
type NewsSource struct {
	SourceID      int64
	AccountID     string
	Name          string
	HomepageURL   string
	FeedURL       string // empty means scrape mode
	Active        bool
	LastCheckedAt *time.Time
}

// FeedMode reports whether this source should be polled as a syndication
// feed (spec §4.3) rather than scraped via DOM selectors.
func (s *NewsSource) FeedMode() bool {
	return s.FeedURL != ""
}

// Validate enforces the required fields at the boundary before a source
// is persisted. Uniqueness of (account_id, name) and (account_id,
// homepage_url) is a storage-layer constraint (spec §3), not checked here.
func (s *NewsSource) Validate() error {
	if s.AccountID == "" {
		return cferrors.NewValidationError("accountId", "required")
	}
	if s.Name == "" {
		return cferrors.NewValidationError("name", "required")
	}
	if s.HomepageURL == "" {
		return cferrors.NewValidationError("homepageUrl", "required")
	}
	return nil
}
