package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// fetchFeed parses a syndication feed and returns up to feedMaxEntries
// normalised records, in feed order (spec §4.3: "up to 20 most recent
// entries"). Entries whose extracted text is under feedMinTextLen
// characters after trimming are skipped.
func (f *Fetcher) fetchFeed(ctx context.Context, feedURL string) ([]Record, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = f.userAgent
	parser.Client = f.client

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := feed.Items
	if len(items) > feedMaxEntries {
		items = items[:feedMaxEntries]
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		text := feedEntryText(item)
		if len(strings.TrimSpace(text)) < feedMinTextLen {
			continue
		}

		rec := Record{
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
			Text:        text,
		}
		records = append(records, normalize(rec))
	}
	return records, nil
}

// feedEntryText extracts snippet/content/summary in that preference order,
// per spec §4.3's literal ordering.
func feedEntryText(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	if item.Content != "" {
		return item.Content
	}
	if item.ITunesExt != nil && item.ITunesExt.Summary != "" {
		return item.ITunesExt.Summary
	}
	return ""
}
