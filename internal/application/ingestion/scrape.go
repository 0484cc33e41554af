package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectorPriority is the prioritised list of DOM selectors tried in order;
// the first selector yielding at least one element wins (spec §4.3).
var selectorPriority = []string{
	"article",
	".post",
	".news-item",
	".article",
	".entry",
	"[class*='post']",
	"[class*='article']",
	"[class*='news']",
}

var headingSelectors = []string{"h1", "h2", "h3", ".title", ".headline", "[class*='title']"}
var linkSelectors = []string{"a"}
var contentSelectors = []string{"p", ".content", ".summary", "[class*='content']"}

// fetchScrape fetches homepageURL and extracts up to scrapeMaxEntries
// elements using the first DOM selector that matches anything, per
// spec §4.3.
func (f *Fetcher) fetchScrape(ctx context.Context, homepageURL string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, homepageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", homepageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", homepageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", homepageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", homepageURL, err)
	}

	base, err := url.Parse(homepageURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %s: %w", homepageURL, err)
	}

	var selection *goquery.Selection
	for _, sel := range selectorPriority {
		s := doc.Find(sel)
		if s.Length() > 0 {
			selection = s
			break
		}
	}
	if selection == nil {
		return nil, nil
	}
	if selection.Length() > scrapeMaxEntries {
		selection = selection.Slice(0, scrapeMaxEntries)
	}

	records := make([]Record, 0, selection.Length())
	selection.Each(func(_ int, el *goquery.Selection) {
		title := firstMatchText(el, headingSelectors)
		link := absolutize(base, firstMatchHref(el, linkSelectors))
		text := firstMatchText(el, contentSelectors)

		if len(strings.TrimSpace(text)) < scrapeMinTextLen {
			return
		}
		if link == "" {
			return
		}

		records = append(records, normalize(Record{
			Title: title,
			URL:   link,
			Text:  text,
		}))
	})
	return records, nil
}

// FetchURL fetches a single user-submitted URL and extracts its article
// text with the same selector logic as fetchScrape, but falls back to the
// whole document body when no selector matches (spec §4.9's "more
// permissive selectors" for url_analysis, which has no surrounding list
// of sibling elements to be selective among).
func (f *Fetcher) FetchURL(ctx context.Context, targetURL string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, perSourceTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return Record{}, fmt.Errorf("build request for %s: %w", targetURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Record{}, fmt.Errorf("fetch %s: status %d", targetURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Record{}, fmt.Errorf("parse html from %s: %w", targetURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		title = h1
	}

	var selection *goquery.Selection
	for _, sel := range selectorPriority {
		s := doc.Find(sel)
		if s.Length() > 0 {
			selection = s
			break
		}
	}

	var text string
	if selection != nil {
		text = firstMatchText(selection.First(), contentSelectors)
	}
	if strings.TrimSpace(text) == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}

	return normalize(Record{Title: title, URL: targetURL, Text: text}), nil
}

func firstMatchText(el *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if found := el.Find(sel).First(); found.Length() > 0 {
			if text := strings.TrimSpace(found.Text()); text != "" {
				return text
			}
		}
	}
	return strings.TrimSpace(el.Text())
}

func firstMatchHref(el *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		found := el.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		if href, ok := found.Attr("href"); ok && href != "" {
			return href
		}
	}
	if href, ok := el.Attr("href"); ok {
		return href
	}
	return ""
}

// absolutize resolves href against base, matching spec §4.3's requirement
// that extracted links be absolute before persistence.
func absolutize(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
