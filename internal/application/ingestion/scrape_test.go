package ingestion

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsolutize(t *testing.T) {
	base, err := url.Parse("https://news.example.com/section/")
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com/section/story-1", absolutize(base, "story-1"))
	assert.Equal(t, "https://other.example.com/x", absolutize(base, "https://other.example.com/x"))
	assert.Equal(t, "", absolutize(base, ""))
}

func TestFirstMatchText_FallsBackToElementText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<article><span>Hello world, this is some body text.</span></article>`))
	require.NoError(t, err)

	el := doc.Find("article").First()
	text := firstMatchText(el, contentSelectors)
	assert.Contains(t, text, "Hello world")
}

func TestFetchScrape_SelectorPriorityPrefersArticleTag(t *testing.T) {
	html := `
		<html><body>
			<div class="post">wrong one, too short</div>
			<article><h1>Real Title</h1><a href="/story/42">link</a><p>` +
		`This paragraph is long enough to pass the scrape threshold easily.</p></article>
		</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	var selection *goquery.Selection
	for _, sel := range selectorPriority {
		s := doc.Find(sel)
		if s.Length() > 0 {
			selection = s
			break
		}
	}
	require.NotNil(t, selection)
	assert.Equal(t, 1, selection.Length())
}
