package generator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/smilemakc/contentforge/internal/domain"
)

// ParseResult is the outcome of interpreting one AI response according to
// its template's parsing_method (spec §4.6 step 2c). RawText is always
// populated so a parse failure never loses the response.
type ParseResult struct {
	RawText string
	Data    map[string]any
	Warning string
}

var numberedLine = regexp.MustCompile(`^\s*\d+[.)]\s*`)

// Parse dispatches on method, mirroring a json_parser.go-style
// parsing-method table. A parse failure degrades to storing RawText with
// a Warning rather than failing the step (spec §4.6: "A parse failure
// records a warning but stores the raw text so the user can recover").
func Parse(method domain.ParsingMethod, raw string) ParseResult {
	switch method {
	case domain.ParsingMethodSocialMedia, domain.ParsingMethodVideoScript:
		return parseJSON(raw)
	case domain.ParsingMethodPrayerPoints:
		return parseList(raw, "points")
	case domain.ParsingMethodImagePrompts:
		return parseList(raw, "prompts")
	default:
		return ParseResult{RawText: raw, Data: map[string]any{"text": raw}}
	}
}

func parseJSON(raw string) ParseResult {
	trimmed := strings.TrimSpace(stripCodeFence(raw))
	var data map[string]any
	if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
		return ParseResult{
			RawText: raw,
			Data:    map[string]any{"raw": raw},
			Warning: "response was not valid JSON: " + err.Error(),
		}
	}
	return ParseResult{RawText: raw, Data: data}
}

func parseList(raw, key string) ParseResult {
	lines := strings.Split(raw, "\n")
	items := make([]string, 0, len(lines))
	for _, line := range lines {
		line = numberedLine.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if line != "" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		return ParseResult{RawText: raw, Data: map[string]any{"raw": raw}, Warning: "no list items extracted from response"}
	}
	return ParseResult{RawText: raw, Data: map[string]any{key: items}}
}

// stripCodeFence removes a surrounding ```json ... ``` fence, a common
// formatting habit of chat models that would otherwise break json.Unmarshal.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return raw
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return trimmed
}
