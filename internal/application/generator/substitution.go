package generator

import (
	"regexp"
)

// placeholderPattern matches {placeholder} tokens, single-brace per
// spec §4.6 ("{article_content}", "{analysis_output}",
// "{social_media_output}", etc.), grounded on
// TemplateProcessor.simpleVarPattern but single- rather than double-braced.
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// substitute replaces every {key} placeholder found in vars, leaving
// unmatched placeholders as their literal token (spec §4.6: "Missing
// placeholders are tolerated and left as the literal token").
func substitute(text string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		key := token[1 : len(token)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		return token
	})
}
