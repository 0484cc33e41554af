package storage

import (
	"encoding/json"

	"github.com/smilemakc/contentforge/internal/domain"
)

// payloadToMap/payloadFromMap round-trip a domain.JobPayload through a
// native map so every jsonb column is read back as a structure, never a
// string (spec §4.1, §9 Design Notes on JSON-column drift). An empty
// payload round-trips to an empty map, never null.
func payloadToMap(p domain.JobPayload) map[string]any {
	raw, err := json.Marshal(p)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func payloadFromMap(m map[string]any) domain.JobPayload {
	var p domain.JobPayload
	if len(m) == 0 {
		return p
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(raw, &p)
	return p
}

func resultsOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
