package oracle

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedJSON matches a fenced code block, with an optional "json" language
// tag, around a JSON payload — grounded on the original implementation's
// clean_json_response (original_source/app/services/llm_service.py).
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ParseFencedJSON strips an optional ```json ... ``` fence from raw and
// unmarshals the remainder into v. If no fence is present, raw is parsed
// as-is (spec.md §6).
func ParseFencedJSON(raw string, v any) error {
	payload := raw
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		payload = m[1]
	}
	return json.Unmarshal([]byte(strings.TrimSpace(payload)), v)
}
