package explain

import (
	"encoding/json"
	"strings"
)

const (
	fence   = "```"
	jsonTag = "json"
)

// extractPayload returns the body of the first fence tagged json (any case), else
// of the first generic fence, else the whole text.
func extractPayload(raw string) string {
	if i := jsonFence(raw); i >= 0 {
		return strings.TrimSpace(untilFence(raw[i+len(fence)+len(jsonTag):]))
	}
	if body, ok := between(raw, fence); ok {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(raw)
}

// jsonFence returns the offset of the first fence whose language tag is json.
func jsonFence(raw string) int {
	for off := 0; ; {
		i := strings.Index(raw[off:], fence)
		if i < 0 {
			return -1
		}
		start := off + i
		tag := raw[start+len(fence):]
		if len(tag) >= len(jsonTag) && strings.EqualFold(tag[:len(jsonTag)], jsonTag) {
			return start
		}
		off = start + len(fence)
	}
}

func between(raw, open string) (string, bool) {
	i := strings.Index(raw, open)
	if i < 0 {
		return "", false
	}
	return untilFence(raw[i+len(open):]), true
}

// untilFence cuts s at the next fence; an unclosed block runs to the end.
func untilFence(s string) string {
	if j := strings.Index(s, fence); j >= 0 {
		return s[:j]
	}
	return s
}

// Parse turns raw service output into records. Output that is not a JSON array of
// recognisable records becomes a single fallback carrying the raw text.
func Parse(raw, symptoms string) Result {
	if records, ok := decodeRecords(extractPayload(raw), symptoms); ok {
		return Result{Records: records, Source: SourceModel}
	}

	response := raw
	if strings.TrimSpace(response) == "" {
		response = UnprocessableMessage
	}
	return Result{Records: []Explanation{Fallback(symptoms, response)}, Source: SourceUnparsed}
}

func decodeRecords(payload, symptoms string) ([]Explanation, bool) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(payload), &items); err != nil || len(items) == 0 {
		return nil, false
	}

	records := make([]Explanation, 0, len(items))
	for _, item := range items {
		rec, ok := toExplanation(item, symptoms)
		if !ok {
			return nil, false
		}
		records = append(records, rec)
	}
	return records, true
}

func toExplanation(item map[string]any, symptoms string) (Explanation, bool) {
	if name, ok := text(item["Disease Name"]); ok && strings.TrimSpace(name) != "" {
		rec := Explanation{Kind: KindStructured, Disease: name}
		var okDesc, okTreat, okPrev bool
		rec.Description, okDesc = text(item["Description"])
		rec.Treatment, okTreat = text(item["Treatment"])
		rec.Prevention, okPrev = text(item["Prevention"])
		return rec, okDesc && okTreat && okPrev
	}

	if _, present := item["response"]; present {
		response, ok := text(item["response"])
		if !ok {
			return Explanation{}, false
		}
		echoed, ok := text(item["symptoms"])
		if !ok {
			return Explanation{}, false
		}
		if echoed == "" {
			echoed = symptoms
		}
		return Fallback(echoed, response), true
	}
	return Explanation{}, false
}

// text accepts a missing value, a string, or a list of strings (joined with "; ").
func text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			s, ok := p.(string)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "; "), true
	default:
		return "", false
	}
}
