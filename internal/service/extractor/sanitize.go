package extractor

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"postcart/internal/domain"
)

// Defaults filled in for any key missing from the model's answer
const (
	defaultName        = "Unknown Product"
	defaultPrice       = "0"
	defaultDescription = "No description available"
)

// maxDescriptionLen is the hard cap on descriptions. The prompt asks the
// model to stay under it, but a verbose answer must not flow through uncapped.
const maxDescriptionLen = 150

// Sanitize turns free-text model output into strict product fields. The
// model usually answers with clean JSON, but it is a free-text responder,
// not an API: fences, prose and missing keys all have to be tolerated.
// Unrecoverable text fails with an AIServiceUnavailable(json_parse_failure)
// extraction error.
func Sanitize(raw string) (domain.ProductFields, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	candidate := cleaned
	if !strings.HasPrefix(candidate, "{") {
		// The model wrapped the object in prose; take the outermost brace span
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start == -1 || end == -1 || end < start {
			return domain.ProductFields{}, domain.NewAIError(
				domain.AIReasonJSONParseFailure,
				"no JSON object found in model response: "+truncate(cleaned, 200),
				nil,
			)
		}
		candidate = cleaned[start : end+1]
	}

	var parsed map[string]interface{}
	decoder := json.NewDecoder(strings.NewReader(candidate))
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		return domain.ProductFields{}, domain.NewAIError(
			domain.AIReasonJSONParseFailure,
			"model response is not valid JSON: "+truncate(candidate, 200),
			err,
		)
	}

	fields := domain.ProductFields{
		Name:        stringField(parsed, "name", defaultName),
		Price:       stringField(parsed, "price", defaultPrice),
		Description: stringField(parsed, "description", defaultDescription),
	}

	fields.Price = digitsOnly(fields.Price)
	fields.Description = truncateRunes(fields.Description, maxDescriptionLen)
	return fields, nil
}

// stringField pulls a key from the parsed object, coercing numbers the model
// occasionally emits instead of strings
func stringField(m map[string]interface{}, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}

	switch typed := v.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return fallback
		}
		return typed
	case json.Number:
		return typed.String()
	default:
		return fallback
	}
}

// digitsOnly strips everything that is not a digit from a price string,
// keeping the "0 if unknown" convention
func digitsOnly(price string) string {
	// Fractional parts are dropped, not concatenated: "45000.99" -> "45000"
	if dot := strings.IndexByte(price, '.'); dot != -1 {
		price = price[:dot]
	}

	var b strings.Builder
	for _, r := range price {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return defaultPrice
	}
	return b.String()
}

// truncate caps s at max bytes without splitting a multi-byte rune
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// truncateRunes caps s at max runes
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
