package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"
)

var (
	reISODate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDecimalOK = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	reAppNum    = regexp.MustCompile(`^\d{5}$`)
	reZip       = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

var schemaKeys = map[string]struct{}{
	"application_number": {}, "project_name": {}, "street_address": {},
	"city": {}, "county": {}, "zip_code": {}, "total_units": {},
	"developer_name": {}, "application_date": {}, "total_development_cost": {},
	"credit_amount_requested": {}, "total_score": {},
}

// NormalizeAndSanitizeJSON
// - Removes unknown keys (additionalProperties = false friendliness)
// - Inserts null for keys the model omitted (schema requires every key)
// - Coerces numeric money values to strings and "" to null
// - Drops decimal/date values that cannot satisfy the schema patterns
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string

	// unknown keys out
	for k := range maps.Clone(m) {
		if _, ok := schemaKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// money fields: numbers become strings, garbage becomes null
	for _, k := range []string{"total_development_cost", "credit_amount_requested"} {
		switch t := m[k].(type) {
		case float64:
			m[k] = fmt.Sprintf("%.2f", t)
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(strings.TrimPrefix(t, "$")), ",", "")
			if !reDecimalOK.MatchString(s) {
				m[k] = nil
				dropped = append(dropped, k+"(bad decimal)")
			} else {
				m[k] = s
			}
		}
	}

	// integer fields sometimes arrive as numeric strings
	for _, k := range []string{"total_units", "total_score"} {
		if s, ok := m[k].(string); ok {
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err == nil {
				m[k] = n
			} else {
				m[k] = nil
				dropped = append(dropped, k+"(bad int)")
			}
		}
	}

	if s, ok := m["application_date"].(string); ok && !reISODate.MatchString(strings.TrimSpace(s)) {
		m["application_date"] = nil
		dropped = append(dropped, "application_date(bad format)")
	}
	if s, ok := m["application_number"].(string); ok && !reAppNum.MatchString(strings.TrimSpace(s)) {
		m["application_number"] = nil
		dropped = append(dropped, "application_number(bad format)")
	}
	if s, ok := m["zip_code"].(string); ok && !reZip.MatchString(strings.TrimSpace(s)) {
		m["zip_code"] = nil
		dropped = append(dropped, "zip_code(bad format)")
	}

	// trim strings; empty becomes null, not ""
	for k := range schemaKeys {
		if s, ok := m[k].(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				m[k] = nil
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	// every schema key must be present, null when absent
	for k := range schemaKeys {
		if _, ok := m[k]; !ok {
			m[k] = nil
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
