package pattern

import (
	"regexp"
	"strings"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

var (
	reCountyAnchor = regexp.MustCompile(`(?im)\bcounty(?:\s+name)?\s*[:\-]\s*([^\n]+)`)
	reCountyWord   = regexp.MustCompile(`\b([A-Z][A-Za-z]+(?: [A-Z][A-Za-z]+)?)\s+County\b`)
	// "value following a ZIP is likely a county" positional guess
	reAfterZip = regexp.MustCompile(`\b7\d{4}(?:-\d{4})?\s+([A-Za-z]+(?: [A-Za-z]+)?)`)

	reZipAnchor  = regexp.MustCompile(`(?im)\bzip(?:\s*code)?\s*[:\-]?\s*(7\d{4}(?:-\d{4})?)\b`)
	reZipAfterTX = regexp.MustCompile(`\b(?:TX|Texas)\.?,?\s+(7\d{4}(?:-\d{4})?)\b`)
	reZipLoose   = regexp.MustCompile(`\b(7\d{4})(?:-\d{4})?\b`)

	reCityAnchor = regexp.MustCompile(`(?im)\bcity\s*[:\-]\s*([^\n]+)`)
	reCityComma  = regexp.MustCompile(`,\s*([A-Z][A-Za-z .\-]{2,30}?),?\s+(?:TX|Texas)\b`)

	reAddrAnchor = regexp.MustCompile(`(?im)\b(?:site |property |development )?address\s*[:\-]\s*(\d[^\n]*)`)
	reStreet     = regexp.MustCompile(`\b\d{1,6}\s+(?:[NSEW]\.?\s+)?(?:[A-Z][A-Za-z']*\s+){0,4}(?:St|Street|Ave|Avenue|Blvd|Boulevard|Dr|Drive|Ln|Lane|Rd|Road|Pkwy|Parkway|Way|Loop|Trail|Hwy|Highway|Cir|Circle|Ct|Court)\b\.?`)

	reAllDigits = regexp.MustCompile(`^\d+$`)
)

// words that show up as "county" captures when the layout drifts; none of
// them is ever a county.
var countyRejects = map[string]struct{}{
	"zip": {}, "zipcode": {}, "county": {}, "state": {}, "texas": {},
	"tx": {}, "name": {}, "city": {}, "n/a": {}, "none": {},
}

func degenerateCounty(s string) bool {
	s = strings.ToLower(strings.Trim(s, " ,.;"))
	if len(s) < 3 {
		return true
	}
	if reAllDigits.MatchString(s) || containsDigit(s) {
		return true
	}
	_, bad := countyRejects[s]
	return bad
}

// countyFromCapture reduces a raw line-tail capture ("Harris  TX 77520") to a
// county name. The longest leading word run that is a known Texas county wins;
// otherwise the first word survives only if it is not degenerate.
func countyFromCapture(raw string) (name string, known bool) {
	words := strings.Fields(raw)
	max := 3
	if len(words) < max {
		max = len(words)
	}
	for n := max; n >= 1; n-- {
		if canon, ok := constants.CanonicalCounty(strings.Join(words[:n], " ")); ok {
			return canon, true
		}
	}
	if len(words) == 0 {
		return "", false
	}
	first := strings.Trim(words[0], ",.;")
	if degenerateCounty(first) {
		return "", false
	}
	return first, false
}

func extractCounty(text string) []reconcile.Candidate {
	var out []reconcile.Candidate

	if m := reCountyAnchor.FindStringSubmatch(text); m != nil {
		if name, known := countyFromCapture(m[1]); name != "" {
			conf := 0.45
			if known {
				conf = 0.90
			}
			out = append(out, cand(constants.FieldCounty, name, conf))
		}
	}

	// "... Harris County ..." occurrences, accept-list only
	for _, m := range reCountyWord.FindAllStringSubmatch(text, 3) {
		if canon, ok := constants.CanonicalCounty(m[1]); ok {
			out = append(out, cand(constants.FieldCounty, canon, 0.70))
		}
	}

	// positional fallback: token after a ZIP, accept-list only
	if m := reAfterZip.FindStringSubmatch(text); m != nil {
		if canon, ok := constants.CanonicalCounty(m[1]); ok {
			out = append(out, cand(constants.FieldCounty, canon, 0.50))
		}
	}
	return out
}

func extractZip(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reZipAnchor.FindStringSubmatch(text); m != nil {
		out = append(out, cand(constants.FieldZipCode, m[1], 0.95))
	}
	if m := reZipAfterTX.FindStringSubmatch(text); m != nil {
		out = append(out, cand(constants.FieldZipCode, m[1], 0.70))
	}
	if m := reZipLoose.FindStringSubmatch(text); m != nil {
		out = append(out, cand(constants.FieldZipCode, m[1], 0.40))
	}
	return out
}

func extractCity(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reCityAnchor.FindStringSubmatch(text); m != nil {
		v := inlineValue(m[1])
		// strip a trailing state/zip the anchor swallowed
		if i := strings.IndexAny(v, "0123456789"); i > 0 {
			v = strings.TrimSpace(strings.Trim(v[:i], " ,"))
		}
		v = strings.TrimSuffix(v, " TX")
		v = strings.TrimSuffix(v, " Texas")
		v = strings.Trim(v, " ,")
		if len(v) >= 3 && !containsDigit(v) {
			out = append(out, cand(constants.FieldCity, v, 0.85))
		}
	}
	if m := reCityComma.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		if len(v) >= 3 {
			out = append(out, cand(constants.FieldCity, v, 0.55))
		}
	}
	return out
}

func extractStreetAddress(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reAddrAnchor.FindStringSubmatch(text); m != nil {
		v := inlineValue(m[1])
		if i := strings.Index(v, ","); i > 0 {
			v = strings.TrimSpace(v[:i])
		}
		if len(v) >= 6 {
			out = append(out, cand(constants.FieldStreetAddress, v, 0.85))
		}
	}
	if m := reStreet.FindString(text); m != "" {
		out = append(out, cand(constants.FieldStreetAddress, strings.TrimSpace(m), 0.50))
	}
	return out
}
