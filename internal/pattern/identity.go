package pattern

import (
	"regexp"
	"strings"
	"time"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

var (
	reAppNumAnchor = regexp.MustCompile(`(?i)\b(?:application|app\.?|tdhca)\s*(?:number|no\.?|num|#)\s*[:#]?\s*(\d{5})\b`)
	reAppNumHash   = regexp.MustCompile(`#\s*(\d{5})\b`)

	reProjectAnchor  = regexp.MustCompile(`(?im)\b(?:development|project)\s+name\s*[:\-]\s*([^\n]+)`)
	reProjectAnchor2 = regexp.MustCompile(`(?im)\bname\s+of\s+development\s*[:\-]\s*([^\n]+)`)

	reDeveloperAnchor = regexp.MustCompile(`(?im)\bdeveloper(?:\s+name)?\s*[:\-]\s*([^\n]+)`)
	reEntitySuffix    = regexp.MustCompile(`\b([A-Z][A-Za-z0-9 .,&'\-]{2,60}?(?:LLC|L\.L\.C\.|LP|L\.P\.|LLP|Ltd\.?|Inc\.?|Corp\.?|Corporation|Company|Partners(?:hip)?|GP))\b`)

	reDateAnchor = regexp.MustCompile(`(?im)\b(?:application|submission|submitted)\s+date\s*[:\-]?\s*([^\n]+)`)
	reDateToken  = regexp.MustCompile(`\b(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2})\b`)
)

// boilerplate that shows up where a development name should be; never a name.
var projectRejects = []string{
	"housing tax credit",
	"tax credit application",
	"competitive htc",
	"application",
	"tdhca",
	"texas department of housing",
	"n/a",
	"none",
	"same as above",
	"see attached",
}

func boilerplateName(v string) bool {
	lv := strings.ToLower(v)
	for _, r := range projectRejects {
		if lv == r || strings.Contains(lv, r) {
			return true
		}
	}
	return false
}

func extractApplicationNumber(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reAppNumAnchor.FindStringSubmatch(text); m != nil {
		out = append(out, cand(constants.FieldApplicationNumber, m[1], 0.95))
	}
	if m := reAppNumHash.FindStringSubmatch(text); m != nil {
		out = append(out, cand(constants.FieldApplicationNumber, m[1], 0.50))
	}
	return out
}

func extractProjectName(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	for _, re := range []*regexp.Regexp{reProjectAnchor, reProjectAnchor2} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := inlineValue(m[1])
		// multi-column truncation and boilerplate both disqualify the match
		if len(v) < 3 || len(v) > 80 || boilerplateName(v) {
			continue
		}
		out = append(out, cand(constants.FieldProjectName, v, 0.90))
	}
	return out
}

func extractDeveloperName(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reDeveloperAnchor.FindStringSubmatch(text); m != nil {
		v := inlineValue(m[1])
		lv := strings.ToLower(v)
		if len(v) >= 3 && len(v) <= 80 && lv != "developer" && lv != "tbd" &&
			lv != "to be determined" && lv != "n/a" {
			out = append(out, cand(constants.FieldDeveloperName, v, 0.85))
		}
	}
	if m := reEntitySuffix.FindStringSubmatch(text); m != nil {
		out = append(out, cand(constants.FieldDeveloperName, strings.TrimSpace(m[1]), 0.40))
	}
	return out
}

func extractApplicationDate(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reDateAnchor.FindStringSubmatch(text); m != nil {
		if tok := reDateToken.FindStringSubmatch(m[1]); tok != nil {
			if norm, ok := normalizeDate(tok[1]); ok {
				out = append(out, cand(constants.FieldApplicationDate, norm, 0.90))
			}
		}
	}
	if m := reDateToken.FindStringSubmatch(text); m != nil {
		if norm, ok := normalizeDate(m[1]); ok {
			out = append(out, cand(constants.FieldApplicationDate, norm, 0.35))
		}
	}
	return out
}

var dateLayouts = []string{
	"1/2/2006", "1-2-2006", "1/2/06", "1-2-06",
	"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan. 2, 2006",
	"2006-01-02",
}

// normalizeDate parses a raw token into ISO-8601 (YYYY-MM-DD).
func normalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "Sept ", "Sep "))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			// sanity window for application vintages
			if t.Year() >= 1990 && t.Year() <= 2100 {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}
