package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/htxdata/tdhca-extractor/constants"
	"github.com/htxdata/tdhca-extractor/internal/reconcile"
)

var (
	reUnitsAnchor  = regexp.MustCompile(`(?i)\btotal\s+(?:number\s+of\s+)?(?:housing\s+|residential\s+)?units\s*[:\-]?\s*(\d{1,4})\b`)
	reUnitsTrailer = regexp.MustCompile(`(?i)\b(\d{1,4})\s+total\s+units\b`)
	reUnitsLoose   = regexp.MustCompile(`(?i)\b(\d{1,4})\s+units\b`)

	reTotalDevCost = regexp.MustCompile(`(?i)\btotal\s+development\s+cost\s*[:\-]?\s*\$?\s*([\d,]+(?:\.\d{2})?)\b`)
	reCreditReq    = regexp.MustCompile(`(?i)\b(?:annual\s+)?(?:housing\s+)?(?:tax\s+)?credit\s+(?:amount\s+)?request(?:ed)?\s*[:\-]?\s*\$?\s*([\d,]+(?:\.\d{2})?)\b`)
	reCreditReq2   = regexp.MustCompile(`(?i)\brequested\s+credit\s+amount\s*[:\-]?\s*\$?\s*([\d,]+(?:\.\d{2})?)\b`)

	reScoreAnchor = regexp.MustCompile(`(?i)\b(?:total|self)[\s\-]*score\s*[:\-]?\s*(\d{1,3})\b`)
	reScoreLoose  = regexp.MustCompile(`(?i)\bscore\s*[:\-]\s*(\d{1,3})\b`)
)

func extractTotalUnits(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	add := func(raw string, conf float64) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 5000 {
			return
		}
		out = append(out, cand(constants.FieldTotalUnits, strconv.Itoa(n), conf))
	}
	if m := reUnitsAnchor.FindStringSubmatch(text); m != nil {
		add(m[1], 0.90)
	}
	if m := reUnitsTrailer.FindStringSubmatch(text); m != nil {
		add(m[1], 0.75)
	}
	if m := reUnitsLoose.FindStringSubmatch(text); m != nil {
		add(m[1], 0.45)
	}
	return out
}

func extractMonetary(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	if m := reTotalDevCost.FindStringSubmatch(text); m != nil {
		if v, ok := normalizeMoney(m[1]); ok {
			out = append(out, cand(constants.FieldTotalDevelopmentCost, v, 0.90))
		}
	}
	for _, re := range []*regexp.Regexp{reCreditReq, reCreditReq2} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := normalizeMoney(m[1]); ok {
				out = append(out, cand(constants.FieldCreditAmountRequested, v, 0.85))
				break
			}
		}
	}
	return out
}

func extractTotalScore(text string) []reconcile.Candidate {
	var out []reconcile.Candidate
	add := func(raw string, conf float64) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 300 {
			return
		}
		out = append(out, cand(constants.FieldTotalScore, strconv.Itoa(n), conf))
	}
	if m := reScoreAnchor.FindStringSubmatch(text); m != nil {
		add(m[1], 0.85)
	}
	if m := reScoreLoose.FindStringSubmatch(text); m != nil {
		add(m[1], 0.50)
	}
	return out
}

// normalizeMoney strips grouping and renders two decimals so values compare
// and round-trip cleanly.
func normalizeMoney(raw string) (string, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return "", false
	}
	return fmt.Sprintf("%.2f", f), true
}
