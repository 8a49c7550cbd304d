package electricity

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction is the best-effort result of pattern matching over page text.
// Fields that did not match stay nil; they are omitted, never defaulted.
type Extraction struct {
	Bill       *float64
	UsageKWh   *float64
	RatePerKWh *float64

	// RawMatches keeps the matched snippets for the audit trail.
	RawMatches map[string]string
}

// Empty reports whether no pattern matched at all. An empty extraction is a
// "no data" signal, not an error.
func (e Extraction) Empty() bool {
	return e.Bill == nil && e.UsageKWh == nil && e.RatePerKWh == nil
}

var (
	billRe  = regexp.MustCompile(`(?i)average.*?bill.*?\$([0-9,]+\.?[0-9]*)`)
	usageRe = regexp.MustCompile(`(?i)([0-9,]+)\s*kWh.*?per month`)
	rateRe  = regexp.MustCompile(`(?i)([0-9]+\.?[0-9]*)\s*cents?\s*per\s*kWh`)

	// Loosened usage pattern used by the state-level scrape sources.
	stateUsageRe = regexp.MustCompile(`(?i)average.*?([0-9,]+)\s*kWh`)
)

// ExtractFromText applies the three billing patterns to plain text. Thousands
// separators are stripped before parsing; the rate pattern captures cents and
// is converted to dollars per kWh.
func ExtractFromText(text string) Extraction {
	out := Extraction{RawMatches: make(map[string]string)}

	if m := billRe.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			out.Bill = &v
			out.RawMatches["bill"] = m[0]
		}
	}
	if m := usageRe.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			out.UsageKWh = &v
			out.RawMatches["usage"] = m[0]
		}
	}
	if m := rateRe.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			v /= 100
			out.RatePerKWh = &v
			out.RawMatches["rate"] = m[0]
		}
	}
	return out
}

// extractRateCents matches the standalone cents-per-kWh pattern and returns
// the rate in dollars per kWh.
func extractRateCents(text string) (float64, string, bool) {
	m := rateRe.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	v, err := parseAmount(m[1])
	if err != nil {
		return 0, "", false
	}
	return v / 100, m[0], true
}

// extractStateUsage matches the loosened "average ... N kWh" pattern.
func extractStateUsage(text string) (float64, bool) {
	m := stateUsageRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := parseAmount(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// HTMLToText reduces an HTML document to its visible text so the regex rules
// never have to fight markup.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}
