package energybill

import (
	"regexp"
	"strings"
)

// The whole-text fallback tier. It runs per field, only after the anchored
// search came up empty, over the full comma-stripped document text. Because
// it ignores line structure it also catches labels that OCR split across
// line breaks.

// fallbackValue scans flat (the comma-stripped full text) for a value for
// the rule and reports how it was chosen.
func fallbackValue(rule *FieldRule, flat string) (string, Source) {
	switch rule.kind {
	case valueMonth:
		if m := reMonthToken.FindString(flat); m != "" {
			return m, SourceFallback
		}
	case valueUnits:
		return unitsFallback(rule, flat)
	case valueDemand:
		return demandFallback(rule, flat)
	}
	return "", SourceNone
}

// unitsFallback looks for a 3-6 digit run adjacent to one of the units
// labels, reading-before-label first ("4018 Units consumed"), then
// label-before-reading ("Total Units: 4018").
func unitsFallback(rule *FieldRule, flat string) (string, Source) {
	cleaned := reJammedDate.ReplaceAllString(flat, " ")

	for _, label := range rule.Labels {
		re := regexp.MustCompile(`(?i)\b(\d{3,6})\s*` + labelPattern(label))
		if m := re.FindStringSubmatch(cleaned); len(m) > 1 {
			return m[1], SourceFallback
		}
	}
	for _, label := range rule.Labels {
		re := regexp.MustCompile(`(?i)` + labelPattern(label) + `\s*[:\-]?\s*(\d{3,6})\b`)
		if m := re.FindStringSubmatch(cleaned); len(m) > 1 {
			return m[1], SourceFallback
		}
	}
	return "", SourceNone
}

// demandFallback looks for a number right after one of the demand labels.
// Failing that, sanctioned load and contract demand fall back on the order
// KW/KVA readings appear in: the first tagged number is taken as the
// sanctioned load and the second as the contract demand. That leans on
// layout position alone, so those values are reported as positional.
func demandFallback(rule *FieldRule, flat string) (string, Source) {
	for _, label := range rule.Labels {
		re := regexp.MustCompile(`(?i)` + labelPattern(label) + `\s*[:\-]?\s*(\d+(?:\.\d+)?)`)
		if m := re.FindStringSubmatch(flat); len(m) > 1 {
			return m[1], SourceFallback
		}
	}

	tagged := reTaggedNumber.FindAllStringSubmatch(flat, -1)
	switch rule.Key {
	case KeySanctionedLoad:
		if len(tagged) > 0 {
			return tagged[0][1], SourcePositional
		}
	case KeyContractDemand:
		if len(tagged) > 1 {
			return tagged[1][1], SourcePositional
		}
	}
	return "", SourceNone
}

// labelPattern turns a label synonym into a whitespace-tolerant, escaped
// regexp fragment: "cont. demand" becomes `cont\.\s*demand`.
func labelPattern(label string) string {
	parts := strings.Fields(regexp.QuoteMeta(label))
	return strings.Join(parts, `\s*`)
}
