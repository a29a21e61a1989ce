package energybill

import (
	"regexp"
	"sort"
	"strings"
)

// Value shapes. Bills vary in casing and spacing, so all of these are
// case-insensitive and whitespace-tolerant.
var (
	// MAR-2025, March-2025
	reMonthToken = regexp.MustCompile(`(?i)\b[a-z]{3,}-\d{4}\b`)
	// 03-Apr-2025; readings and dates get jammed together by OCR, so these
	// are cut out of a candidate before digits are searched.
	reJammedDate = regexp.MustCompile(`(?i)\d{1,2}-[a-z]{3}-\d{4}`)
	// Meter readings run 3 to 6 digits once commas are gone.
	reUnitsRun = regexp.MustCompile(`\b\d{3,6}\b`)
	// 35.0 KW, 70 KVA. The word boundary keeps KWH/KVAH energy readings
	// from qualifying as demand values.
	reTaggedNumber = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kw|kva)\b`)
	// Bare decimal or integer token.
	reNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Result carries the five resolved fields plus where each value came from.
type Result struct {
	Fields  map[string]string
	Sources map[string]Source
}

// Positional lists fields whose values were picked on document order alone.
func (r Result) Positional() []string {
	var keys []string
	for k, s := range r.Sources {
		if s == SourcePositional {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Extractor pulls the five billing fields out of free-form bill text.
// Layouts vary wildly between providers, so it anchors on label lines and
// probes a small window of lines around each anchor, with a whole-text
// pattern sweep as the last tier before the NotFound sentinel.
type Extractor struct {
	rules []FieldRule
}

// New returns an Extractor with the stock field rules.
func New() *Extractor {
	return NewExtractor(DefaultRules())
}

// NewExtractor builds an Extractor from the given rules. Labels are matched
// case-insensitively; radius is clamped to [0, maxRadius].
func NewExtractor(rules []FieldRule) *Extractor {
	rs := make([]FieldRule, len(rules))
	copy(rs, rules)
	for i := range rs {
		labels := make([]string, 0, len(rs[i].Labels))
		for _, l := range rs[i].Labels {
			l = strings.ToLower(strings.TrimSpace(l))
			if l != "" {
				labels = append(labels, l)
			}
		}
		rs[i].Labels = labels
		if rs[i].Radius < 0 {
			rs[i].Radius = 0
		}
		if rs[i].Radius > maxRadius {
			rs[i].Radius = maxRadius
		}
	}
	return &Extractor{rules: rs}
}

// Extract returns just the field map. All five keys are always present;
// fields with no recoverable value carry NotFound. Any input, including
// empty or garbage text, yields a complete map and never an error.
func (e *Extractor) Extract(text string) map[string]string {
	return e.ExtractDetailed(text).Fields
}

// Extract runs the stock extractor over text.
func Extract(text string) map[string]string {
	return New().Extract(text)
}

// ExtractDetailed runs the full pipeline and reports per-field provenance
// alongside the values.
func (e *Extractor) ExtractDetailed(text string) Result {
	lines := splitLines(text)

	found := make(map[string]string, len(e.rules))
	sources := make(map[string]Source, len(e.rules))

	// ---------------- pass 1: label-anchored search ----------------

	for i, line := range lines {
		lower := strings.ToLower(line)
		for r := range e.rules {
			rule := &e.rules[r]
			if _, ok := found[rule.Key]; ok {
				continue // earliest anchored value wins
			}
			if !containsAnyLabel(lower, rule.Labels) {
				continue
			}
			if v := searchNeighborhood(lines, i, rule); v != "" {
				found[rule.Key] = v
				sources[rule.Key] = SourceAnchored
			}
			// A label with no nearby value does not claim the field;
			// a later occurrence of the label may still resolve it.
		}
	}

	// ---------------- pass 2: whole-text fallback ----------------

	flat := strings.ReplaceAll(text, ",", "")
	for r := range e.rules {
		rule := &e.rules[r]
		if _, ok := found[rule.Key]; ok {
			continue
		}
		if v, src := fallbackValue(rule, flat); v != "" {
			found[rule.Key] = v
			sources[rule.Key] = src
		}
	}

	// ---------------- pass 3: normalize ----------------

	fields := make(map[string]string, len(e.rules))
	for r := range e.rules {
		rule := &e.rules[r]
		v, ok := found[rule.Key]
		if !ok {
			fields[rule.Key] = NotFound
			sources[rule.Key] = SourceNone
			continue
		}
		fields[rule.Key] = applyCleanup(v, rule.Cleanup)
	}

	return Result{Fields: fields, Sources: sources}
}

// splitLines turns raw document text into trimmed, non-empty lines. Search
// distances are measured in positions of this filtered slice.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	rawLines := strings.Split(text, "\n")

	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func containsAnyLabel(lower string, labels []string) bool {
	for _, l := range labels {
		if strings.Contains(lower, l) {
			return true
		}
	}
	return false
}

// searchNeighborhood probes the lines around an anchor for a value of the
// rule's shape and returns the first hit in probe order.
func searchNeighborhood(lines []string, anchor int, rule *FieldRule) string {
	// A value right after the label is the most trustworthy read; it keeps
	// two fields that share a line from stealing each other's number.
	if v := matchAfterLabel(rule, lines[anchor]); v != "" {
		return v
	}
	for _, idx := range neighborhood(anchor, rule.Radius, len(lines)) {
		if v := matchValue(rule.kind, lines[idx]); v != "" {
			return v
		}
	}
	return ""
}

// matchAfterLabel matches a value of the rule's shape immediately after one
// of its labels, the way "Contract Demand: 4.5 KVA" reads.
func matchAfterLabel(rule *FieldRule, line string) string {
	var shape string
	switch rule.kind {
	case valueMonth:
		shape = `([a-z]{3,}-\d{4})`
	case valueUnits:
		shape = `(\d{3,6})\b`
	case valueDemand:
		shape = `(\d+(?:\.\d+)?)`
	default:
		return ""
	}

	cleaned := strings.ReplaceAll(line, ",", "")
	if rule.kind == valueUnits {
		cleaned = reJammedDate.ReplaceAllString(cleaned, " ")
	}

	for _, label := range rule.Labels {
		re := regexp.MustCompile(`(?i)` + labelPattern(label) + `\s*[:\-]?\s*` + shape)
		if m := re.FindStringSubmatch(cleaned); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// neighborhood returns candidate line indices in probe order: the anchor
// line first. Radius 1 adds only the line below, because labels usually sit
// above their value and probing upward would steal the previous field's
// line. Radius 2+ alternates above/below, nearest first.
func neighborhood(anchor, radius, n int) []int {
	idx := []int{anchor}
	if radius == 1 {
		if anchor+1 < n {
			idx = append(idx, anchor+1)
		}
		return idx
	}
	for d := 1; d <= radius; d++ {
		if anchor-d >= 0 {
			idx = append(idx, anchor-d)
		}
		if anchor+d < n {
			idx = append(idx, anchor+d)
		}
	}
	return idx
}

func matchValue(kind valueKind, text string) string {
	switch kind {
	case valueMonth:
		return reMonthToken.FindString(text)
	case valueUnits:
		return matchUnits(text)
	case valueDemand:
		return matchDemand(text)
	}
	return ""
}

// matchUnits finds a 3-6 digit meter reading. Commas are stripped before
// jammed dates are cut: "4,01803-Apr-2025" becomes "401803-Apr-2025", the
// date is removed, and "4018" is left to match.
func matchUnits(text string) string {
	text = strings.ReplaceAll(text, ",", "")
	text = reJammedDate.ReplaceAllString(text, " ")
	return reUnitsRun.FindString(text)
}

// matchDemand finds a demand value, preferring a KW/KVA-tagged number over
// a bare one in the same candidate text.
func matchDemand(text string) string {
	text = strings.ReplaceAll(text, ",", "")
	if m := reTaggedNumber.FindStringSubmatch(text); len(m) > 1 {
		return m[1]
	}
	return reNumber.FindString(text)
}
