package energybill

import "strings"

// NotFound is the value reported for a field that could not be recovered
// from the document text.
const NotFound = "Not Found"

// Result keys. Every extraction result carries exactly these five keys.
const (
	KeyMonth          = "Month"
	KeyUnitsConsumed  = "Units Consumed"
	KeySanctionedLoad = "Sanctioned Load (kW)"
	KeyContractDemand = "Contract Demand (kW)"
	KeyMaxDemand      = "Maximum Demand (kW)"
)

// Keys returns the five result keys in presentation order.
func Keys() []string {
	return []string{
		KeyMonth,
		KeyUnitsConsumed,
		KeySanctionedLoad,
		KeyContractDemand,
		KeyMaxDemand,
	}
}

// Source says which tier of the pipeline produced a field's value.
type Source string

const (
	// SourceAnchored means the value was found near a label line.
	SourceAnchored Source = "anchored"
	// SourceFallback means the value came from a whole-text pattern sweep.
	SourceFallback Source = "fallback"
	// SourcePositional means the value was picked by document order alone
	// (n-th KW/KVA reading), with no label evidence. Callers should surface
	// these rather than trust them silently.
	SourcePositional Source = "positional"
	// SourceNone means no tier produced a value and the field carries
	// the NotFound sentinel.
	SourceNone Source = "none"
)

// valueKind selects the shape of value a field accepts.
type valueKind int

const (
	valueMonth  valueKind = iota // MAR-2025, March-2025
	valueUnits                   // 3 to 6 digit meter reading
	valueDemand                  // decimal or integer, KW/KVA tag preferred
)

// FieldRule describes how one billing field is located: the label synonyms
// that anchor a line, how many lines around the anchor to probe, and the
// cleanup steps applied to a matched value. The five stock rules come from
// DefaultRules; templates may tune labels, radius and cleanup but the field
// set and value shapes are fixed.
type FieldRule struct {
	Key     string
	Labels  []string
	Radius  int
	Cleanup []string
	kind    valueKind
}

// maxRadius caps how far from an anchor line the search may wander.
const maxRadius = 3

// Cleanup rule names understood by the resolver.
const (
	RuleStripCommas       = "strip_commas"
	RuleStripZeroDecimals = "strip_zero_decimals"
	RuleTrim              = "trim"
)

// cleanupFuncs maps rule names to their transforms. Application order comes
// from the FieldRule, so templates can reorder or drop steps per field.
var cleanupFuncs = map[string]func(string) string{
	RuleStripCommas: func(s string) string {
		return strings.ReplaceAll(s, ",", "")
	},
	RuleStripZeroDecimals: func(s string) string {
		// Exact suffix only; "35.0" and "108.5" must survive untouched.
		return strings.TrimSuffix(s, ".00000")
	},
	RuleTrim: strings.TrimSpace,
}

func applyCleanup(v string, rules []string) string {
	for _, name := range rules {
		if fn, ok := cleanupFuncs[name]; ok {
			v = fn(v)
		}
	}
	return v
}

// numericCleanup is the shared cleanup chain for the four numeric fields.
func numericCleanup() []string {
	return []string{RuleStripCommas, RuleStripZeroDecimals, RuleTrim}
}

// DefaultRules returns the stock rules for the five billing fields.
func DefaultRules() []FieldRule {
	return []FieldRule{
		{
			Key:    KeyMonth,
			Labels: []string{"month", "bill month"},
			// Month tokens are unambiguous, so a wide window is safe.
			Radius:  3,
			Cleanup: []string{RuleTrim},
			kind:    valueMonth,
		},
		{
			Key:     KeyUnitsConsumed,
			Labels:  []string{"units consumed", "total units", "net units supplied"},
			Radius:  1,
			Cleanup: numericCleanup(),
			kind:    valueUnits,
		},
		{
			Key:     KeySanctionedLoad,
			Labels:  []string{"load sanctioned", "sanctioned load"},
			Radius:  1,
			Cleanup: numericCleanup(),
			kind:    valueDemand,
		},
		{
			Key:     KeyContractDemand,
			Labels:  []string{"contract demand", "cont. demand"},
			Radius:  1,
			Cleanup: numericCleanup(),
			kind:    valueDemand,
		},
		{
			Key:     KeyMaxDemand,
			Labels:  []string{"maximum demand", "max demand", "net max demand"},
			Radius:  1,
			Cleanup: numericCleanup(),
			kind:    valueDemand,
		},
	}
}
