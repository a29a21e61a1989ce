package energybill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateOverridesLabels(t *testing.T) {
	rules, err := ParseTemplate([]byte(`
fields:
  - key: "Contract Demand (kW)"
    labels: ["billed demand"]
`))
	require.NoError(t, err)

	ex := NewExtractor(rules)

	fields := ex.Extract("Billed Demand: 45.0 KVA")
	assert.Equal(t, "45.0", fields[KeyContractDemand])

	// The stock synonyms are replaced, not appended.
	fields = ex.Extract("Contract Demand: 99.0 KVA")
	assert.Equal(t, NotFound, fields[KeyContractDemand])
}

func TestParseTemplateOverridesRadius(t *testing.T) {
	rules, err := ParseTemplate([]byte(`
fields:
  - key: "Maximum Demand (kW)"
    radius: 2
`))
	require.NoError(t, err)

	text := `
		104.5 KW
		Maximum Demand
	`

	res := NewExtractor(rules).ExtractDetailed(text)

	assert.Equal(t, "104.5", res.Fields[KeyMaxDemand])
	assert.Equal(t, SourceAnchored, res.Sources[KeyMaxDemand])
}

func TestParseTemplateOverridesCleanup(t *testing.T) {
	rules, err := ParseTemplate([]byte(`
fields:
  - key: "Maximum Demand (kW)"
    cleanup: ["trim"]
`))
	require.NoError(t, err)

	fields := NewExtractor(rules).Extract("Net Max Demand 108.00000")

	// Without strip_zero_decimals the raw reading survives.
	assert.Equal(t, "108.00000", fields[KeyMaxDemand])
}

func TestParseTemplatePartialKeepsDefaults(t *testing.T) {
	rules, err := ParseTemplate([]byte(`
fields:
  - key: "Month"
    radius: 0
`))
	require.NoError(t, err)

	byKey := make(map[string]FieldRule, len(rules))
	for _, r := range rules {
		byKey[r.Key] = r
	}

	assert.Equal(t, 0, byKey[KeyMonth].Radius)
	assert.Equal(t, []string{"month", "bill month"}, byKey[KeyMonth].Labels)

	for _, def := range DefaultRules() {
		if def.Key == KeyMonth {
			continue
		}
		assert.Equal(t, def, byKey[def.Key])
	}
}

func TestParseTemplateUnknownField(t *testing.T) {
	_, err := ParseTemplate([]byte(`
fields:
  - key: "Meter Serial"
    labels: ["meter serial"]
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestParseTemplateUnknownCleanupRule(t *testing.T) {
	_, err := ParseTemplate([]byte(`
fields:
  - key: "Month"
    cleanup: ["uppercase"]
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cleanup rule")
}

func TestParseTemplateRadiusOutOfRange(t *testing.T) {
	_, err := ParseTemplate([]byte(`
fields:
  - key: "Month"
    radius: 7
`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestParseTemplateBadYAML(t *testing.T) {
	_, err := ParseTemplate([]byte("fields: [:::"))

	require.Error(t, err)
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	content := `
fields:
  - key: "Units Consumed"
    labels: ["energy consumed"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rules, err := LoadTemplate(path)
	require.NoError(t, err)

	fields := NewExtractor(rules).Extract("Energy Consumed: 4,018")
	assert.Equal(t, "4018", fields[KeyUnitsConsumed])
}

func TestLoadTemplateMissingFile(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
}
