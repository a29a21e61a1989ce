package energybill

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Templates tune the stock field rules per provider without touching code:
// label synonyms, search radius and cleanup order are overridable. The
// field set and value shapes are fixed, so an unknown field key or cleanup
// rule name is an error, not a new field.
//
// Example:
//
//	fields:
//	  - key: "Contract Demand (kW)"
//	    labels: ["contract demand", "billed demand"]
//	    radius: 2
//	  - key: "Units Consumed"
//	    cleanup: ["strip_commas", "trim"]

type templateFile struct {
	Fields []templateField `yaml:"fields"`
}

type templateField struct {
	Key     string   `yaml:"key"`
	Labels  []string `yaml:"labels"`
	Radius  *int     `yaml:"radius"`
	Cleanup []string `yaml:"cleanup"`
}

// LoadTemplate reads a YAML rule template and applies it over the stock
// field rules.
func LoadTemplate(path string) ([]FieldRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate applies YAML template data over the stock field rules.
// Omitted fields and omitted settings keep their defaults.
func ParseTemplate(data []byte) ([]FieldRule, error) {
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	rules := DefaultRules()
	byKey := make(map[string]*FieldRule, len(rules))
	for i := range rules {
		byKey[rules[i].Key] = &rules[i]
	}

	for _, f := range tf.Fields {
		rule, ok := byKey[f.Key]
		if !ok {
			return nil, fmt.Errorf("unknown field %q in template", f.Key)
		}
		if len(f.Labels) > 0 {
			rule.Labels = f.Labels
		}
		if f.Radius != nil {
			if *f.Radius < 0 || *f.Radius > maxRadius {
				return nil, fmt.Errorf("field %q: radius %d out of range 0..%d", f.Key, *f.Radius, maxRadius)
			}
			rule.Radius = *f.Radius
		}
		if f.Cleanup != nil {
			for _, name := range f.Cleanup {
				if _, ok := cleanupFuncs[name]; !ok {
					return nil, fmt.Errorf("field %q: unknown cleanup rule %q", f.Key, name)
				}
			}
			rule.Cleanup = f.Cleanup
		}
	}
	return rules, nil
}
