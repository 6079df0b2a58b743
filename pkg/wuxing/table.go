package wuxing

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

//go:embed data/interactions.yaml
var defaultTableData []byte

// InteractionRule describes how an actual element behaves in a palace that expects another
type InteractionRule struct {
	Expected    types.Element
	Actual      types.Element
	Base        float64
	Formula     string
	Description string
	Suggestion  string
	Warning     bool
	Critical    bool

	formula *Formula
}

// SpecialRules holds table-wide parameters
type SpecialRules struct {
	// CounterReactionThreshold is a percentage; an actual element above it amplifies warning rules
	CounterReactionThreshold float64
}

type pair struct {
	expected types.Element
	actual   types.Element
}

// Table is the read-only 5x5 interaction table
type Table struct {
	rules   map[pair]*InteractionRule
	special SpecialRules
}

type ruleSpec struct {
	Base       *float64 `yaml:"base"`
	Formula    string   `yaml:"formula"`
	Desc       string   `yaml:"desc"`
	Suggestion string   `yaml:"suggestion"`
	Warning    bool     `yaml:"warning"`
	Critical   bool     `yaml:"critical"`
}

type tableSpec struct {
	SpecialRules struct {
		CounterReactionThreshold *float64 `yaml:"counter_reaction_threshold"`
	} `yaml:"special_rules"`
	Matrix map[string]map[string]ruleSpec `yaml:"matrix"`
}

// NewTable builds a table from explicit rules. Formulas are compiled here; a formula that
// does not compile is kept and evaluates to the fallback coefficient.
func NewTable(rules []InteractionRule, special SpecialRules) *Table {
	t := &Table{
		rules:   make(map[pair]*InteractionRule, len(rules)),
		special: special,
	}
	for i := range rules {
		r := rules[i]
		r.formula = CompileFormula(r.Formula)
		t.rules[pair{r.Expected, r.Actual}] = &r
	}
	return t
}

// DefaultTable returns the embedded interaction table
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTableData, "embedded interaction table")
}

// LoadTable reads an interaction table from a YAML or JSON file
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigLoadError{Source: path, Err: err}
	}
	return ParseTable(data, path)
}

// ParseTable decodes a table document. The matrix must cover all 25 element pairs,
// each exactly once after alias resolution.
func ParseTable(data []byte, source string) (*Table, error) {
	var doc tableSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &types.ConfigLoadError{Source: source, Err: err}
	}
	if doc.SpecialRules.CounterReactionThreshold == nil {
		return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("special_rules.counter_reaction_threshold is required")}
	}

	var rules []InteractionRule
	seen := make(map[pair]string, len(types.Elements)*len(types.Elements))
	for expName, row := range doc.Matrix {
		expected, err := types.ParseElement(expName)
		if err != nil {
			return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("matrix: %w", err)}
		}
		for actName, rs := range row {
			actual, err := types.ParseElement(actName)
			if err != nil {
				return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("matrix.%s: %w", expName, err)}
			}
			key := expName + "." + actName
			if prev, ok := seen[pair{expected, actual}]; ok {
				return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("matrix.%s duplicates matrix.%s", key, prev)}
			}
			seen[pair{expected, actual}] = key
			if rs.Base == nil {
				return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("matrix.%s.%s: base is required", expName, actName)}
			}
			rules = append(rules, InteractionRule{
				Expected:    expected,
				Actual:      actual,
				Base:        *rs.Base,
				Formula:     rs.Formula,
				Description: rs.Desc,
				Suggestion:  rs.Suggestion,
				Warning:     rs.Warning,
				Critical:    rs.Critical,
			})
		}
	}

	t := NewTable(rules, SpecialRules{CounterReactionThreshold: *doc.SpecialRules.CounterReactionThreshold})
	for _, e := range types.Elements {
		for _, a := range types.Elements {
			if _, ok := t.rules[pair{e, a}]; !ok {
				return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("matrix is missing %s -> %s", e, a)}
			}
		}
	}
	return t, nil
}

// Rule looks up the rule for an (expected, actual) pair
func (t *Table) Rule(expected, actual types.Element) (*InteractionRule, error) {
	r, ok := t.rules[pair{expected, actual}]
	if !ok {
		return nil, &InvalidElementError{Expected: expected, Actual: actual}
	}
	return r, nil
}

// Special returns the table-wide rules
func (t *Table) Special() SpecialRules {
	return t.special
}

// Rules returns a copy of every rule ordered by expected then actual element
func (t *Table) Rules() []InteractionRule {
	order := make(map[types.Element]int, len(types.Elements))
	for i, e := range types.Elements {
		order[e] = i
	}
	out := make([]InteractionRule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Expected != out[j].Expected {
			return order[out[i].Expected] < order[out[j].Expected]
		}
		return order[out[i].Actual] < order[out[j].Actual]
	})
	return out
}
