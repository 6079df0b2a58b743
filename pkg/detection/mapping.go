package detection

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

//go:embed data/objects.yaml
var defaultMappingData []byte

// ObjectMapping is the element attribution of one object label
type ObjectMapping struct {
	Name    string
	Reason  string
	Weights map[types.Element]float64
}

// Mapping resolves object labels to element weights
type Mapping struct {
	objects  map[string]ObjectMapping
	fallback ObjectMapping
}

type mappingEntry struct {
	Name    string             `yaml:"name"`
	Reason  string             `yaml:"reason"`
	Element map[string]float64 `yaml:"element"`
}

type mappingSpec struct {
	Default *mappingEntry           `yaml:"default"`
	Objects map[string]mappingEntry `yaml:"objects"`
}

// DefaultMapping returns the embedded object mapping
func DefaultMapping() (*Mapping, error) {
	return ParseMapping(defaultMappingData, "embedded object mapping")
}

// LoadMapping reads an object mapping from a YAML or JSON file
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigLoadError{Source: path, Err: err}
	}
	return ParseMapping(data, path)
}

// ParseMapping decodes a mapping document. A default entry is required and labels
// must stay distinct after normalization.
func ParseMapping(data []byte, source string) (*Mapping, error) {
	var doc mappingSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &types.ConfigLoadError{Source: source, Err: err}
	}
	if doc.Default == nil {
		return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("default entry is required")}
	}

	fallback, err := doc.Default.resolve()
	if err != nil {
		return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("default: %w", err)}
	}
	m := &Mapping{objects: make(map[string]ObjectMapping, len(doc.Objects)), fallback: fallback}
	labels := make(map[string]string, len(doc.Objects))
	for label, entry := range doc.Objects {
		om, err := entry.resolve()
		if err != nil {
			return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("%s: %w", label, err)}
		}
		key := normalizeLabel(label)
		if prev, ok := labels[key]; ok {
			return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("%q and %q name the same object", prev, label)}
		}
		labels[key] = label
		m.objects[key] = om
	}
	return m, nil
}

func (e mappingEntry) resolve() (ObjectMapping, error) {
	om := ObjectMapping{Name: e.Name, Reason: e.Reason, Weights: make(map[types.Element]float64, len(e.Element))}
	for name, w := range e.Element {
		el, err := types.ParseElement(name)
		if err != nil {
			return ObjectMapping{}, err
		}
		om.Weights[el] += w
	}
	if len(om.Weights) == 0 {
		return ObjectMapping{}, fmt.Errorf("no element weights")
	}
	return om, nil
}

// Lookup returns the mapping for label, or the default entry if the label is unknown
func (m *Mapping) Lookup(label string) (ObjectMapping, bool) {
	om, ok := m.objects[normalizeLabel(label)]
	if !ok {
		return m.fallback, false
	}
	return om, true
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.ReplaceAll(label, "_", " ")
}
