package luoshu

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

// GridSize is the number of rows and columns of the Luoshu grid
const GridSize = 3

// GridCells is the number of palaces
const GridCells = GridSize * GridSize

//go:embed data/palaces.yaml
var defaultLayoutData []byte

// Palace is the fixed symbolic metadata of one grid cell
type Palace struct {
	Name      string        `yaml:"name" json:"name"`
	Symbol    string        `yaml:"symbol" json:"symbol"`
	Label     string        `yaml:"label" json:"label"`
	Position  string        `yaml:"position" json:"position"`
	Element   types.Element `yaml:"element" json:"element"`
	Meaning   string        `yaml:"meaning" json:"meaning"`
	Avoid     []string      `yaml:"avoid" json:"avoid"`
	Recommend []string      `yaml:"recommend" json:"recommend"`
}

// Layout binds the nine palaces to grid indices in row-major order
type Layout struct {
	Palaces [GridCells]Palace
}

type layoutSpec struct {
	Grids []Palace `yaml:"grids"`
}

// DefaultLayout returns the embedded Bagua layout
func DefaultLayout() (*Layout, error) {
	return ParseLayout(defaultLayoutData, "embedded palace layout")
}

// LoadLayout reads a layout from a YAML or JSON file
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigLoadError{Source: path, Err: err}
	}
	return ParseLayout(data, path)
}

// ParseLayout decodes a layout document holding exactly nine grids
func ParseLayout(data []byte, source string) (*Layout, error) {
	var doc layoutSpec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &types.ConfigLoadError{Source: source, Err: err}
	}
	if len(doc.Grids) != GridCells {
		return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("expected %d grids, got %d", GridCells, len(doc.Grids))}
	}

	var l Layout
	for i, p := range doc.Grids {
		if !p.Element.Valid() {
			return nil, &types.ConfigLoadError{Source: source, Err: fmt.Errorf("grids[%d]: missing element", i)}
		}
		if p.Label == "" {
			p.Label = p.Name
		}
		l.Palaces[i] = p
	}
	return &l, nil
}

// Palace returns the palace at a row-major index
func (l *Layout) Palace(index int) Palace {
	return l.Palaces[index]
}
