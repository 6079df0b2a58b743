package luoshu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

func TestDefaultLayout(t *testing.T) {
	l, err := DefaultLayout()
	require.NoError(t, err)

	want := []types.Element{
		types.Metal, types.Water, types.Earth,
		types.Wood, types.Metal, types.Earth,
		types.Wood, types.Earth, types.Fire,
	}
	for i, e := range want {
		assert.Equal(t, e, l.Palace(i).Element, "palace %d", i)
		assert.GreaterOrEqual(t, len(l.Palace(i).Avoid), 2)
	}
	assert.Equal(t, "Dui", l.Palace(4).Name)
	assert.Equal(t, "Center", l.Palace(5).Name)
}

func TestParseLayoutErrors(t *testing.T) {
	var eight strings.Builder
	eight.WriteString("grids:\n")
	for i := 0; i < 8; i++ {
		eight.WriteString("  - {name: p, element: 金}\n")
	}

	tests := map[string]string{
		"wrong count":     eight.String(),
		"unknown element": "grids:\n  - {name: p, element: Plasma}\n",
		"not yaml":        "grids: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLayout([]byte(doc), name)
			var loadErr *types.ConfigLoadError
			assert.True(t, errors.As(err, &loadErr), "got %v", err)
		})
	}
}

func TestParseLayoutDefaultsLabel(t *testing.T) {
	var doc strings.Builder
	doc.WriteString("grids:\n")
	for i := 0; i < GridCells; i++ {
		doc.WriteString("  - {name: Palace, element: 土}\n")
	}

	l, err := ParseLayout([]byte(doc.String()), "inline")
	require.NoError(t, err)
	assert.Equal(t, "Palace", l.Palace(8).Label)
	assert.Equal(t, types.Earth, l.Palace(8).Element)
}
