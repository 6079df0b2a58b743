package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"block comment", `{/* note */"a":1}`, `{"a":1}`},
		{"trailing comma", `{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"prose around", `Sure! {"a":1} hope this helps`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeModelJSON(tt.raw))
		})
	}
}

func TestParseSceneAnalysis(t *testing.T) {
	raw := `{
  "objects": [
    {"label": "potted plant", "confidence": 0.8, "box": {"x": 0, "y": 0, "w": 0.5, "h": 0.4}},
    {"label": "cup", "confidence": 0.6, "box": {"x": 0.5, "y": 0.5, "w": 0.1, "h": 0.1}},
  ],
  "description": "a desk"
}`
	scene := ParseSceneAnalysis(raw)
	require.Len(t, scene.Objects, 2)
	assert.Equal(t, "potted plant", scene.Objects[0].Label)
	assert.InDelta(t, 0.2, scene.Objects[0].Box.Area(), 1e-9)
	assert.Equal(t, "a desk", scene.Description)
}

func TestParseSceneAnalysisFallback(t *testing.T) {
	scene := ParseSceneAnalysis("I can see a cat on a sofa.")
	assert.Empty(t, scene.Objects)
	assert.Equal(t, "Model returned non-JSON response", scene.Description)

	scene = ParseSceneAnalysis(`{"objects": "many"}`)
	assert.Empty(t, scene.Objects)
	assert.Equal(t, "Failed to parse model response", scene.Description)
}
