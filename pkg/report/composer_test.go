package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

func testGrids(conflicts ...int) []types.GridResult {
	grids := make([]types.GridResult, 9)
	for i := range grids {
		grids[i] = types.GridResult{
			Index:           i,
			Position:        fmt.Sprintf("P%d", i),
			BaguaName:       fmt.Sprintf("Palace%d", i),
			Symbol:          "☰",
			DetectedElement: types.Metal,
			ExpectedElement: types.Metal,
			IsHarmony:       true,
			Score:           1.2,
			Suggestion:      "element harmonious, avoid red tones, open flames",
		}
	}
	for _, i := range conflicts {
		grids[i].IsHarmony = false
		grids[i].Score = 0.43
		grids[i].DetectedElement = types.Fire
		grids[i].Suggestion = fmt.Sprintf("adjustment suggested: fix %d, then more", i)
	}
	return grids
}

func TestOverallSuggestionAllHarmonious(t *testing.T) {
	assert.Equal(t, AllHarmoniousSuggestion, OverallSuggestion(testGrids()))
}

func TestOverallSuggestionFirstTwoConflicts(t *testing.T) {
	got := OverallSuggestion(testGrids(7, 1, 3, 5, 8))
	want := "Key adjustments:\n• P1: adjustment suggested: fix 1\n• P3: adjustment suggested: fix 3"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OverallSuggestion mismatch (-want +got):\n%s", diff)
	}
}

func TestOverallSuggestionWithoutComma(t *testing.T) {
	grids := testGrids(2)
	grids[2].Suggestion = "severe conflict"
	assert.Equal(t, "Key adjustments:\n• P2: severe conflict", OverallSuggestion(grids))
}

func TestFortuneTip(t *testing.T) {
	tests := []struct {
		name      string
		element   types.Element
		conflicts []int
		want      string
	}{
		{"fire", types.Fire, []int{0, 1, 2, 3, 4}, FireFortuneTip},
		{"water", types.Water, nil, WaterFortuneTip},
		{"many conflicts", types.Wood, []int{0, 1, 2, 3}, ConflictFortuneTip},
		{"three conflicts", types.Metal, []int{0, 1, 2}, StableFortuneTip},
		{"none", types.Earth, nil, StableFortuneTip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FortuneTip(types.WuxingResult{Name: tt.element}, testGrids(tt.conflicts...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatGrids(t *testing.T) {
	grids := testGrids(1)[:2]
	got := FormatGrids(grids)
	want := "☰ Palace0(P0):\n- detected: Metal -> needs Metal ✓\n- advice: element harmonious, avoid red tones, open flames\n" +
		"\n" +
		"☰ Palace1(P1):\n- detected: Fire -> needs Metal ✗\n- advice: adjustment suggested: fix 1, then more\n"
	assert.Equal(t, want, got)
}

func TestCompose(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)
	fixed := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	wx := types.WuxingResult{Name: types.Wood, Reason: "potted plant: green foliage", Score: 1.4}
	r, err := c.Compose(wx, testGrids(0, 4))
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, fixed, r.CreatedAt)
	assert.Len(t, r.Grids, 9)
	assert.Equal(t, StableFortuneTip, r.FortuneTip)
	assert.Contains(t, r.Text, "Element: Wood (100%)")
	assert.Contains(t, r.Text, "Why: potted plant: green foliage")
	assert.Contains(t, r.Text, "• P0: adjustment suggested: fix 0")
	assert.Contains(t, r.Text, "Fortune tip: "+StableFortuneTip)
	assert.Contains(t, r.Text, r.GridAnalysis)
}

func TestComposeScorePercent(t *testing.T) {
	c, err := NewComposer("{{.wuxing_score}}")
	require.NoError(t, err)

	r, err := c.Compose(types.WuxingResult{Name: types.Fire, Score: 0.456}, testGrids())
	require.NoError(t, err)
	assert.Equal(t, "46", r.Text)
}

func TestComposeRejectsWrongGridCount(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)

	_, err = c.Compose(types.WuxingResult{Name: types.Fire}, testGrids()[:8])
	assert.True(t, errors.Is(err, ErrGridCount))
}

func TestNewComposerUnknownField(t *testing.T) {
	_, err := NewComposer("{{.wuxing_name}} {{.report_time}}")
	require.Error(t, err)

	var fe *TemplateFieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "report_time", fe.Field)
	assert.True(t, IsTemplateFieldError(err))
}

func TestNewComposerParseError(t *testing.T) {
	_, err := NewComposer("{{.wuxing_name")
	assert.True(t, IsTemplateFieldError(err))
}

func TestLoadComposer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("{{.fortune_tip}}|{{.wuxing_name}}"), 0o644))

	c, err := LoadComposer(path)
	require.NoError(t, err)
	r, err := c.Compose(types.WuxingResult{Name: types.Water}, testGrids())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Text, WaterFortuneTip))

	_, err = LoadComposer(filepath.Join(dir, "missing.tmpl"))
	var loadErr *types.ConfigLoadError
	assert.True(t, errors.As(err, &loadErr))
}
