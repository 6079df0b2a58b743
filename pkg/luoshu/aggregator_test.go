package luoshu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
	"github.com/menta2k/wuxing-analyzer/pkg/wuxing"
)

func newTestAggregator(t *testing.T, opts Options) *Aggregator {
	t.Helper()
	table, err := wuxing.DefaultTable()
	require.NoError(t, err)
	layout, err := DefaultLayout()
	require.NoError(t, err)
	return NewAggregator(wuxing.NewScorer(table, nil), layout, opts)
}

// matchingReadings returns one reading per palace carrying the expected element
func matchingReadings(l *Layout) []Reading {
	readings := make([]Reading, GridCells)
	for i, p := range l.Palaces {
		readings[i] = Reading{Element: p.Element}
	}
	return readings
}

func TestAggregateAllHarmonious(t *testing.T) {
	agg := newTestAggregator(t, Options{})

	results, err := agg.Aggregate(matchingReadings(agg.Layout()))
	require.NoError(t, err)
	require.Len(t, results, GridCells)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.True(t, r.IsHarmony)
		assert.Equal(t, 1.2, r.Score)
		assert.Equal(t, agg.Layout().Palace(i).Label, r.Position)
	}
	assert.Equal(t, "Qian (Northwest)", results[0].Position)
	assert.Equal(t, "element harmonious, avoid red tones, open flames", results[0].Suggestion)
	assert.Equal(t, "Patrons", results[0].Meaning)
	assert.Equal(t, "☰", results[0].Symbol)
}

func TestAggregateDefaultPercent(t *testing.T) {
	agg := newTestAggregator(t, Options{})
	readings := matchingReadings(agg.Layout())

	// Qian expects Metal; Wood at the default 95% triggers the counter-reaction
	readings[0] = Reading{Element: types.Wood}
	results, err := agg.Aggregate(readings)
	require.NoError(t, err)
	assert.Equal(t, 0.83, results[0].Score)
	assert.True(t, results[0].IsHarmony)

	// an explicit 50% stays below the threshold
	readings[0] = Reading{Element: types.Wood, Percent: 50, HasPercent: true}
	results, err = agg.Aggregate(readings)
	require.NoError(t, err)
	assert.Equal(t, 0.68, results[0].Score)
	assert.False(t, results[0].IsHarmony)
	assert.Equal(t, "adjustment suggested: keep Wood understated, let white or gold tones lead", results[0].Suggestion)
}

func TestAggregateCustomDefaultPercent(t *testing.T) {
	agg := newTestAggregator(t, Options{DefaultPercent: 60})
	readings := matchingReadings(agg.Layout())
	readings[0] = Reading{Element: types.Wood}

	results, err := agg.Aggregate(readings)
	require.NoError(t, err)
	assert.Equal(t, 0.67, results[0].Score)
}

func TestAggregateZeroPercentIsKept(t *testing.T) {
	var rules []wuxing.InteractionRule
	for _, e := range types.Elements {
		for _, a := range types.Elements {
			rules = append(rules, wuxing.InteractionRule{Expected: e, Actual: a, Base: 1.0, Formula: "x"})
		}
	}
	table := wuxing.NewTable(rules, wuxing.SpecialRules{CounterReactionThreshold: 70})
	layout, err := DefaultLayout()
	require.NoError(t, err)
	agg := NewAggregator(wuxing.NewScorer(table, nil), layout, Options{})

	readings := matchingReadings(layout)
	readings[0] = ReadingFromDetection(types.Detection{Element: types.Metal, Score: 0}, true)
	readings[1] = Reading{Element: types.Water, Percent: 0, HasPercent: true}

	results, err := agg.Aggregate(readings)
	require.NoError(t, err)
	assert.Equal(t, 0.1, results[0].Score)
	assert.False(t, results[0].IsHarmony)
	assert.Equal(t, 0.1, results[1].Score)
	// readings without a percentage use the default
	assert.Equal(t, 0.95, results[2].Score)
}

func TestAggregateInvalidElement(t *testing.T) {
	agg := newTestAggregator(t, Options{})
	readings := matchingReadings(agg.Layout())
	readings[4] = Reading{Element: types.Element("Plasma")}

	results, err := agg.Aggregate(readings)
	require.NoError(t, err)
	assert.Equal(t, 0.0, results[4].Score)
	assert.False(t, results[4].IsHarmony)
	assert.Contains(t, results[4].Suggestion, "check element names")
}

func TestAggregateOrderIsStable(t *testing.T) {
	for _, workers := range []int{0, 1, 3} {
		agg := newTestAggregator(t, Options{Workers: workers})
		readings := make([]Reading, GridCells)
		for i := range readings {
			readings[i] = Reading{Element: types.Elements[i%len(types.Elements)], Percent: float64(10 * (i + 1)), HasPercent: true}
		}
		for run := 0; run < 20; run++ {
			results, err := agg.Aggregate(readings)
			require.NoError(t, err)
			for i, r := range results {
				require.Equal(t, i, r.Index)
				require.Equal(t, readings[i].Element, r.DetectedElement)
				require.Equal(t, agg.Layout().Palace(i).Element, r.ExpectedElement)
			}
		}
	}
}

func TestAggregateRejectsWrongCount(t *testing.T) {
	agg := newTestAggregator(t, Options{})

	_, err := agg.Aggregate(make([]Reading, 8))
	assert.True(t, errors.Is(err, ErrGridCount))
}

func TestReadingFromDetection(t *testing.T) {
	d := types.Detection{Element: types.Fire, Score: 0.42, Color: types.RGB{R: 200}}

	assert.False(t, ReadingFromDetection(d, false).HasPercent)
	assert.True(t, ReadingFromDetection(d, true).HasPercent)
	assert.InDelta(t, 42.0, ReadingFromDetection(d, true).Percent, 1e-9)
	assert.Equal(t, types.RGB{R: 200}, ReadingFromDetection(d, true).Color)
}

func TestHarmoniousAdvice(t *testing.T) {
	assert.Equal(t, "element harmonious", harmoniousAdvice(nil))
	assert.Equal(t, "element harmonious, avoid a", harmoniousAdvice([]string{"a"}))
	assert.Equal(t, "element harmonious, avoid a, b", harmoniousAdvice([]string{"a", "b", "c"}))
}
