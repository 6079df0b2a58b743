package wuxing

import "fmt"

const (
	// AbnormalEnergyAdvice is returned for a score outside every band
	AbnormalEnergyAdvice = "abnormal energy state"

	defaultSuggestion = "follow the generating and controlling cycles"
)

type adviceBand struct {
	min, max float64
	// minInclusive closes the lower edge; only the band starting at the harmony threshold sets it
	minInclusive bool
	text         string
	// withSuggestion bands format the rule suggestion into text
	withSuggestion bool
}

func (b adviceBand) contains(score float64) bool {
	if score > b.max {
		return false
	}
	if b.minInclusive {
		return score >= b.min
	}
	return score > b.min
}

// Bands are checked high to low with (min, max] semantics. A score of exactly
// HarmonyThreshold is harmonious, so it lands in the "broadly harmonious" band.
var adviceBands = []adviceBand{
	{min: 1.0, max: 1.5, text: "perfect fit, maintain current element"},
	{min: 0.9, max: 1.0, text: "minor adjustment suffices"},
	{min: HarmonyThreshold, max: 0.9, minInclusive: true, text: "broadly harmonious, details can improve"},
	{min: 0.5, max: HarmonyThreshold, text: "adjustment suggested: %s", withSuggestion: true},
	{min: 0.1, max: 0.5, text: "severe conflict, redesign needed"},
}

// Advice maps a harmony score to a recommendation. An empty suggestion is replaced
// by a generic pointer to the element cycles.
func Advice(score float64, suggestion string) string {
	if suggestion == "" {
		suggestion = defaultSuggestion
	}
	for _, b := range adviceBands {
		if b.contains(score) {
			if b.withSuggestion {
				return fmt.Sprintf(b.text, suggestion)
			}
			return b.text
		}
	}
	// clamped scores of exactly MinScore land here
	return AbnormalEnergyAdvice
}
