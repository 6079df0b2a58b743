// Package wuxing scores how well a detected element suits the element a palace expects.
//
// Scoring is a pure function of the interaction table and its inputs:
//
//	coefficient = formula(percent / 100)       // 1.0 if the formula fails
//	coefficient *= 1.3                         // only if percent > threshold and the rule warns
//	score = round2(clamp(base * coefficient, 0.1, 1.5))
//
// A score of 0.75 or more is harmonious.
package wuxing

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

const (
	MinScore = 0.1
	MaxScore = 1.5

	// HarmonyThreshold is the lowest harmonious score
	HarmonyThreshold = 0.75

	// CounterReactionFactor amplifies warning rules when the actual element dominates
	CounterReactionFactor = 1.3

	// FallbackCoefficient replaces a formula that cannot be evaluated
	FallbackCoefficient = 1.0

	invalidRelationship = "invalid element input"
	invalidAdvice       = "check element names: Metal, Wood, Water, Fire or Earth"
)

// HarmonyResult is the scored interaction of one expected/actual pair
type HarmonyResult struct {
	Score           float64 `json:"score"`
	IsHarmony       bool    `json:"is_harmony"`
	Relationship    string  `json:"relationship"`
	Advice          string  `json:"advice"`
	Suggestion      string  `json:"suggestion,omitempty"`
	Critical        bool    `json:"is_critical"`
	CounterReaction bool    `json:"counter_reaction"`
	Coefficient     float64 `json:"coefficient"`
}

// Scorer computes harmony scores from an interaction table
type Scorer struct {
	table  *Table
	logger *zap.Logger
}

// NewScorer creates a scorer over table. A nil logger disables logging.
func NewScorer(table *Table, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{table: table, logger: logger}
}

// Table returns the interaction table the scorer reads
func (s *Scorer) Table() *Table {
	return s.table
}

// Score rates actual against expected at the given presence percentage (0-100).
// It fails only with *InvalidElementError.
func (s *Scorer) Score(expected, actual types.Element, percent float64) (HarmonyResult, error) {
	rule, err := s.table.Rule(expected, actual)
	if err != nil {
		return HarmonyResult{}, err
	}

	coefficient, err := rule.formula.Eval(percent / 100)
	if err != nil {
		s.logger.Debug("formula fallback",
			zap.String("expected", expected.String()),
			zap.String("actual", actual.String()),
			zap.Error(err))
		coefficient = FallbackCoefficient
	}

	counter := percent > s.table.special.CounterReactionThreshold && rule.Warning
	if counter {
		coefficient *= CounterReactionFactor
	}

	score := round2(clamp(rule.Base*coefficient, MinScore, MaxScore))

	return HarmonyResult{
		Score:           score,
		IsHarmony:       score >= HarmonyThreshold,
		Relationship:    rule.Description,
		Advice:          Advice(score, rule.Suggestion),
		Suggestion:      rule.Suggestion,
		Critical:        rule.Critical,
		CounterReaction: counter,
		Coefficient:     coefficient,
	}, nil
}

// Harmony is Score with invalid elements turned into a zero, non-harmonious result
// that carries a diagnostic message.
func (s *Scorer) Harmony(expected, actual types.Element, percent float64) HarmonyResult {
	res, err := s.Score(expected, actual, percent)
	if err != nil {
		var invalid *InvalidElementError
		if !errors.As(err, &invalid) {
			s.logger.Warn("unexpected scoring error", zap.Error(err))
		}
		s.logger.Debug("invalid element pair",
			zap.String("expected", expected.String()),
			zap.String("actual", actual.String()))
		return HarmonyResult{
			Score:        0,
			IsHarmony:    false,
			Relationship: invalidRelationship,
			Advice:       invalidAdvice,
		}
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
