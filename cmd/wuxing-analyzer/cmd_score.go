package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
	"github.com/menta2k/wuxing-analyzer/pkg/wuxing"
)

var scoreCmd = &cobra.Command{
	Use:   "score <expected> <actual> [percent]",
	Short: "Score one expected/actual element pair",
	Long: `Scores how the actual element sits in a palace expecting another.
Elements are Metal, Wood, Water, Fire or Earth (any case) or their single
characters. percent is the actual element's presence, 0-100; it defaults to
the configured default percent.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runScore,
}

// parseElementArg keeps unknown names so the scorer reports them as invalid input
func parseElementArg(s string) types.Element {
	if e, err := types.ParseElement(s); err == nil {
		return e
	}
	return types.Element(s)
}

func loadScorer() (*wuxing.Scorer, error) {
	var (
		table *wuxing.Table
		err   error
	)
	if cfg.Scoring.TablePath != "" {
		table, err = wuxing.LoadTable(cfg.Scoring.TablePath)
	} else {
		table, err = wuxing.DefaultTable()
	}
	if err != nil {
		return nil, err
	}
	return wuxing.NewScorer(table, logger.Named("wuxing")), nil
}

func runScore(cmd *cobra.Command, args []string) error {
	percent := cfg.Scoring.DefaultPercent
	if len(args) == 3 {
		p, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", args[2], err)
		}
		percent = p
	}

	scorer, err := loadScorer()
	if err != nil {
		return err
	}

	expected, actual := parseElementArg(args[0]), parseElementArg(args[1])
	res := scorer.Harmony(expected, actual, percent)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pair:         %s in %s palace @ %g%%\n", actual, expected, percent)
	fmt.Fprintf(out, "Score:        %.2f\n", res.Score)
	fmt.Fprintf(out, "Harmony:      %t\n", res.IsHarmony)
	fmt.Fprintf(out, "Relationship: %s\n", res.Relationship)
	fmt.Fprintf(out, "Advice:       %s\n", res.Advice)
	if res.Critical {
		fmt.Fprintf(out, "Critical:     yes\n")
	}
	if res.CounterReaction {
		fmt.Fprintf(out, "Counter-reaction amplified the coefficient to %.2f\n", res.Coefficient)
	}
	return nil
}
