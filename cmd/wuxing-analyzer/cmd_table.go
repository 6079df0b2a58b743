package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var tableFlags struct {
	yaml bool
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the loaded interaction table",
	RunE:  runTable,
}

func init() {
	tableCmd.Flags().BoolVar(&tableFlags.yaml, "yaml", false, "print as YAML")
}

type tableRow struct {
	Expected    string  `yaml:"expected"`
	Actual      string  `yaml:"actual"`
	Base        float64 `yaml:"base"`
	Formula     string  `yaml:"formula"`
	Description string  `yaml:"desc"`
	Warning     bool    `yaml:"warning,omitempty"`
	Critical    bool    `yaml:"critical,omitempty"`
}

func runTable(cmd *cobra.Command, _ []string) error {
	scorer, err := loadScorer()
	if err != nil {
		return err
	}
	table := scorer.Table()

	rules := table.Rules()
	rows := make([]tableRow, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, tableRow{
			Expected:    r.Expected.String(),
			Actual:      r.Actual.String(),
			Base:        r.Base,
			Formula:     r.Formula,
			Description: r.Description,
			Warning:     r.Warning,
			Critical:    r.Critical,
		})
	}

	out := cmd.OutOrStdout()
	if tableFlags.yaml {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		doc := map[string]any{
			"counter_reaction_threshold": table.Special().CounterReactionThreshold,
			"rules":                      rows,
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPECTED\tACTUAL\tBASE\tFORMULA\tFLAGS\tDESCRIPTION")
	for _, r := range rows {
		flags := "-"
		switch {
		case r.Critical:
			flags = "critical"
		case r.Warning:
			flags = "warning"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n", r.Expected, r.Actual, r.Base, r.Formula, flags, r.Description)
	}
	fmt.Fprintf(tw, "\ncounter-reaction threshold: %g%%\n", table.Special().CounterReactionThreshold)
	return tw.Flush()
}
