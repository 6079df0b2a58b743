// wuxing-analyzer reads portraits through the Five Elements and the Luoshu grid.
//
// Usage:
//
//	wuxing-analyzer analyze <image|URL|dir>... [--backend none|ollama|llamacpp] [--out dir] [--json]
//	wuxing-analyzer score <expected> <actual> [percent]
//	wuxing-analyzer table [--yaml]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	wuxinganalyzer "github.com/menta2k/wuxing-analyzer"
	"github.com/menta2k/wuxing-analyzer/internal/config"
	"github.com/menta2k/wuxing-analyzer/internal/utils"
)

var (
	logger *zap.Logger
	cfg    *config.Config
)

var rootFlags struct {
	configPath string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "wuxing-analyzer",
	Short: "Five Elements and Luoshu nine-palace portrait readings",
	Long: `wuxing-analyzer detects the dominant element of a portrait, splits it into
the nine Luoshu palaces and scores each palace's element against the one the
palace expects.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if rootFlags.verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = loadConfig(rootFlags.configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// loadConfig reads path, or the default config file when it exists, or the built-in defaults
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if def := config.GetConfigPath(); utils.FileExists(def) {
			path = def
		}
	}
	c := config.Default()
	if path != "" {
		var err error
		c, err = config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded config", zap.String("path", path))
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "config file (YAML or JSON); defaults to "+config.GetConfigPath()+" when present")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.Version = wuxinganalyzer.GetVersion()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
