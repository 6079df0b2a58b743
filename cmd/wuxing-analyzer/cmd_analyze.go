package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wuxinganalyzer "github.com/menta2k/wuxing-analyzer"
	"github.com/menta2k/wuxing-analyzer/internal/config"
	"github.com/menta2k/wuxing-analyzer/internal/utils"
	"github.com/menta2k/wuxing-analyzer/pkg/client"
	"github.com/menta2k/wuxing-analyzer/pkg/llamacpp"
	"github.com/menta2k/wuxing-analyzer/pkg/ollama"
)

// Default server URLs per backend
const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultLlamaCppURL = llamacpp.DefaultURL
)

var analyzeFlags struct {
	backend   string
	url       string
	model     string
	outDir    string
	format    string
	annotate  bool
	writeJSON bool
	useScore  bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image|URL|dir>...",
	Short: "Read one or more portraits",
	Long: `Reads each image (file, http(s) URL, or every image below a directory),
prints the report and optionally writes the annotated nine-halls image and a
JSON report into the output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.backend, "backend", "", "object detection backend: none, ollama or llamacpp (default from config)")
	f.StringVar(&analyzeFlags.url, "url", "", "vision server URL")
	f.StringVar(&analyzeFlags.model, "model", "", "vision model name")
	f.StringVarP(&analyzeFlags.outDir, "out", "o", "", "output directory (default from config)")
	f.StringVar(&analyzeFlags.format, "ext", "", "annotated image format: jpg, png or webp")
	f.BoolVar(&analyzeFlags.annotate, "annotate", false, "write the annotated nine-halls image")
	f.BoolVar(&analyzeFlags.writeJSON, "json", false, "write the report as JSON")
	f.BoolVar(&analyzeFlags.useScore, "use-detection-score", false, "use detection scores as element presence")
}

// applyAnalyzeFlags overrides config values with explicitly set flags
func applyAnalyzeFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("backend") {
		c.Detection.Backend = analyzeFlags.backend
	}
	if f.Changed("url") {
		c.Detection.URL = analyzeFlags.url
	}
	if f.Changed("model") {
		c.Detection.Model = analyzeFlags.model
	}
	if f.Changed("out") {
		c.Output.Dir = analyzeFlags.outDir
	}
	if f.Changed("ext") {
		c.Output.Format = analyzeFlags.format
	}
	if f.Changed("annotate") {
		c.Output.Annotate = analyzeFlags.annotate
	}
	if f.Changed("use-detection-score") {
		c.Scoring.UseDetectionScore = analyzeFlags.useScore
	}
}

// newVisionClient builds the configured backend; BackendNone yields a nil client
func newVisionClient(c config.DetectionConfig) (client.VisionClient, error) {
	switch c.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendOllama:
		url := c.URL
		if url == "" {
			url = defaultOllamaURL
		}
		return ollama.NewClient(url)
	case config.BackendLlamaCpp:
		url := c.URL
		if url == "" {
			url = defaultLlamaCppURL
		}
		return llamacpp.NewClient(url)
	default:
		return nil, fmt.Errorf("unknown backend: %s (use none, ollama or llamacpp)", c.Backend)
	}
}

// expandSources replaces directories with the image files below them
func expandSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		if utils.DirExists(arg) {
			files, err := utils.ListImageFiles(arg)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", arg, err)
			}
			sources = append(sources, files...)
			continue
		}
		sources = append(sources, arg)
	}
	return sources, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	applyAnalyzeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	vc, err := newVisionClient(cfg.Detection)
	if err != nil {
		return err
	}
	wa, err := wuxinganalyzer.NewWithConfig(cfg, vc, logger)
	if err != nil {
		return err
	}

	sources, err := expandSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no images found")
	}

	writeFiles := cfg.Output.Annotate || analyzeFlags.writeJSON
	if writeFiles {
		if err := utils.EnsureDir(cfg.Output.Dir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, src := range sources {
		log := logger.With(zap.String("source", src))
		if info, err := os.Stat(src); err == nil {
			log.Debug("input", zap.String("size", utils.FormatFileSize(info.Size())))
		}

		img, err := wa.LoadImage(src)
		if err != nil {
			log.Error("load failed", zap.Error(err))
			failed++
			continue
		}
		res, err := wa.Analyze(cmd.Context(), img)
		if err != nil {
			log.Error("analysis failed", zap.Error(err))
			failed++
			continue
		}
		log.Info("analyzed",
			zap.Stringer("element", res.Overall.Element),
			zap.String("method", string(res.Overall.Method)),
			zap.String("report_id", res.Report.ID))

		if len(sources) > 1 {
			fmt.Fprintf(out, "==> %s <==\n", src)
		}
		fmt.Fprintln(out, res.Report.Text)

		if cfg.Output.Annotate {
			format := strings.ToLower(cfg.Output.Format)
			path := utils.GenerateOutputFilename(src, cfg.Output.Dir, "", "_ninehalls", format)
			if err := wa.SaveImage(wa.Annotate(img), path, format, cfg.Output.Quality); err != nil {
				log.Error("save annotated image failed", zap.Error(err))
			} else {
				log.Info("wrote", zap.String("path", path))
			}
		}
		if analyzeFlags.writeJSON {
			path := utils.GenerateOutputFilename(src, cfg.Output.Dir, "", "_report", "json")
			js, err := json.MarshalIndent(res, "", "  ")
			if err == nil {
				err = os.WriteFile(path, js, 0o644)
			}
			if err != nil {
				log.Error("write report failed", zap.Error(err))
			} else {
				log.Info("wrote", zap.String("path", path))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(sources))
	}
	return nil
}
