package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Detection backends
const (
	BackendNone     = "none"
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Scoring   ScoringConfig   `json:"scoring" yaml:"scoring"`
	Layout    LayoutConfig    `json:"layout" yaml:"layout"`
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	Color     ColorConfig     `json:"color" yaml:"color"`
	Report    ReportConfig    `json:"report" yaml:"report"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Analysis  AnalysisConfig  `json:"analysis" yaml:"analysis"`
}

// ScoringConfig holds configuration for harmony scoring
type ScoringConfig struct {
	DefaultPercent    float64 `json:"default_percent" yaml:"default_percent"`
	UseDetectionScore bool    `json:"use_detection_score" yaml:"use_detection_score"`
	TablePath         string  `json:"table_path,omitempty" yaml:"table_path,omitempty"`
}

// LayoutConfig points at an alternative nine-palace layout
type LayoutConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// DetectionConfig holds configuration for vision-model object detection
type DetectionConfig struct {
	Backend       string  `json:"backend" yaml:"backend"`
	URL           string  `json:"url,omitempty" yaml:"url,omitempty"`
	Model         string  `json:"model" yaml:"model"`
	MinAreaRatio  float64 `json:"min_area_ratio" yaml:"min_area_ratio"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
	MappingPath   string  `json:"mapping_path,omitempty" yaml:"mapping_path,omitempty"`
	SendFormat    string  `json:"send_format" yaml:"send_format"`
	SendSize      int     `json:"send_size" yaml:"send_size"`
	SendQuality   int     `json:"send_quality" yaml:"send_quality"`
}

// ColorConfig holds configuration for dominant color extraction
type ColorConfig struct {
	Clusters   int `json:"clusters" yaml:"clusters"`
	Iterations int `json:"iterations" yaml:"iterations"`
	SampleSize int `json:"sample_size" yaml:"sample_size"`
}

// ReportConfig points at an alternative report template
type ReportConfig struct {
	TemplatePath string `json:"template_path,omitempty" yaml:"template_path,omitempty"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir      string `json:"dir" yaml:"dir"`
	Format   string `json:"format" yaml:"format"`
	Quality  int    `json:"quality" yaml:"quality"`
	Annotate bool   `json:"annotate" yaml:"annotate"`
}

// AnalysisConfig holds configuration for the analysis pipeline
type AnalysisConfig struct {
	Workers      int `json:"workers" yaml:"workers"`
	MinImageSize int `json:"min_image_size" yaml:"min_image_size"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Scoring: ScoringConfig{
			DefaultPercent: 95,
		},
		Detection: DetectionConfig{
			Backend:       BackendNone,
			Model:         "openbmb/minicpm-v4.5",
			MinAreaRatio:  0.1,
			MinConfidence: 0.5,
			SendFormat:    "jpg",
			SendSize:      1024,
			SendQuality:   85,
		},
		Color: ColorConfig{
			Clusters:   3,
			Iterations: 20,
			SampleSize: 64,
		},
		Output: OutputConfig{
			Dir:      "./output",
			Format:   "jpg",
			Quality:  90,
			Annotate: true,
		},
		Analysis: AnalysisConfig{
			Workers:      9,
			MinImageSize: 30,
		},
	}
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

// LoadFromFile loads configuration from a YAML or JSON file. Keys absent from
// the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isJSON(filename) {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as JSON or YAML depending on the extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isJSON(filename) {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Scoring.DefaultPercent <= 0 || c.Scoring.DefaultPercent > 100 {
		return fmt.Errorf("scoring.default_percent must be in (0, 100]")
	}

	switch c.Detection.Backend {
	case BackendNone, BackendOllama, BackendLlamaCpp:
	default:
		return fmt.Errorf("detection.backend must be one of none, ollama, llamacpp")
	}

	if c.Detection.MinAreaRatio < 0 || c.Detection.MinAreaRatio > 1 {
		return fmt.Errorf("detection.min_area_ratio must be between 0 and 1")
	}

	if c.Detection.MinConfidence < 0 || c.Detection.MinConfidence > 1 {
		return fmt.Errorf("detection.min_confidence must be between 0 and 1")
	}

	if c.Detection.SendQuality < 1 || c.Detection.SendQuality > 100 {
		return fmt.Errorf("detection.send_quality must be between 1 and 100")
	}

	if c.Color.Clusters < 1 {
		return fmt.Errorf("color.clusters must be positive")
	}

	if c.Color.Iterations < 1 {
		return fmt.Errorf("color.iterations must be positive")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be positive")
	}

	if c.Analysis.MinImageSize < 3 {
		return fmt.Errorf("analysis.min_image_size must be at least 3")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "wuxing-analyzer", "config.yaml")
}
