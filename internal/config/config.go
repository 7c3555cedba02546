package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction" envconfig:"EXTRACTION"`
	Batch      BatchConfig      `yaml:"batch" envconfig:"BATCH"`
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ExtractionConfig describes where the report data lives inside a workbook
type ExtractionConfig struct {
	SheetName   string        `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`
	Extension   string        `yaml:"extension" envconfig:"EXTENSION" validate:"required,startswith=."`
	FirstColumn string        `yaml:"first_column" envconfig:"FIRST_COLUMN" validate:"required,alpha"`
	LastColumn  string        `yaml:"last_column" envconfig:"LAST_COLUMN" validate:"required,alpha"`
	Cooldown    time.Duration `yaml:"cooldown" envconfig:"COOLDOWN" validate:"min=0"`
}

// BatchConfig controls how a batch of files is processed
type BatchConfig struct {
	Attempts  int    `yaml:"attempts" envconfig:"ATTEMPTS" validate:"min=1"`
	Workers   int    `yaml:"workers" envconfig:"WORKERS" validate:"min=1"`
	Isolation string `yaml:"isolation" envconfig:"ISOLATION" validate:"oneof=process inprocess"`
	Period    string `yaml:"period" envconfig:"PERIOD" validate:"omitempty,period"`
}

// PathsConfig contains file system paths, relative to the working directory
type PathsConfig struct {
	InputDir       string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	DiagnosticsDir string `yaml:"diagnostics_dir" envconfig:"DIAGNOSTICS_DIR" validate:"required"`
	RunLogFile     string `yaml:"run_log_file" envconfig:"RUN_LOG_FILE" validate:"required"`
}

// OutputConfig selects the batch table writer
type OutputConfig struct {
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=xlsx csv"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig toggles tracing and the metrics endpoint
type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing" envconfig:"TRACING"`
	MetricsAddr string `yaml:"metrics_addr" envconfig:"METRICS_ADDR"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins).
func Load() (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes a few fields
func (c *Config) Validate() error {
	c.Extraction.FirstColumn = strings.ToUpper(c.Extraction.FirstColumn)
	c.Extraction.LastColumn = strings.ToUpper(c.Extraction.LastColumn)
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	v := validator.New()
	if err := v.RegisterValidation("period", isPeriod); err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is %q", c.Logging.Output)
	}
	return nil
}

// ReportingPeriod returns the configured period, or today's date formatted
// the same way when none is set.
func (c *Config) ReportingPeriod(now time.Time) string {
	if c.Batch.Period != "" {
		return c.Batch.Period
	}
	return now.Format(PeriodLayout)
}

func isPeriod(fl validator.FieldLevel) bool {
	_, err := time.Parse(PeriodLayout, fl.Field().String())
	return err == nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Namespace(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Namespace(), fe.Param())
	case "period":
		return fmt.Sprintf("%s must be a date formatted as DD/MM/YYYY", fe.Namespace())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			SheetName:   DefaultSheetName,
			Extension:   DefaultExtension,
			FirstColumn: DefaultFirstColumn,
			LastColumn:  DefaultLastColumn,
			Cooldown:    DefaultCooldown,
		},
		Batch: BatchConfig{
			Attempts:  DefaultAttempts,
			Workers:   DefaultWorkers,
			Isolation: IsolationProcess,
		},
		Paths: PathsConfig{
			InputDir:       "Files",
			OutputDir:      "ReturnFiles",
			DiagnosticsDir: "logs",
			RunLogFile:     "informativoLog.json",
		},
		Output: OutputConfig{
			Format: FormatXLSX,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/consolidator.log",
		},
	}
}
