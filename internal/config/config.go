package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"labmerge/adapters/excel"
	"labmerge/internal/errors"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths      PathConfig        `yaml:"paths"`
	Batch      BatchConfig       `yaml:"batch"`
	Merge      MergeConfig       `yaml:"merge"`
	Validation ValidationConfig  `yaml:"validation"`
	Excel      excel.ExcelConfig `yaml:"excel"`
	LogLevel   string            `yaml:"log_level" validate:"oneof=error warn info debug trace"`
}

// PathConfig holds file system paths
type PathConfig struct {
	InputDir  string `yaml:"input_dir" validate:"required"`
	OutputDir string `yaml:"output_dir" validate:"required"`
	ReportDir string `yaml:"report_dir" validate:"required"`
	// Ledger is the SQLite run ledger; empty disables it
	Ledger string `yaml:"ledger"`
}

// BatchConfig selects the experiments of a batch: Extra first, then
// <Prefix><Start>..<Prefix><End> without Exclude
type BatchConfig struct {
	Prefix  string   `yaml:"prefix" validate:"required,experiment_id"`
	Start   int      `yaml:"start" validate:"gte=0"`
	End     int      `yaml:"end" validate:"gtefield=Start"`
	Exclude []string `yaml:"exclude" validate:"dive,experiment_id"`
	Extra   []string `yaml:"extra" validate:"dive,experiment_id"`
}

// MergeConfig holds the alignment settings
type MergeConfig struct {
	SourceInterval  time.Duration `yaml:"source_interval" validate:"gt=0"`
	ReportInterval  time.Duration `yaml:"report_interval" validate:"gtfield=SourceInterval"`
	CollisionPolicy string        `yaml:"collision_policy" validate:"oneof=overwrite rename error"`
	DateMode        string        `yaml:"date_mode" validate:"oneof=spreadsheet origin"`
	// Tolerance bounds as-of matches in seconds; zero is unbounded
	Tolerance float64 `yaml:"tolerance" validate:"gte=0"`
}

// ValidationConfig holds the temperature spread check settings
type ValidationConfig struct {
	Threshold    float64  `yaml:"threshold" validate:"gt=0"`
	Columns      []string `yaml:"columns" validate:"min=2,dive,required"`
	ReportPrefix string   `yaml:"report_prefix" validate:"required"`
}

// Default returns the settings the pipeline has always run with
func Default() *Config {
	return &Config{
		Paths: PathConfig{
			InputDir:  "C_EXP_FORMATTED",
			OutputDir: "Merged",
			ReportDir: ".",
		},
		Batch: BatchConfig{
			Prefix:  "C",
			Start:   2,
			End:     30,
			Exclude: []string{"C4"},
			Extra:   []string{"C1R2"},
		},
		Merge: MergeConfig{
			SourceInterval:  time.Second,
			ReportInterval:  time.Minute,
			CollisionPolicy: "rename",
			DateMode:        "origin",
		},
		Validation: ValidationConfig{
			Threshold:    0.1,
			Columns:      []string{"Temp", "Temp_Blaze_Stats", "Temp_Blaze_LW_Dist", "Temp_Blaze_CW_Dist"},
			ReportPrefix: "ProblemRows_",
		},
		Excel:    excel.DefaultExcelConfig(),
		LogLevel: "info",
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any,
// and validates the result
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IOError(err, "failed to read config file %s", path)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("failed to parse %s: %w", path, err))
	}
	return nil
}

var validate = mustValidator()

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(err)
	}
	return v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("experiment_id", isExperimentID); err != nil {
		return nil, fmt.Errorf("registering experiment_id: %w", err)
	}

	// Use YAML key names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v, nil
}

// Validate checks every field against its constraints
func Validate(config *Config) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.ConfigInvalid(err.Error())
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe))
	}
	return errors.ConfigInvalid(strings.Join(messages, "; "))
}

func formatFieldError(err validator.FieldError) string {
	field := strings.TrimPrefix(err.Namespace(), "Config.")
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gtfield", "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, param)
	case "experiment_id":
		return fmt.Sprintf("%s must be a file-safe experiment identifier", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isExperimentID rejects identifiers that cannot name a workbook
func isExperimentID(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	return s != "" && !strings.ContainsAny(s, `/\`)
}
