package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"labmerge/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labmerge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Paths.OutputDir != "Merged" || cfg.Paths.ReportDir != "." {
		t.Errorf("unexpected paths: %+v", cfg.Paths)
	}
	if cfg.Merge.ReportInterval != time.Minute || cfg.Merge.SourceInterval != time.Second {
		t.Errorf("unexpected cadences: %+v", cfg.Merge)
	}
	if cfg.Validation.Threshold != 0.1 || len(cfg.Validation.Columns) != 4 {
		t.Errorf("unexpected validation settings: %+v", cfg.Validation)
	}
	if cfg.Paths.Ledger != "" {
		t.Errorf("ledger should be off by default, got %q", cfg.Paths.Ledger)
	}
	if cfg.Merge.Tolerance != 0 {
		t.Errorf("as-of matches should be unbounded by default, got %v", cfg.Merge.Tolerance)
	}
}

func TestNewValidatorRegistersExperimentID(t *testing.T) {
	v, err := newValidator()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Var("C1R2", "experiment_id"); err != nil {
		t.Errorf("C1R2 should be accepted: %v", err)
	}
	if err := v.Var("../C1", "experiment_id"); err == nil {
		t.Error("../C1 should be rejected")
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
paths:
  input_dir: data/in
  ledger: runs.db
batch:
  end: 12
  exclude: [C4, C9]
merge:
  report_interval: 30s
  collision_policy: error
validation:
  threshold: 0.25
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Paths.InputDir != "data/in" || cfg.Paths.OutputDir != "Merged" {
		t.Errorf("file should overlay defaults, got %+v", cfg.Paths)
	}
	if cfg.Batch.End != 12 || cfg.Batch.Start != 2 || len(cfg.Batch.Exclude) != 2 {
		t.Errorf("unexpected batch: %+v", cfg.Batch)
	}
	if cfg.Merge.ReportInterval != 30*time.Second || cfg.Merge.CollisionPolicy != "error" {
		t.Errorf("unexpected merge: %+v", cfg.Merge)
	}
	if cfg.Validation.Threshold != 0.25 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected validation/log level: %+v %s", cfg.Validation, cfg.LogLevel)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"policy", "merge:\n  collision_policy: merge\n", "merge.collision_policy"},
		{"range", "batch:\n  start: 10\n  end: 3\n", "batch.end"},
		{"threshold", "validation:\n  threshold: 0\n", "validation.threshold"},
		{"experiment id", "batch:\n  extra: [\"../C1\"]\n", "batch.extra"},
		{"cadence", "merge:\n  report_interval: 1s\n", "merge.report_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("expected %s, got %s", errors.CodeConfigInvalid, errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "pahts:\n  input_dir: x\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if errors.GetCode(err) != errors.CodeConfigInvalid {
		t.Errorf("expected %s, got %s", errors.CodeConfigInvalid, errors.GetCode(err))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if errors.GetCode(err) != errors.CodeIOError {
		t.Errorf("expected %s, got %v", errors.CodeIOError, err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "")); err != nil {
		t.Errorf("empty file should keep defaults: %v", err)
	}
}
