package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	if err := DefaultSettings().validate("default"); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestParseSettingsOverridesDefaults(t *testing.T) {
	yaml := `
runner: parity
population: 20
generations: 5
seed: 42
timeout: 250ms
survival:
  survivors: 0.2
genes:
  list_lengths: [0, 1]
types:
  concrete:
    - type: FixNum
      weight: 3
output:
  archive: run.db
`
	s, err := ParseSettings([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DefaultSettings()
	want.Runner = "parity"
	want.Population = 20
	want.Generations = 5
	want.Seed = 42
	want.Timeout = 250 * time.Millisecond
	want.Survival.Survivors = 0.2
	want.Genes.ListLengths = []int{0, 1}
	want.Types.Concrete = []TypeWeight{{Type: "FixNum", Weight: 3}}
	want.Output.Archive = "run.db"
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "population: [", "parsing"},
		{"population", "population: 0", "population must be positive"},
		{"probability", "mutation:\n  seed: 1.5", "mutation.seed"},
		{"survival sum", "survival:\n  survivors: 0.5\n  mutated_survivors: 0.6", "add up"},
		{"weights", "genes:\n  list_lengths: [0, 0]", "genes.list_lengths"},
		{"empty genome", "genes:\n  genome_sizes: [1, 1]", "at least one chromosome"},
		{"fixnum range", "genes:\n  fixnum_ranges:\n    - {min: 5, max: 1, weight: 1}", "fixnum_ranges[0]"},
		{"concrete", "types:\n  concrete:\n    - {type: '', weight: 1}", "types.concrete[0]"},
		{"build", "genes:\n  build: {construct: 0, lookup: 0}", "construct or lookup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatalf("expected an error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipevo.yaml")
	data, err := DefaultSettings().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if diff := cmp.Diff(DefaultSettings(), s); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadSettings(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
