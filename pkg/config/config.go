// Package config loads and validates the run configuration for a
// Bézier-curve fitting job: the JSON-serializable RunSpec consumed by
// internal/runner and populated either from a config file or from CLI
// flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// RunSpec holds the full configuration for one fitting run.
type RunSpec struct {
	InputFile  string `json:"input_file"`
	OutputFile string `json:"output_file"`
	ConfigFile string `json:"config_file"`

	NCP         int     `json:"n_cp"`
	Population  int     `json:"population"`
	Workers     int     `json:"workers"`
	F           float64 `json:"f"`
	CR          float64 `json:"cr"`
	Generations int     `json:"generations"`
	Rounds      int     `json:"rounds"`
	DomainLimit float64 `json:"domain_limit"`

	MigrationProbability float64 `json:"migration_probability"`

	// Seed seeds every DE solver/worker RNG and the migration RNG. Zero
	// means "derive from the current time" (runner.Fit does this); a
	// nonzero value makes a run fully reproducible.
	Seed int64 `json:"seed"`

	Verbose      bool `json:"verbose"`
	ShowProgress bool `json:"show_progress"`

	ConvergenceStops     int     `json:"convergence_stops"`
	ConvergenceTolerance float64 `json:"convergence_tolerance"`
}

// Default returns the configuration used by end-to-end scenario 1 of
// the specification.
func Default() RunSpec {
	return RunSpec{
		InputFile:            "",
		OutputFile:           "fitted_curve.svg",
		ConfigFile:           "",
		NCP:                  4,
		Population:           128,
		Workers:              1,
		F:                    0.8,
		CR:                   0.5,
		Generations:          200,
		Rounds:               1,
		DomainLimit:          128,
		MigrationProbability: 1.0,
		Seed:                 0,
		Verbose:              false,
		ShowProgress:         true,
		ConvergenceStops:     0,
		ConvergenceTolerance: 0.000001,
	}
}

// LoadFromFile loads a RunSpec from a JSON file, starting from Default
// so that a partial file only overrides the fields it sets.
func LoadFromFile(filename string) (RunSpec, error) {
	spec := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return spec, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("failed to parse config file: %w", err)
	}

	return spec, nil
}

// SaveToFile writes the RunSpec to filename as indented JSON.
func (r RunSpec) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ToJSON returns the RunSpec as an indented JSON string.
func (r RunSpec) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to JSON: %w", err)
	}

	return string(data), nil
}

// Validate rejects configurations the specification classifies as
// configuration errors: out-of-range n_cp, CR/F outside [0,1], a
// population not divisible by the worker count, and missing input.
func (r RunSpec) Validate() error {
	if r.InputFile == "" {
		return errors.New("input file is required")
	}

	if _, err := os.Stat(r.InputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", r.InputFile)
	}

	if r.NCP < 2 || r.NCP > 20 {
		return errors.New("n_cp must be between 2 and 20")
	}

	if r.Population < 10 {
		return errors.New("population must be at least 10")
	}

	if r.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	if r.Population%r.Workers != 0 {
		return fmt.Errorf("population %d must be divisible by workers %d", r.Population, r.Workers)
	}

	if r.Population/r.Workers < 5 {
		return errors.New("population per worker must be at least 5")
	}

	if r.F < 0 || r.F > 1 {
		return errors.New("F must be between 0 and 1")
	}

	if r.CR < 0 || r.CR > 1 {
		return errors.New("CR must be between 0 and 1")
	}

	if r.Generations <= 0 && r.ConvergenceStops == 0 {
		return errors.New("either generations or convergence stops must be set (not both zero)")
	}

	if r.Generations < 0 {
		return errors.New("generations must be non-negative")
	}

	if r.Rounds <= 0 {
		return errors.New("rounds must be positive")
	}

	if r.DomainLimit <= 0 {
		return errors.New("domain limit must be positive")
	}

	if r.MigrationProbability < 0 || r.MigrationProbability > 1 {
		return errors.New("migration probability must be between 0 and 1")
	}

	if r.ConvergenceStops < 0 {
		return errors.New("convergence stops must be non-negative")
	}

	if r.ConvergenceTolerance < 0 {
		return errors.New("convergence tolerance must be non-negative")
	}

	return nil
}
