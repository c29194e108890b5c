package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsInternallyConsistent(t *testing.T) {
	spec := Default()
	spec.InputFile = writeTempInput(t)

	require.NoError(t, spec.Validate())
}

func TestValidateRejectsIndivisiblePopulation(t *testing.T) {
	spec := Default()
	spec.InputFile = writeTempInput(t)
	spec.Population = 10
	spec.Workers = 3

	assert.Error(t, spec.Validate())
}

func TestValidateRejectsOutOfRangeRates(t *testing.T) {
	spec := Default()
	spec.InputFile = writeTempInput(t)
	spec.CR = 1.5

	assert.Error(t, spec.Validate())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	spec := Default()
	spec.InputFile = writeTempInput(t)
	spec.NCP = 6
	spec.Workers = 4

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, spec.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, spec.NCP, loaded.NCP)
	assert.Equal(t, spec.Workers, loaded.Workers)
}

func TestValidateAcceptsTwoControlPoints(t *testing.T) {
	spec := Default()
	spec.InputFile = writeTempInput(t)
	spec.NCP = 2

	assert.NoError(t, spec.Validate())
}

func TestValidateRequiresMissingInputFile(t *testing.T) {
	spec := Default()
	spec.InputFile = filepath.Join(t.TempDir(), "does-not-exist.svg")

	assert.Error(t, spec.Validate())
}

func writeTempInput(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.svg")
	require.NoError(t, os.WriteFile(path, []byte("<svg></svg>"), 0o644))

	return path
}
