package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestExpand(t *testing.T) {
	t.Setenv("CFG_TEST_SET", "value")
	t.Setenv("CFG_TEST_EMPTY", "")

	assert.Equal(t, "value", Expand("${CFG_TEST_SET}"))
	assert.Equal(t, "value", Expand("$CFG_TEST_SET"))
	assert.Equal(t, "value", Expand("${CFG_TEST_SET:-other}"))
	assert.Equal(t, "other", Expand("${CFG_TEST_EMPTY:-other}"))
	assert.Equal(t, "8080", Expand("${CFG_TEST_UNSET_VAR:-8080}"))
	assert.Equal(t, "", Expand("${CFG_TEST_UNSET_VAR}"))
}

func TestLoad_ExpandsAndValidates(t *testing.T) {
	t.Setenv("CFG_TEST_NAME", "synergy")
	p := writeFile(t, "name: ${CFG_TEST_NAME}\nport: ${CFG_TEST_PORT:-9000}\n")

	var s sample
	require.NoError(t, Load(p, &s))
	assert.Equal(t, sample{Name: "synergy", Port: 9000}, s)
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "name: x\n")
	var s sample
	err := Load(p, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port is required")
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	require.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &s))
}

func TestLoadWithDefaults(t *testing.T) {
	fallback := writeFile(t, "port: 7000\n")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	var s sample
	require.NoError(t, LoadWithDefaults(missing, fallback, &s))
	assert.Equal(t, 7000, s.Port)

	preset := sample{Port: 1234}
	require.NoError(t, LoadWithDefaults(missing, "", &preset))
	assert.Equal(t, 1234, preset.Port, "defaults survive when no file exists")

	var empty sample
	require.Error(t, LoadWithDefaults(missing, "", &empty))
}
