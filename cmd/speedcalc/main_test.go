package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCapture(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestReferenceValue(t *testing.T) {
	code, out, _ := runCapture("-model", "exponential", "-distance", "10", "-time", "2", "-angle", "0", "-k", "0.05")
	require.Equal(t, 0, code)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "6.487 m/s", lines[0])
	assert.Equal(t, "23.35 km/h", lines[1])
	assert.Equal(t, "14.51 mph", lines[2])
	assert.Contains(t, out, "k = 0.05 1/m")
}

func TestLinear(t *testing.T) {
	code, out, _ := runCapture("-model", "linear", "-distance", "10", "-time", "2", "-angle", "60")
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "10.000 m/s\n"), out)
}

func TestJSONOutput(t *testing.T) {
	code, out, _ := runCapture("-json", "-distance", "10", "-time", "2", "-k", "0.05")
	require.Equal(t, 0, code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "exponential", got["model"])
	assert.Equal(t, "6.487 m/s", got["mps_text"])
	assert.InDelta(t, 6.4872, got["mps"], 1e-4)
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"zero time", []string{"-time", "0"}, 1, "time must be > 0"},
		{"zero drag", []string{"-k", "0"}, 1, "drag constant must be non-zero"},
		{"zero drag ignored by linear", []string{"-model", "linear", "-k", "0"}, 0, ""},
		{"unknown model", []string{"-model", "cubic"}, 2, "unknown model"},
		{"bad flag", []string{"-speed", "3"}, 2, "flag provided but not defined"},
		{"missing config", []string{"-config", "nope.json"}, 1, "failed to stat config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCapture(tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, errOut, tt.msg)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"default_model":"linear","default_distance_m":12,"default_time_s":3}`), 0o644))

	code, out, _ := runCapture("-config", path)
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "4.000 m/s\n"), out)
}
