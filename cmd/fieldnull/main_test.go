package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromDaniel/fieldnull/internal/config"
)

const dump = "INSERT INTO vehiculos VALUES (1, 'ABC', 'a1b2c3d4-e5f6-7890-abcd-ef1234567890', 'Engineering'), (2, 'XYZ', null, 'Sales');\n"
const fixed = "INSERT INTO vehiculos VALUES (1, 'ABC', NULL, 'Engineering'), (2, 'XYZ', NULL, 'Sales');\n"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeDump(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "vehiculos_inserts.sql")
	require.NoError(t, os.WriteFile(in, []byte(dump), 0o644))
	return in, filepath.Join(dir, "vehiculos_inserts_fixed.sql")
}

func TestFix(t *testing.T) {
	for _, extra := range [][]string{nil, {"--stream"}, {"--mode", "scan"}, {"-m", "escape-aware", "-s", "--buffer-size", "512"}} {
		t.Run(strings.Join(extra, " "), func(t *testing.T) {
			in, out := writeDump(t)
			code, stdout, stderr := runCLI(t, append([]string{"fix", "-i", in, "-o", out}, extra...)...)
			require.Equal(t, 0, code, stderr)
			assert.Equal(t, "Fixed SQL written to "+out+"\n", stdout)

			got, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Equal(t, fixed, string(got))
		})
	}
}

func TestFixConfigFile(t *testing.T) {
	in, out := writeDump(t)
	cfg := config.DefaultConfig()
	cfg.Input = in
	cfg.Output = filepath.Join(t.TempDir(), "ignored.sql")
	cfg.Template = ", NULL /* was driver */, $department)"
	path := filepath.Join(t.TempDir(), "fieldnull.json")
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	// -o overrides the file
	code, stdout, stderr := runCLI(t, "fix", "--config", path, "-o", out)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, out)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(got), "(1, 'ABC', NULL /* was driver */, 'Engineering')")
	assert.NoFileExists(t, cfg.Output)
}

func TestFixLogging(t *testing.T) {
	in, out := writeDump(t)
	code, _, stderr := runCLI(t, "fix", "-i", in, "-o", out, "--log-format", "json", "--log-level", "debug", "-v")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, `"msg":"dump rewritten"`)
	assert.Contains(t, stderr, `"tuples":2`)
}

func TestFixErrors(t *testing.T) {
	in, out := writeDump(t)
	tests := []struct {
		name    string
		args    []string
		code    int
		message string
	}{
		{"missing input file", []string{"fix", "-i", filepath.Join(t.TempDir(), "nope.sql"), "-o", out}, 1, "input not found"},
		{"no input", []string{"fix", "-o", out}, 1, "input location is required"},
		{"same file", []string{"fix", "-i", in, "-o", in}, 1, "must differ"},
		{"bad mode", []string{"fix", "-i", in, "-o", out, "--mode", "fuzzy"}, 1, "unknown match mode"},
		{"bad template", []string{"fix", "-i", in, "-o", out, "-t", "$driver"}, 1, "unknown group"},
		{"small buffer", []string{"fix", "-i", in, "-o", out, "--buffer-size", "8"}, 1, "too small"},
		{"missing config", []string{"fix", "-c", filepath.Join(t.TempDir(), "none.json")}, 1, "failed to read config file"},
		{"extra args", []string{"fix", "-i", in, "-o", out, "more"}, 1, "unexpected arguments"},
		{"unknown flag", []string{"fix", "--colour"}, 2, "unknown flag"},
		{"no command", nil, 2, "command"},
		{"unknown command", []string{"repair"}, 2, "repair"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.message)
		})
	}
}

func TestHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "fix", "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--input")
	assert.Contains(t, stdout, "--apply-dsn")
}

func TestGenerate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nullids.go")
	code, stdout, stderr := runCLI(t, "generate", "-n", "NullDriverIDs", "-p", "fixtures", "-o", out, "--test-input", "(1, null, 'HR')")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Generated "+out)

	src, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(src), "func NullDriverIDs(src string) string")
	assert.FileExists(t, filepath.Join(filepath.Dir(out), "nullids_test.go"))

	code, _, _ = runCLI(t, "generate", "-o", out)
	assert.Equal(t, 2, code)
}
