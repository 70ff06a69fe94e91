package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/adminkit/pkg/cli"
	"github.com/windowsadmins/adminkit/pkg/utils"
)

const nuspec = `<package><metadata><id>Contoso.Agent</id><version>4.2.1</version><title>Contoso Agent</title><authors>Contoso IT</authors></metadata></package>`

// setup writes a configuration that keeps logs and exports in a temporary
// directory, plus a small .nupkg to inspect.
func setup(t *testing.T) (configPath, exportDir, nupkg string) {
	t.Helper()
	dir := t.TempDir()
	exportDir = filepath.Join(dir, "exports")
	configPath = filepath.Join(dir, "Config.yaml")
	cfg := fmt.Sprintf("LogPath: %q\nExportPath: %q\n", filepath.Join(dir, "logs"), exportDir)
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))

	nupkg = filepath.Join(dir, "Contoso.Agent.4.2.1.nupkg")
	f, err := os.Create(nupkg)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("Contoso.Agent.nuspec")
	require.NoError(t, err)
	_, err = w.Write([]byte(nuspec))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return configPath, exportDir, nupkg
}

func TestInspectFile(t *testing.T) {
	configPath, exportDir, nupkg := setup(t)

	var stdout bytes.Buffer
	code := run([]string{"--config", configPath, "--file", nupkg, "-o", "agent.csv"}, &stdout)
	require.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stdout.String(), "Contoso Agent")
	assert.Contains(t, stdout.String(), "4.2.1")

	data, err := os.ReadFile(filepath.Join(exportDir, "agent.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Item,Value\n"))
	assert.Contains(t, string(data), "Identifier,Contoso.Agent\n")
}

func TestInspectFileHashCheck(t *testing.T) {
	configPath, _, nupkg := setup(t)
	sum, _, err := utils.FileSHA256(nupkg)
	require.NoError(t, err)

	var stdout bytes.Buffer
	code := run([]string{"--config", configPath, "--file", nupkg, "--sha256", strings.ToUpper(sum)}, &stdout)
	assert.Equal(t, cli.ExitOK, code)

	stdout.Reset()
	code = run([]string{"--config", configPath, "--file", nupkg, "--sha256", strings.Repeat("0", 64)}, &stdout)
	assert.Equal(t, cli.ExitError, code)
	assert.Empty(t, stdout.String())
}

func TestDispatchAndExitCodes(t *testing.T) {
	configPath, _, nupkg := setup(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{name: "unknown flag", args: []string{"--bogus"}, code: cli.ExitUsage},
		{name: "help", args: []string{"--help"}, code: cli.ExitOK},
		{name: "version", args: []string{"--version"}, code: cli.ExitOK},
		{name: "hash without file", args: []string{"--config", configPath, "--sha256", "abc"}, code: cli.ExitUsage},
		{name: "missing file", args: []string{"--config", configPath, "--file", nupkg + ".absent"}, code: cli.ExitError},
		{name: "unsupported file", args: []string{"--config", configPath, "--file", configPath}, code: cli.ExitError},
	}
	if runtime.GOOS != "windows" {
		tests = append(tests,
			struct {
				name string
				args []string
				code int
			}{name: "applications need the registry", args: []string{"--config", configPath}, code: cli.ExitError},
		)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			assert.Equal(t, tt.code, run(tt.args, &stdout))
		})
	}
}
