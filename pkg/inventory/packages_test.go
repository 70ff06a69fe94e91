package inventory

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackages(t *testing.T) {
	data := []byte(`[
		{"Name":"Microsoft.WindowsTerminal","Version":"1.18.2822.0","Publisher":"CN=Microsoft Corporation","PackageFullName":"Microsoft.WindowsTerminal_1.18.2822.0_x64__8wekyb3d8bbwe","IsFramework":false},
		{"Name":"Microsoft.VCLibs.140.00","Version":"14.0.32530.0","Publisher":"CN=Microsoft Corporation","PackageFullName":"Microsoft.VCLibs.140.00_14.0.32530.0_x64__8wekyb3d8bbwe","IsFramework":true},
		{"Name":"Microsoft.Todos","Version":"2.100.62351.0","Publisher":"CN=Microsoft Corporation","PackageFullName":"Microsoft.Todos_2.100.62351.0_x64__8wekyb3d8bbwe","IsFramework":false}
	]`)
	pkgs, err := parsePackages(data)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)
	assert.Equal(t, "Microsoft.Todos", pkgs[0].Name)
	assert.Equal(t, "Microsoft.VCLibs.140.00", pkgs[1].Name)
	assert.True(t, pkgs[1].IsFramework)

	visible := FilterPackages(pkgs, "", false)
	assert.Len(t, visible, 2)
	assert.Len(t, FilterPackages(pkgs, "", true), 3)
	assert.Equal(t, []Package{pkgs[2]}, FilterPackages(pkgs, "terminal", false))

	rows := PackageRows(visible)
	assert.Equal(t, []string{"Microsoft.Todos", "2.100.62351.0", "CN=Microsoft Corporation", "Microsoft.Todos_2.100.62351.0_x64__8wekyb3d8bbwe"}, rows[0])
	assert.Len(t, PackageHeader, len(rows[0]))
}

func TestParsePackagesSingleObject(t *testing.T) {
	pkgs, err := parsePackages([]byte(`{"Name":"Only.One","Version":"1.0.0.0"}`))
	require.NoError(t, err)
	assert.Equal(t, []Package{{Name: "Only.One", Version: "1.0.0.0"}}, pkgs)
}

func TestParsePackagesEmptyAndInvalid(t *testing.T) {
	pkgs, err := parsePackages([]byte("  \r\n"))
	require.NoError(t, err)
	assert.Empty(t, pkgs)

	_, err = parsePackages([]byte("[{"))
	assert.Error(t, err)
}

func TestPackagesUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Get-AppxPackage is available")
	}
	_, err := Packages(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}
