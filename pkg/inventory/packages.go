package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
)

// execCommand is abstracted for testing
var execCommand = exec.CommandContext

const appxScript = `Get-AppxPackage | Select-Object Name, Version, Publisher, PackageFullName, InstallLocation, IsFramework | ConvertTo-Json -Compress`

// Package is an installed Appx/MSIX package.
type Package struct {
	Name            string `json:"Name" yaml:"name"`
	Version         string `json:"Version" yaml:"version"`
	Publisher       string `json:"Publisher" yaml:"publisher"`
	PackageFullName string `json:"PackageFullName" yaml:"package_full_name"`
	InstallLocation string `json:"InstallLocation" yaml:"install_location,omitempty"`
	IsFramework     bool   `json:"IsFramework" yaml:"is_framework"`
}

// Packages lists Appx packages for the current user via PowerShell.
func Packages(ctx context.Context) ([]Package, error) {
	if runtime.GOOS != "windows" {
		return nil, ErrUnsupported
	}
	out, err := execCommand(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", appxScript).Output()
	if err != nil {
		return nil, fmt.Errorf("running Get-AppxPackage: %w", err)
	}
	return parsePackages(out)
}

// parsePackages accepts ConvertTo-Json output, which is a bare object when
// exactly one package exists.
func parsePackages(data []byte) ([]Package, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var pkgs []Package
	if data[0] == '{' {
		var p Package
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing package list: %w", err)
		}
		pkgs = []Package{p}
	} else if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("parsing package list: %w", err)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		return strings.ToLower(pkgs[i].Name) < strings.ToLower(pkgs[j].Name)
	})
	return pkgs, nil
}

// FilterPackages keeps packages whose name contains term, case-insensitive.
// Framework packages are dropped unless includeFrameworks is set.
func FilterPackages(pkgs []Package, term string, includeFrameworks bool) []Package {
	needle := strings.ToLower(term)
	var out []Package
	for _, p := range pkgs {
		if p.IsFramework && !includeFrameworks {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PackageHeader is the column order used by PackageRows.
var PackageHeader = []string{"Name", "Version", "Publisher", "Full name"}

// PackageRows flattens packages for output.
func PackageRows(pkgs []Package) [][]string {
	rows := make([][]string, 0, len(pkgs))
	for _, p := range pkgs {
		rows = append(rows, []string{p.Name, p.Version, p.Publisher, p.PackageFullName})
	}
	return rows
}
