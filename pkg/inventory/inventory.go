// pkg/inventory/inventory.go - installed applications and packages.

package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/windowsadmins/adminkit/pkg/logging"
)

// ErrUnsupported is returned where the platform has no application registry.
var ErrUnsupported = errors.New("application inventory is only available on Windows")

// Scope says where an application is registered.
type Scope string

const (
	ScopeMachine   Scope = "machine"
	ScopeMachine32 Scope = "machine-x86"
	ScopeUser      Scope = "user"
)

// App is one installed application from the Uninstall registry.
type App struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version,omitempty"`
	Publisher       string `yaml:"publisher,omitempty"`
	InstallDate     string `yaml:"install_date,omitempty"`
	InstallLocation string `yaml:"install_location,omitempty"`
	UninstallString string `yaml:"uninstall_string,omitempty"`
	Scope           Scope  `yaml:"scope"`
	Key             string `yaml:"key"`
}

// InstalledApps enumerates registered applications for the machine and the
// current user.
func InstalledApps(ctx context.Context) ([]App, error) {
	apps, err := installedApps(ctx)
	if err != nil {
		return nil, err
	}
	logging.Debug("Enumerated installed applications", "count", len(apps))
	return apps, nil
}

// Query narrows an application list. Zero fields match everything.
type Query struct {
	Name       string
	Publisher  string
	MinVersion string
}

// Filter returns apps matching q. Name and Publisher are literal,
// case-insensitive substrings. Apps with unparseable versions never satisfy
// MinVersion.
func Filter(apps []App, q Query) ([]App, error) {
	var min *version.Version
	if q.MinVersion != "" {
		v, err := version.NewVersion(q.MinVersion)
		if err != nil {
			return nil, err
		}
		min = v
	}
	name := strings.ToLower(q.Name)
	publisher := strings.ToLower(q.Publisher)

	var out []App
	for _, a := range apps {
		if name != "" && !strings.Contains(strings.ToLower(a.Name), name) {
			continue
		}
		if publisher != "" && !strings.Contains(strings.ToLower(a.Publisher), publisher) {
			continue
		}
		if min != nil {
			v, err := version.NewVersion(a.Version)
			if err != nil || v.LessThan(min) {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// Dedupe keeps one entry per name (case-insensitive), preferring the highest
// version. The result is sorted.
func Dedupe(apps []App) []App {
	best := make(map[string]App, len(apps))
	var order []string
	for _, a := range apps {
		key := strings.ToLower(a.Name)
		cur, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = a
			continue
		}
		if compareVersions(a.Version, cur.Version) > 0 {
			best[key] = a
		}
	}
	out := make([]App, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	Sort(out)
	return out
}

// Sort orders apps by name, then by ascending version.
func Sort(apps []App) {
	sort.SliceStable(apps, func(i, j int) bool {
		ni, nj := strings.ToLower(apps[i].Name), strings.ToLower(apps[j].Name)
		if ni != nj {
			return ni < nj
		}
		return compareVersions(apps[i].Version, apps[j].Version) < 0
	})
}

// compareVersions orders parseable versions semantically and falls back to
// string comparison. Parseable sorts above unparseable.
func compareVersions(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

// Header is the column order used by Rows.
var Header = []string{"Name", "Version", "Publisher", "Scope", "Install date"}

// Rows flattens apps for table or delimited output.
func Rows(apps []App) [][]string {
	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, []string{a.Name, a.Version, a.Publisher, string(a.Scope), a.InstallDate})
	}
	return rows
}
