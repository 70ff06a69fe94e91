package inventory

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleApps() []App {
	return []App{
		{Name: "Mozilla Firefox", Version: "118.0.2", Publisher: "Mozilla", Scope: ScopeMachine},
		{Name: "7-Zip 23.01 (x64)", Version: "23.01", Publisher: "Igor Pavlov", Scope: ScopeMachine},
		{Name: "Microsoft Teams", Version: "1.6.0.18681", Publisher: "Microsoft Corporation", Scope: ScopeUser},
		{Name: "microsoft teams", Version: "1.7.0.1864", Publisher: "Microsoft Corporation", Scope: ScopeMachine32},
		{Name: "Legacy Tool", Version: "build-final", Publisher: "Contoso", Scope: ScopeMachine},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "empty query keeps all", query: Query{}, want: []string{"Mozilla Firefox", "7-Zip 23.01 (x64)", "Microsoft Teams", "microsoft teams", "Legacy Tool"}},
		{name: "name substring", query: Query{Name: "TEAMS"}, want: []string{"Microsoft Teams", "microsoft teams"}},
		{name: "publisher", query: Query{Publisher: "pavlov"}, want: []string{"7-Zip 23.01 (x64)"}},
		{name: "minimum version", query: Query{Name: "teams", MinVersion: "1.7"}, want: []string{"microsoft teams"}},
		{name: "unparseable never satisfies minimum", query: Query{Name: "legacy", MinVersion: "0.1"}, want: nil},
		{name: "literal text", query: Query{Name: "(x64)"}, want: []string{"7-Zip 23.01 (x64)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(sampleApps(), tt.query)
			require.NoError(t, err)
			var names []string
			for _, a := range got {
				names = append(names, a.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterInvalidMinVersion(t *testing.T) {
	_, err := Filter(sampleApps(), Query{MinVersion: "not a version"})
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	apps := Dedupe(sampleApps())
	require.Len(t, apps, 4)

	assert.Equal(t, "7-Zip 23.01 (x64)", apps[0].Name)
	assert.Equal(t, "Legacy Tool", apps[1].Name)
	assert.Equal(t, "microsoft teams", apps[2].Name)
	assert.Equal(t, "1.7.0.1864", apps[2].Version)
	assert.Equal(t, ScopeMachine32, apps[2].Scope)
	assert.Equal(t, "Mozilla Firefox", apps[3].Name)
}

func TestSort(t *testing.T) {
	apps := []App{
		{Name: "B", Version: "2.0"},
		{Name: "a", Version: "10.0"},
		{Name: "A", Version: "9.0"},
		{Name: "a", Version: "unknown"},
	}
	Sort(apps)
	assert.Equal(t, []App{
		{Name: "a", Version: "unknown"},
		{Name: "A", Version: "9.0"},
		{Name: "a", Version: "10.0"},
		{Name: "B", Version: "2.0"},
	}, apps)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 1, compareVersions("10.0", "9.9"))
	assert.Equal(t, -1, compareVersions("1.2.3", "1.10"))
	assert.Equal(t, 0, compareVersions("1.0", "1.0.0"))
	assert.Equal(t, 1, compareVersions("1.0", "final"))
	assert.Equal(t, -1, compareVersions("", "0.1"))
	assert.Equal(t, -1, compareVersions("alpha", "beta"))
}

func TestRows(t *testing.T) {
	rows := Rows([]App{{Name: "Git", Version: "2.42.0", Publisher: "The Git Development Community", Scope: ScopeMachine, InstallDate: "20231002"}})
	assert.Equal(t, [][]string{{"Git", "2.42.0", "The Git Development Community", "machine", "20231002"}}, rows)
	assert.Len(t, Header, len(rows[0]))
}

func TestInstalledAppsUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("registry is available")
	}
	_, err := InstalledApps(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}
