// pkg/version/version.go - build information injected with -ldflags.

package version

import (
	"fmt"
	"io"
)

// These values are private which ensures they can only be set with the build flags.
var (
	version   = "dev"
	branch    = "unknown"
	revision  = "unknown"
	goVersion = "unknown"
	buildDate = "unknown"
)

// Info is a structure with version build information about the current application.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Branch    string `json:"branch" yaml:"branch"`
	Revision  string `json:"revision" yaml:"revision"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

// Version returns a structure with the current version information.
func Version() Info {
	return Info{
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		GoVersion: goVersion,
		BuildDate: buildDate,
	}
}

// Print writes the tool name and version.
func Print(w io.Writer, appName string) {
	fmt.Fprintf(w, "%s %s\n", appName, version)
}

// PrintFull writes the tool name and detailed build information.
func PrintFull(w io.Writer, appName string) {
	v := Version()
	fmt.Fprintf(w, "%s %s\n", appName, v.Version)
	fmt.Fprintf(w, "  branch: \t%s\n", v.Branch)
	fmt.Fprintf(w, "  revision: \t%s\n", v.Revision)
	fmt.Fprintf(w, "  build date: \t%s\n", v.BuildDate)
	fmt.Fprintf(w, "  go version: \t%s\n", v.GoVersion)
}
