// pkg/cli/cli.go - flags and start-up shared by every tool.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/windowsadmins/adminkit/pkg/config"
	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/output"
	"github.com/windowsadmins/adminkit/pkg/utils"
	"github.com/windowsadmins/adminkit/pkg/version"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Common holds the flags every tool accepts.
type Common struct {
	Name       string
	ConfigPath string
	Export     string
	Verbosity  int
	Debug      bool
	Version    bool
	Flags      *pflag.FlagSet

	Config  *config.Configuration
	Console *logging.Console
}

// NewCommon registers the shared flags on a new flag set for tool name.
func NewCommon(name, usage string) *Common {
	c := &Common{Name: name, Flags: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	c.Flags.StringVar(&c.ConfigPath, "config", config.ConfigPath, "Path to the YAML configuration file.")
	c.Flags.StringVarP(&c.Export, "export", "o", "", "Write results to this file (.csv, .tsv or .yaml) instead of only displaying them.")
	c.Flags.CountVarP(&c.Verbosity, "verbose", "v", "Increase verbosity (e.g. -v, -vv).")
	c.Flags.BoolVar(&c.Debug, "debug", false, "Log at DEBUG level and echo the log to the console.")
	c.Flags.BoolVar(&c.Version, "version", false, "Print the version and exit.")
	c.Flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s\n\n", name, usage)
		c.Flags.PrintDefaults()
	}
	return c
}

// Parse parses args, handles --version and loads configuration and logging.
// done reports that the tool should exit with code without doing more work.
func (c *Common) Parse(args []string) (code int, done bool) {
	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitOK, true
		}
		fmt.Fprintln(os.Stderr, err)
		return ExitUsage, true
	}
	if c.Version {
		if c.Verbosity > 0 {
			version.PrintFull(os.Stdout, c.Name)
		} else {
			version.Print(os.Stdout, c.Name)
		}
		return ExitOK, true
	}

	c.Console = logging.New(c.Verbosity > 0 || c.Debug)
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		c.Console.Error("Failed to load configuration: %v", err)
		return ExitError, true
	}
	cfg.Verbose = c.Verbosity > 0 || c.Debug
	cfg.Debug = c.Debug
	c.Config = cfg
	if err := logging.Init(cfg, c.Name, c.Verbosity); err != nil {
		c.Console.Warning("File logging unavailable, continuing with console only: %v", err)
	}
	logging.Debug("Starting", "tool", c.Name, "version", version.Version().Version,
		"config", c.ConfigPath, "session", logging.SessionID())
	return ExitOK, false
}

// Context returns a context cancelled on interrupt.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ExportPath resolves a bare file name against the configured export directory.
func (c *Common) ExportPath() string {
	if c.Export == "" || filepath.IsAbs(c.Export) || filepath.Dir(c.Export) != "." {
		return c.Export
	}
	return filepath.Join(c.Config.ExportPath, c.Export)
}

// WriteExport writes doc as YAML, or header and rows as CSV/TSV, depending on
// the extension of path.
func WriteExport(path string, header []string, rows [][]string, doc interface{}) error {
	format := output.FormatFor(path)
	if format == output.FormatYAML {
		return output.WriteYAML(path, doc)
	}
	return output.WriteDelimited(path, header, rows, format.Separator())
}

// Exported writes the export file when --export was given.
func (c *Common) Exported(header []string, rows [][]string, doc interface{}) error {
	path := c.ExportPath()
	if path == "" {
		return nil
	}
	if err := WriteExport(path, header, rows, doc); err != nil {
		return err
	}
	logging.Info("Exported results", "path", path, "rows", len(rows))
	c.Console.Success("Exported to %s", path)
	return nil
}

// Fail logs err, points the operator at the session log and returns ExitError.
func (c *Common) Fail(msg string, err error) int {
	logging.Error(msg, "error", err)
	c.Console.Error("%s: %v", msg, err)
	if dir := logging.CurrentLogDir(); dir != "" {
		c.Console.Printf("Session log: %s", dir)
	}
	return ExitError
}

// Args returns os.Args[1:] after repairing Windows quoting.
func Args() []string {
	utils.PatchWindowsArgs()
	return os.Args[1:]
}
