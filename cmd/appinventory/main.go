// cmd/appinventory/main.go - list installed applications and packages, or
// inspect an installer file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/windowsadmins/adminkit/pkg/cli"
	"github.com/windowsadmins/adminkit/pkg/extract"
	"github.com/windowsadmins/adminkit/pkg/inventory"
	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/output"
	"github.com/windowsadmins/adminkit/pkg/utils"
)

type options struct {
	name              string
	publisher         string
	minVersion        string
	packages          bool
	includeFrameworks bool
	file              string
	sha256            string
	all               bool
}

func main() {
	os.Exit(run(cli.Args(), os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	tool := cli.NewCommon("appinventory", "[--name <text>] [--packages] [--file <installer>] [flags]")
	var opts options
	tool.Flags.StringVar(&opts.name, "name", "", "Only show applications whose name contains this text.")
	tool.Flags.StringVar(&opts.publisher, "publisher", "", "Only show applications whose publisher contains this text.")
	tool.Flags.StringVar(&opts.minVersion, "min-version", "", "Only show applications at or above this version.")
	tool.Flags.BoolVar(&opts.packages, "packages", false, "List Appx/MSIX packages instead of registered applications.")
	tool.Flags.BoolVar(&opts.includeFrameworks, "include-frameworks", false, "Include framework packages with --packages.")
	tool.Flags.StringVar(&opts.file, "file", "", "Inspect an installer (.msi, .exe, .nupkg) instead of listing applications.")
	tool.Flags.StringVar(&opts.sha256, "sha256", "", "Expected SHA256 of the --file installer; a mismatch fails.")
	tool.Flags.BoolVar(&opts.all, "all", false, "Show every registration instead of the newest version of each application.")
	if code, done := tool.Parse(args); done {
		return code
	}
	defer logging.CloseLogger()

	if opts.sha256 != "" && opts.file == "" {
		tool.Console.Error("--sha256 requires --file")
		return cli.ExitUsage
	}
	switch {
	case opts.file != "":
		return inspect(tool, opts, stdout)
	case opts.packages:
		return listPackages(tool, opts, stdout)
	default:
		return listApps(tool, opts, stdout)
	}
}

func inspect(tool *cli.Common, opts options, stdout io.Writer) int {
	path := opts.file
	md, err := extract.Inspect(path)
	if err != nil {
		return tool.Fail("Failed to inspect installer", err)
	}
	if opts.sha256 != "" {
		if !utils.VerifySHA256(path, opts.sha256) {
			return tool.Fail("Installer hash mismatch", fmt.Errorf("%s is %s, expected %s", path, md.SHA256, opts.sha256))
		}
		logging.Info("Installer hash verified", "file", path, "sha256", md.SHA256)
	}
	logging.Info("Inspected installer", "file", path, "type", md.Type, "version", md.Version)
	pairs := md.Pairs()
	if err := output.RenderPairs(stdout, pairs); err != nil {
		return tool.Fail("Failed to write report", err)
	}
	if err := tool.Exported(output.PairHeader, output.PairRows(pairs), md); err != nil {
		return tool.Fail("Failed to export metadata", err)
	}
	return cli.ExitOK
}

func listApps(tool *cli.Common, opts options, stdout io.Writer) int {
	ctx, cancel := cli.Context()
	defer cancel()

	apps, err := inventory.InstalledApps(ctx)
	if err != nil {
		return tool.Fail("Failed to enumerate installed applications", err)
	}
	apps, err = inventory.Filter(apps, inventory.Query{
		Name:       opts.name,
		Publisher:  opts.publisher,
		MinVersion: opts.minVersion,
	})
	if err != nil {
		tool.Console.Error("Invalid --min-version %q: %v", opts.minVersion, err)
		return cli.ExitUsage
	}
	if opts.all {
		inventory.Sort(apps)
	} else {
		apps = inventory.Dedupe(apps)
	}
	if len(apps) == 0 {
		tool.Console.Warning("No installed applications match.")
		return cli.ExitOK
	}
	logging.Info("Listed installed applications", "count", len(apps))

	rows := inventory.Rows(apps)
	if err := output.RenderList(stdout, inventory.Header, rows); err != nil {
		return tool.Fail("Failed to write table", err)
	}
	if err := tool.Exported(inventory.Header, rows, apps); err != nil {
		return tool.Fail("Failed to export applications", err)
	}
	return cli.ExitOK
}

func listPackages(tool *cli.Common, opts options, stdout io.Writer) int {
	ctx, cancel := cli.Context()
	defer cancel()

	pkgs, err := inventory.Packages(ctx)
	if err != nil {
		return tool.Fail("Failed to enumerate packages", err)
	}
	pkgs = inventory.FilterPackages(pkgs, opts.name, opts.includeFrameworks)
	if len(pkgs) == 0 {
		tool.Console.Warning("No packages match.")
		return cli.ExitOK
	}
	logging.Info("Listed packages", "count", len(pkgs))

	rows := inventory.PackageRows(pkgs)
	if err := output.RenderList(stdout, inventory.PackageHeader, rows); err != nil {
		return tool.Fail("Failed to write table", err)
	}
	if err := tool.Exported(inventory.PackageHeader, rows, pkgs); err != nil {
		return tool.Fail("Failed to export packages", err)
	}
	return cli.ExitOK
}
