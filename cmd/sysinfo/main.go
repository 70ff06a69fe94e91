// cmd/sysinfo/main.go - show a local system diagnostics snapshot.

package main

import (
	"os"

	"github.com/windowsadmins/adminkit/pkg/cli"
	"github.com/windowsadmins/adminkit/pkg/logging"
	"github.com/windowsadmins/adminkit/pkg/output"
	"github.com/windowsadmins/adminkit/pkg/sysinfo"
)

func main() {
	os.Exit(run(cli.Args()))
}

func run(args []string) int {
	tool := cli.NewCommon("sysinfo", "[flags]")
	if code, done := tool.Parse(args); done {
		return code
	}
	defer logging.CloseLogger()

	ctx, cancel := cli.Context()
	defer cancel()

	snap, err := sysinfo.Collect(ctx)
	if err != nil {
		return tool.Fail("Failed to collect system information", err)
	}
	for _, w := range snap.Warnings {
		tool.Console.Warning("%s", w)
	}

	pairs := snap.Pairs()
	if err := output.RenderPairs(os.Stdout, pairs); err != nil {
		return tool.Fail("Failed to write report", err)
	}

	if err := tool.Exported(output.PairHeader, output.PairRows(pairs), snap); err != nil {
		return tool.Fail("Failed to export report", err)
	}
	return cli.ExitOK
}
