// cmd/licensesbyservice/main.go - compare which licenses include each matching service plan.

package main

import (
	"os"

	"github.com/windowsadmins/adminkit/pkg/cli"
	"github.com/windowsadmins/adminkit/pkg/licensing"
)

func main() {
	os.Exit(cli.NewMatrixTool("licensesbyservice", licensing.LicenseRows).Run(cli.Args(), os.Stdout))
}
