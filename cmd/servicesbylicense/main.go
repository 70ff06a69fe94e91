// cmd/servicesbylicense/main.go - compare which service plans each matching license includes.

package main

import (
	"os"

	"github.com/windowsadmins/adminkit/pkg/cli"
	"github.com/windowsadmins/adminkit/pkg/licensing"
)

func main() {
	os.Exit(cli.NewMatrixTool("servicesbylicense", licensing.ServiceRows).Run(cli.Args(), os.Stdout))
}
