// pkg/extract/msi.go - functions for extracting metadata from MSI files.

package extract

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// execCommand is abstracted for testing
var execCommand = exec.Command

// msiPropertyScript reads the Property table through the Windows Installer COM object.
const msiPropertyScript = `
$msi = $env:ADMINKIT_MSI
$WindowsInstaller = New-Object -ComObject WindowsInstaller.Installer
$db = $WindowsInstaller.OpenDatabase($msi,0)
$view = $db.OpenView('SELECT * FROM Property')
$view.Execute()

$pairs = @{}
while($rec = $view.Fetch()) {
    $pairs[$rec.StringData(1)] = $rec.StringData(2)
}
[PSCustomObject]@{
  ProductName    = $pairs["ProductName"]
  ProductVersion = $pairs["ProductVersion"]
  Manufacturer   = $pairs["Manufacturer"]
  Comments       = $pairs["ARPCOMMENTS"]
  ProductCode    = $pairs["ProductCode"]
  UpgradeCode    = $pairs["UpgradeCode"]
} | ConvertTo-Json -Compress
`

func msiMetadata(msiPath string, md *Metadata) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("msi: %w", ErrUnsupported)
	}
	// The path travels through the environment so quotes in it cannot break the script.
	cmd := execCommand("powershell", "-NoProfile", "-NonInteractive", "-Command", msiPropertyScript)
	cmd.Env = append(cmd.Environ(), "ADMINKIT_MSI="+msiPath)
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("reading MSI properties of %s: %w", msiPath, err)
	}
	return parseMsiProperties(out, md)
}

func parseMsiProperties(out []byte, md *Metadata) error {
	var props map[string]*string
	if err := json.Unmarshal(out, &props); err != nil {
		return fmt.Errorf("parsing MSI properties: %w", err)
	}
	get := func(k string) string {
		if v := props[k]; v != nil {
			return strings.TrimSpace(*v)
		}
		return ""
	}
	md.Name = get("ProductName")
	md.Version = get("ProductVersion")
	md.Developer = get("Manufacturer")
	md.Description = get("Comments")
	md.ProductCode = get("ProductCode")
	md.UpgradeCode = get("UpgradeCode")
	md.Identifier = md.ProductCode
	return nil
}
