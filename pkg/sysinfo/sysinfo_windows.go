//go:build windows

package sysinfo

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/yusufpapurcu/wmi"

	"github.com/windowsadmins/adminkit/pkg/logging"
)

type win32OperatingSystem struct {
	Caption        string
	Version        string
	BuildNumber    string
	OSArchitecture string
}

type win32ComputerSystem struct {
	UserName     string
	Domain       string
	PartOfDomain bool
	Workgroup    string
}

// platformDetails adds the WMI product caption, domain membership and the
// session table from quser.
func platformDetails(ctx context.Context) (PlatformDetails, error) {
	var pd PlatformDetails
	var errs []error

	var osInfo []win32OperatingSystem
	if err := wmi.Query("SELECT Caption, Version, BuildNumber, OSArchitecture FROM Win32_OperatingSystem", &osInfo); err != nil {
		errs = append(errs, err)
	} else if len(osInfo) > 0 {
		pd.Caption = strings.TrimSpace(osInfo[0].Caption + " " + osInfo[0].Version)
	}

	var systems []win32ComputerSystem
	if err := wmi.Query("SELECT UserName, Domain, PartOfDomain, Workgroup FROM Win32_ComputerSystem", &systems); err != nil {
		errs = append(errs, err)
	} else if len(systems) > 0 {
		cs := systems[0]
		if cs.PartOfDomain {
			pd.Domain = cs.Domain
		} else if cs.Workgroup != "" {
			pd.Domain = "WORKGROUP " + cs.Workgroup
		}
		if cs.UserName != "" {
			pd.Sessions = append(pd.Sessions, Session{User: cs.UserName, Terminal: "console", State: "Active"})
		}
	}

	// quser exits 1 when nobody is logged on, but still prints a usable table.
	out, err := exec.CommandContext(ctx, "quser").Output()
	if err != nil && len(out) == 0 {
		logging.Debug("quser unavailable", "error", err)
	}
	if sessions := parseQuser(string(out)); len(sessions) > 0 {
		// quser is authoritative for interactive sessions.
		pd.Sessions = sessions
	}
	return pd, errors.Join(errs...)
}
