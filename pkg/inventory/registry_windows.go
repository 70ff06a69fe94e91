//go:build windows

package inventory

import (
	"context"
	"errors"

	"golang.org/x/sys/windows/registry"

	"github.com/windowsadmins/adminkit/pkg/logging"
)

const uninstallPath = `Software\Microsoft\Windows\CurrentVersion\Uninstall`

type uninstallRoot struct {
	root   registry.Key
	access uint32
	scope  Scope
	prefix string
}

var uninstallRoots = []uninstallRoot{
	{registry.LOCAL_MACHINE, registry.WOW64_64KEY, ScopeMachine, `HKLM\`},
	{registry.LOCAL_MACHINE, registry.WOW64_32KEY, ScopeMachine32, `HKLM\`},
	{registry.CURRENT_USER, 0, ScopeUser, `HKCU\`},
}

// installedApps walks the Uninstall keys of every root. Unreadable roots are
// logged and skipped; it fails only when none can be read.
func installedApps(ctx context.Context) ([]App, error) {
	var apps []App
	var errs []error
	for _, r := range uninstallRoots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := readUninstallRoot(r)
		if err != nil {
			logging.Warn("Unable to read uninstall registry key", "scope", r.scope, "error", err)
			errs = append(errs, err)
			continue
		}
		apps = append(apps, found...)
	}
	if len(errs) == len(uninstallRoots) {
		return nil, errors.Join(errs...)
	}
	Sort(apps)
	return apps, nil
}

func readUninstallRoot(r uninstallRoot) ([]App, error) {
	key, err := registry.OpenKey(r.root, uninstallPath, registry.READ|r.access)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	subKeys, err := key.ReadSubKeyNames(0)
	if err != nil {
		return nil, err
	}

	var apps []App
	for _, name := range subKeys {
		app, ok := readApp(r, name)
		if ok {
			apps = append(apps, app)
		}
	}
	return apps, nil
}

// readApp skips entries without a DisplayName and system components.
func readApp(r uninstallRoot, name string) (App, bool) {
	fullPath := uninstallPath + `\` + name
	k, err := registry.OpenKey(r.root, fullPath, registry.QUERY_VALUE|r.access)
	if err != nil {
		logging.Debug("Unable to open uninstall entry", "key", fullPath, "error", err)
		return App{}, false
	}
	defer k.Close()

	if sc, _, err := k.GetIntegerValue("SystemComponent"); err == nil && sc == 1 {
		return App{}, false
	}
	app := App{Scope: r.scope, Key: r.prefix + fullPath}
	app.Name = stringValue(k, "DisplayName")
	if app.Name == "" {
		return App{}, false
	}
	app.Version = stringValue(k, "DisplayVersion")
	app.Publisher = stringValue(k, "Publisher")
	app.InstallDate = stringValue(k, "InstallDate")
	app.InstallLocation = stringValue(k, "InstallLocation")
	app.UninstallString = stringValue(k, "UninstallString")
	return app, true
}

func stringValue(k registry.Key, name string) string {
	v, _, err := k.GetStringValue(name)
	if err != nil {
		return ""
	}
	return v
}
