//go:build windows

package extract

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// exeMetadata reads the version resource of a PE file.
func exeMetadata(exePath string, md *Metadata) error {
	size, err := windows.GetFileVersionInfoSize(exePath, nil)
	if err != nil || size == 0 {
		// No version resource; the file is still inspectable.
		return nil
	}
	block := make([]byte, size)
	if err := windows.GetFileVersionInfo(exePath, 0, size, unsafe.Pointer(&block[0])); err != nil {
		return fmt.Errorf("GetFileVersionInfo %s: %w", exePath, err)
	}

	var fixed *windows.VS_FIXEDFILEINFO
	var fixedLen uint32
	if err := windows.VerQueryValue(unsafe.Pointer(&block[0]), `\`, unsafe.Pointer(&fixed), &fixedLen); err == nil && fixedLen > 0 {
		md.Version = fmt.Sprintf("%d.%d.%d.%d",
			fixed.FileVersionMS>>16, fixed.FileVersionMS&0xffff,
			fixed.FileVersionLS>>16, fixed.FileVersionLS&0xffff)
	}

	lang, ok := translation(block)
	if !ok {
		return nil
	}
	md.Name = versionString(block, lang, "ProductName")
	md.Developer = versionString(block, lang, "CompanyName")
	md.Description = versionString(block, lang, "FileDescription")
	if pv := versionString(block, lang, "ProductVersion"); pv != "" && md.Version == "" {
		md.Version = pv
	}
	return nil
}

// translation returns the first language/codepage pair as the hex key used by StringFileInfo.
func translation(block []byte) (string, bool) {
	var ptr *uint16
	var n uint32
	if err := windows.VerQueryValue(unsafe.Pointer(&block[0]), `\VarFileInfo\Translation`, unsafe.Pointer(&ptr), &n); err != nil || n < 4 {
		return "", false
	}
	pair := unsafe.Slice(ptr, 2)
	return fmt.Sprintf("%04x%04x", pair[0], pair[1]), true
}

func versionString(block []byte, lang, name string) string {
	var ptr *uint16
	var n uint32
	sub := `\StringFileInfo\` + lang + `\` + name
	if err := windows.VerQueryValue(unsafe.Pointer(&block[0]), sub, unsafe.Pointer(&ptr), &n); err != nil || n == 0 {
		return ""
	}
	return windows.UTF16PtrToString(ptr)
}
