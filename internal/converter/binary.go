// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package converter

import (
	"runtime"
	"strings"
)

// binaryNames are looked up on PATH in order.
var binaryNames = []string{"soffice", "libreoffice"}

// wellKnownPaths lists default LibreOffice install locations for goos that
// are tried after PATH.
func wellKnownPaths(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"/Applications/LibreOffice.app/Contents/MacOS/soffice"}
	case "windows":
		return []string{
			`C:\Program Files\LibreOffice\program\soffice.exe`,
			`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
		}
	default:
		return []string{
			"/usr/lib/libreoffice/program/soffice",
			"/opt/libreoffice/program/soffice",
			"/snap/bin/libreoffice",
		}
	}
}

// resolveBinary finds the converter executable. An explicit override is
// authoritative: if it is not executable the lookup fails without trying PATH.
func (c *Converter) resolveBinary() (string, error) {
	if override := strings.TrimSpace(c.opts.BinaryPath); override != "" {
		bin, err := c.runner.LookPath(override)
		if err != nil {
			return "", newError(KindBinaryNotFound, override,
				"configured converter binary is not executable", err)
		}
		return bin, nil
	}

	candidates := append([]string{}, binaryNames...)
	candidates = append(candidates, c.fallbacks...)
	for _, name := range candidates {
		if bin, err := c.runner.LookPath(name); err == nil {
			return bin, nil
		}
	}
	return "", newError(KindBinaryNotFound, "", "", nil)
}

func defaultFallbacks() []string {
	return wellKnownPaths(runtime.GOOS)
}
