package interop

import (
	"errors"
	"strings"
)

// ImplicitLayersKey is the HKEY_LOCAL_MACHINE subkey the OpenXR loader
// scans for implicit layer manifests. Each value name is the absolute path
// of a manifest; a DWORD 0 enables it.
const ImplicitLayersKey = `SOFTWARE\Khronos\OpenXR\1\ApiLayers\Implicit`

// ErrInstallUnsupported is returned by the registry functions on platforms
// without an OpenXR registry.
var ErrInstallUnsupported = errors.New("interop: implicit layer registration requires Windows")

// ManifestValues returns the registry value names among values that point
// at a manifest with the file name of manifestPath, in any directory.
// File names compare case-insensitively over ASCII, like Windows paths.
func ManifestValues(values []string, manifestPath string) []string {
	suffix := `\` + manifestPath[strings.LastIndexAny(manifestPath, `\/`)+1:]
	var matches []string
	for _, v := range values {
		if len(v) >= len(suffix) && equalFoldASCII(v[len(v)-len(suffix):], suffix) {
			matches = append(matches, v)
		}
	}
	return matches
}
