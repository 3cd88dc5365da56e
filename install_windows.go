//go:build windows

package interop

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// RegisterImplicitLayer enables the manifest at manifestPath as an
// implicit layer. Earlier registrations of a manifest with the same file
// name are removed first, so the layer is enumerated after every other
// implicit layer. Requires administrator rights.
func RegisterImplicitLayer(manifestPath string) error {
	if !filepath.IsAbs(manifestPath) {
		return fmt.Errorf("register layer: %s is not an absolute path", manifestPath)
	}
	k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, ImplicitLayersKey, registry.ALL_ACCESS)
	if err != nil {
		return fmt.Errorf("register layer: open HKLM\\%s: %w", ImplicitLayersKey, err)
	}
	defer k.Close()

	if err := deleteManifestValues(k, manifestPath); err != nil {
		return fmt.Errorf("register layer: %w", err)
	}
	if err := k.SetDWordValue(manifestPath, 0); err != nil {
		return fmt.Errorf("register layer: %w", err)
	}
	Logger().Info("implicit layer registered", "manifest", manifestPath)
	return nil
}

// UnregisterImplicitLayer removes every registration of a manifest with
// the file name of manifestPath. A missing key is not an error.
func UnregisterImplicitLayer(manifestPath string) error {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, ImplicitLayersKey, registry.QUERY_VALUE|registry.SET_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unregister layer: open HKLM\\%s: %w", ImplicitLayersKey, err)
	}
	defer k.Close()

	if err := deleteManifestValues(k, manifestPath); err != nil {
		return fmt.Errorf("unregister layer: %w", err)
	}
	return nil
}

func deleteManifestValues(k registry.Key, manifestPath string) error {
	names, err := k.ReadValueNames(0)
	if err != nil {
		return fmt.Errorf("read values: %w", err)
	}
	for _, name := range ManifestValues(names, manifestPath) {
		if err := k.DeleteValue(name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		Logger().Debug("implicit layer registration removed", "manifest", name)
	}
	return nil
}
