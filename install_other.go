//go:build !windows

package interop

// RegisterImplicitLayer returns ErrInstallUnsupported.
func RegisterImplicitLayer(string) error { return ErrInstallUnsupported }

// UnregisterImplicitLayer returns ErrInstallUnsupported.
func UnregisterImplicitLayer(string) error { return ErrInstallUnsupported }
