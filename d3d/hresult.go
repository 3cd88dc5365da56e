// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d

import "fmt"

// HRESULT is the status code of a failed COM call. It matches ErrNotFound
// and ErrDeviceRemoved with errors.Is.
type HRESULT uint32

// Status codes the backend translates.
const (
	hrNoInterface   HRESULT = 0x80004002
	hrInvalidArg    HRESULT = 0x80070057
	hrNotFound      HRESULT = 0x887a0002
	hrUnsupported   HRESULT = 0x887a0004
	hrDeviceRemoved HRESULT = 0x887a0005
	hrDeviceHung    HRESULT = 0x887a0006
	hrDeviceReset   HRESULT = 0x887a0007
)

var hresultNames = map[HRESULT]string{
	hrNoInterface:   "E_NOINTERFACE",
	hrInvalidArg:    "E_INVALIDARG",
	hrNotFound:      "DXGI_ERROR_NOT_FOUND",
	hrUnsupported:   "DXGI_ERROR_UNSUPPORTED",
	hrDeviceRemoved: "DXGI_ERROR_DEVICE_REMOVED",
	hrDeviceHung:    "DXGI_ERROR_DEVICE_HUNG",
	hrDeviceReset:   "DXGI_ERROR_DEVICE_RESET",
}

// Failed reports whether h is an error code. S_FALSE and other positive
// codes are successes.
func (h HRESULT) Failed() bool { return int32(h) < 0 }

func (h HRESULT) Error() string {
	if name, ok := hresultNames[h]; ok {
		return fmt.Sprintf("%s (%#08x)", name, uint32(h))
	}
	return fmt.Sprintf("HRESULT %#08x", uint32(h))
}

// Is maps DXGI codes onto the package sentinels.
func (h HRESULT) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return h == hrNotFound
	case ErrDeviceRemoved:
		return h == hrDeviceRemoved || h == hrDeviceHung || h == hrDeviceReset
	}
	return false
}

// checkHRESULT converts the return register of a COM call into an error.
func checkHRESULT(op string, hr uintptr) error {
	h := HRESULT(uint32(hr))
	if !h.Failed() {
		return nil
	}
	return fmt.Errorf("d3d: %s: %w", op, h)
}
