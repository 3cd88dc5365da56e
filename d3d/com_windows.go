// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows && amd64

package d3d

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// COM objects are reached through their vtables. Each wrapped interface is
// a struct holding only the vtable pointer, so a pointer to it is the
// interface pointer itself. Vtables list methods in header order; methods
// the backend never calls are skipped with blank arrays.

type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

type iUnknown struct {
	vtbl *iUnknownVtbl
}

// unknown views any wrapped interface as IUnknown.
func unknown[T any](p *T) *iUnknown {
	return (*iUnknown)(unsafe.Pointer(p))
}

func (u *iUnknown) release() {
	if u != nil {
		syscall.SyscallN(u.vtbl.Release, uintptr(unsafe.Pointer(u)))
	}
}

// queryInterface stores the iid interface of u in out, a pointer to a
// wrapped interface pointer.
func (u *iUnknown) queryInterface(iid *windows.GUID, out unsafe.Pointer) error {
	hr, _, _ := syscall.SyscallN(u.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(u)), uintptr(unsafe.Pointer(iid)), uintptr(out))
	return checkHRESULT("QueryInterface", hr)
}

var (
	iidIDXGIFactory1        = windows.GUID{Data1: 0x770aae78, Data2: 0xf26f, Data3: 0x4dba, Data4: [8]byte{0xa8, 0x29, 0x25, 0x3c, 0x83, 0xd1, 0xb3, 0x87}}
	iidIDXGIResource1       = windows.GUID{Data1: 0x30961379, Data2: 0x4609, Data3: 0x4a41, Data4: [8]byte{0x99, 0x8e, 0x54, 0xfe, 0x56, 0x7e, 0xe0, 0xc1}}
	iidID3D11Device5        = windows.GUID{Data1: 0x8ffde202, Data2: 0xa0e7, Data3: 0x45df, Data4: [8]byte{0x9e, 0x01, 0xe8, 0x37, 0x80, 0x1b, 0x5e, 0xa0}}
	iidID3D11DeviceContext4 = windows.GUID{Data1: 0x917600da, Data2: 0xf58c, Data3: 0x4c33, Data4: [8]byte{0x98, 0xd8, 0x3e, 0x15, 0xb3, 0x90, 0xfa, 0x24}}
	iidID3D11Fence          = windows.GUID{Data1: 0xaffde9d1, Data2: 0x1df7, Data3: 0x4bb7, Data4: [8]byte{0x8a, 0x34, 0x0f, 0x46, 0x25, 0x1d, 0xab, 0x80}}
	iidID3D12Fence          = windows.GUID{Data1: 0x0a753dcf, Data2: 0xc4d8, Data3: 0x4b91, Data4: [8]byte{0xad, 0xf6, 0xbe, 0x5a, 0x60, 0xd9, 0x5a, 0x76}}
	iidID3D12Resource       = windows.GUID{Data1: 0x696442be, Data2: 0xa72e, Data3: 0x4059, Data4: [8]byte{0xbc, 0x79, 0x5b, 0x5c, 0x98, 0x04, 0x0f, 0xad}}
)

// ntHandle is an NT handle returned by CreateSharedHandle.
type ntHandle windows.Handle

func (h ntHandle) Close() error {
	return windows.CloseHandle(windows.Handle(h))
}

// Native is implemented by every object of the Windows backend. Pointer
// returns the COM interface pointer, for handing the object across the
// OpenXR ABI.
type Native interface {
	Pointer() unsafe.Pointer
}

var (
	_ Native = (*dxgiAdapter1)(nil)
	_ Native = (*d3d11Device)(nil)
	_ Native = (*d3d11Context)(nil)
	_ Native = (*d3d11Fence)(nil)
	_ Native = (*d3d11Texture)(nil)
	_ Native = (*d3d12Device)(nil)
	_ Native = (*d3d12CommandQueue)(nil)
	_ Native = (*d3d12Resource)(nil)
)
