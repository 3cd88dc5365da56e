// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows && amd64

package d3d

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modDXGI  = windows.NewLazySystemDLL("dxgi.dll")
	modD3D11 = windows.NewLazySystemDLL("d3d11.dll")

	procCreateDXGIFactory1 = modDXGI.NewProc("CreateDXGIFactory1")
	procD3D11CreateDevice  = modD3D11.NewProc("D3D11CreateDevice")
)

const (
	d3dDriverTypeUnknown    = 0
	d3d11SDKVersion         = 7
	dxgiAdapterFlagSoftware = 0x2
)

var errFactoryReleased = errors.New("d3d: DXGI factory released")

type dxgiObjectVtbl struct {
	iUnknownVtbl

	SetPrivateData          uintptr
	SetPrivateDataInterface uintptr
	GetPrivateData          uintptr
	GetParent               uintptr
}

type dxgiFactory1Vtbl struct {
	dxgiObjectVtbl

	EnumAdapters          uintptr
	MakeWindowAssociation uintptr
	GetWindowAssociation  uintptr
	CreateSwapChain       uintptr
	CreateSoftwareAdapter uintptr
	EnumAdapters1         uintptr
	IsCurrent             uintptr
}

type dxgiFactory1 struct {
	vtbl *dxgiFactory1Vtbl
}

type dxgiAdapter1Vtbl struct {
	dxgiObjectVtbl

	EnumOutputs           uintptr
	GetDesc               uintptr
	CheckInterfaceSupport uintptr
	GetDesc1              uintptr
}

type dxgiAdapter1 struct {
	vtbl *dxgiAdapter1Vtbl
}

// dxgiAdapterDesc1 is DXGI_ADAPTER_DESC1.
type dxgiAdapterDesc1 struct {
	Description           [128]uint16
	VendorID              uint32
	DeviceID              uint32
	SubSysID              uint32
	Revision              uint32
	DedicatedVideoMemory  uintptr
	DedicatedSystemMemory uintptr
	SharedSystemMemory    uintptr
	AdapterLUID           LUID
	Flags                 uint32
}

// DXGIFactory is the Factory of the system DXGI and Direct3D 11 runtime.
// The underlying IDXGIFactory1 is created on first use.
type DXGIFactory struct {
	once    sync.Once
	factory *dxgiFactory1
	err     error
}

var _ Factory = (*DXGIFactory)(nil)

// NewDXGIFactory returns a factory backed by dxgi.dll and d3d11.dll.
func NewDXGIFactory() *DXGIFactory {
	return &DXGIFactory{}
}

func (f *DXGIFactory) load() (*dxgiFactory1, error) {
	f.once.Do(func() {
		if err := procCreateDXGIFactory1.Find(); err != nil {
			f.err = fmt.Errorf("d3d: %w", err)
			return
		}
		hr, _, _ := procCreateDXGIFactory1.Call(
			uintptr(unsafe.Pointer(&iidIDXGIFactory1)),
			uintptr(unsafe.Pointer(&f.factory)))
		f.err = checkHRESULT("CreateDXGIFactory1", hr)
	})
	return f.factory, f.err
}

// EnumAdapters returns the adapter at index in DXGI enumeration order.
func (f *DXGIFactory) EnumAdapters(index int) (Adapter, error) {
	factory, err := f.load()
	if err != nil {
		return nil, err
	}
	var adapter *dxgiAdapter1
	hr, _, _ := syscall.SyscallN(factory.vtbl.EnumAdapters1,
		uintptr(unsafe.Pointer(factory)), uintptr(uint32(index)), //nolint:gosec // DXGI takes a UINT index
		uintptr(unsafe.Pointer(&adapter)))
	if err := checkHRESULT("EnumAdapters1", hr); err != nil {
		return nil, err
	}
	return adapter, nil
}

// CreateDevice creates a D3D11 device at exactly level on a DXGI adapter.
// The device must expose ID3D11Device5 and its context
// ID3D11DeviceContext4, which shared fences need.
func (f *DXGIFactory) CreateDevice(adapter Adapter, level FeatureLevel, flags CreateDeviceFlags) (D3D11Device, D3D11Context, error) {
	a, ok := adapter.(*dxgiAdapter1)
	if !ok {
		return nil, nil, fmt.Errorf("d3d: adapter %T was not enumerated by DXGI", adapter)
	}
	if err := procD3D11CreateDevice.Find(); err != nil {
		return nil, nil, fmt.Errorf("d3d: %w", err)
	}

	var (
		device  *iUnknown
		context *iUnknown
		got     FeatureLevel
	)
	hr, _, _ := procD3D11CreateDevice.Call(
		uintptr(unsafe.Pointer(a)),
		d3dDriverTypeUnknown,
		0,
		uintptr(flags),
		uintptr(unsafe.Pointer(&level)),
		1,
		d3d11SDKVersion,
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&got)),
		uintptr(unsafe.Pointer(&context)))
	if err := checkHRESULT("D3D11CreateDevice", hr); err != nil {
		return nil, nil, err
	}
	defer device.release()
	defer context.release()

	dev := &d3d11Device{level: got}
	if err := device.queryInterface(&iidID3D11Device5, unsafe.Pointer(&dev.device)); err != nil {
		return nil, nil, fmt.Errorf("d3d: ID3D11Device5: %w", err)
	}
	ctx := &d3d11Context{}
	if err := context.queryInterface(&iidID3D11DeviceContext4, unsafe.Pointer(&ctx.context)); err != nil {
		dev.Release()
		return nil, nil, fmt.Errorf("d3d: ID3D11DeviceContext4: %w", err)
	}
	return dev, ctx, nil
}

// Release releases the IDXGIFactory1, if it was created. The factory
// fails every later call.
func (f *DXGIFactory) Release() {
	f.once.Do(func() {})
	if f.factory != nil {
		unknown(f.factory).release()
		f.factory = nil
	}
	f.err = errFactoryReleased
}

func (a *dxgiAdapter1) Desc() (AdapterDesc, error) {
	var desc dxgiAdapterDesc1
	hr, _, _ := syscall.SyscallN(a.vtbl.GetDesc1,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&desc)))
	if err := checkHRESULT("GetDesc1", hr); err != nil {
		return AdapterDesc{}, err
	}
	return AdapterDesc{
		Description: windows.UTF16ToString(desc.Description[:]),
		LUID:        desc.AdapterLUID,
		Software:    desc.Flags&dxgiAdapterFlagSoftware != 0,
	}, nil
}

func (a *dxgiAdapter1) Release() { unknown(a).release() }

func (a *dxgiAdapter1) Pointer() unsafe.Pointer { return unsafe.Pointer(a) }
