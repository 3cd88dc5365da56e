// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows && amd64

package d3d

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	d3d11FenceFlagShared  = 0x2
	d3d11ContextTypeAll   = 0
	d3d11BindDepthStencil = 0x40
	genericAll            = 0x10000000
)

type d3d11Device5Vtbl struct {
	iUnknownVtbl

	_               [34]uintptr // CreateBuffer through SetPrivateDataInterface
	GetFeatureLevel uintptr
	_               [30]uintptr // GetCreationFlags through OpenSharedFence
	CreateFence     uintptr
}

type d3d11Device5 struct {
	vtbl *d3d11Device5Vtbl
}

type d3d11DeviceContext4Vtbl struct {
	iUnknownVtbl

	_      [108]uintptr // ID3D11DeviceChild, then VSSetConstantBuffers through ClearState
	Flush  uintptr
	_      [32]uintptr // GetType through EndEvent
	Flush1 uintptr
	_      [2]uintptr
	Signal uintptr
	Wait   uintptr
}

type d3d11DeviceContext4 struct {
	vtbl *d3d11DeviceContext4Vtbl
}

type d3d11FenceVtbl struct {
	iUnknownVtbl

	_                    [4]uintptr // ID3D11DeviceChild
	CreateSharedHandle   uintptr
	GetCompletedValue    uintptr
	SetEventOnCompletion uintptr
}

type id3d11Fence struct {
	vtbl *d3d11FenceVtbl
}

type d3d11Texture2DVtbl struct {
	iUnknownVtbl

	_       [7]uintptr // ID3D11DeviceChild and ID3D11Resource
	GetDesc uintptr
}

type id3d11Texture2D struct {
	vtbl *d3d11Texture2DVtbl
}

// d3d11Texture2DDesc is D3D11_TEXTURE2D_DESC.
type d3d11Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         Format
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type dxgiResource1Vtbl struct {
	dxgiObjectVtbl

	_                  [6]uintptr // GetDevice through CreateSubresourceSurface
	CreateSharedHandle uintptr
}

type dxgiResource1 struct {
	vtbl *dxgiResource1Vtbl
}

type d3d11Device struct {
	device *d3d11Device5
	level  FeatureLevel
}

func (d *d3d11Device) CreateFence(initialValue uint64, shared bool) (D3D11Fence, error) {
	var flags uintptr
	if shared {
		flags = d3d11FenceFlagShared
	}
	f := &d3d11Fence{}
	hr, _, _ := syscall.SyscallN(d.device.vtbl.CreateFence,
		uintptr(unsafe.Pointer(d.device)), uintptr(initialValue), flags,
		uintptr(unsafe.Pointer(&iidID3D11Fence)), uintptr(unsafe.Pointer(&f.fence)))
	if err := checkHRESULT("ID3D11Device5::CreateFence", hr); err != nil {
		return nil, err
	}
	return f, nil
}

func (d *d3d11Device) FeatureLevel() FeatureLevel {
	r, _, _ := syscall.SyscallN(d.device.vtbl.GetFeatureLevel, uintptr(unsafe.Pointer(d.device)))
	if r == 0 {
		return d.level
	}
	return FeatureLevel(r)
}

func (d *d3d11Device) Release() { unknown(d.device).release() }

func (d *d3d11Device) Pointer() unsafe.Pointer { return unsafe.Pointer(d.device) }

type d3d11Context struct {
	context *d3d11DeviceContext4
}

func (c *d3d11Context) Wait(fence D3D11Fence, value uint64) error {
	f, ok := fence.(*d3d11Fence)
	if !ok {
		return fmt.Errorf("d3d: fence %T was not created by a D3D11 device", fence)
	}
	hr, _, _ := syscall.SyscallN(c.context.vtbl.Wait,
		uintptr(unsafe.Pointer(c.context)), uintptr(unsafe.Pointer(f.fence)), uintptr(value))
	return checkHRESULT("ID3D11DeviceContext4::Wait", hr)
}

func (c *d3d11Context) Flush(event Event) error {
	if event == nil {
		syscall.SyscallN(c.context.vtbl.Flush, uintptr(unsafe.Pointer(c.context)))
		return nil
	}
	h := event.Handle()
	if h == 0 {
		return fmt.Errorf("d3d: event %T has no OS handle", event)
	}
	syscall.SyscallN(c.context.vtbl.Flush1,
		uintptr(unsafe.Pointer(c.context)), d3d11ContextTypeAll, h)
	return nil
}

func (c *d3d11Context) Release() { unknown(c.context).release() }

func (c *d3d11Context) Pointer() unsafe.Pointer { return unsafe.Pointer(c.context) }

type d3d11Fence struct {
	fence *id3d11Fence
}

func (f *d3d11Fence) CreateSharedHandle() (SharedHandle, error) {
	var h windows.Handle
	hr, _, _ := syscall.SyscallN(f.fence.vtbl.CreateSharedHandle,
		uintptr(unsafe.Pointer(f.fence)), 0, genericAll, 0, uintptr(unsafe.Pointer(&h)))
	if err := checkHRESULT("ID3D11Fence::CreateSharedHandle", hr); err != nil {
		return nil, err
	}
	return ntHandle(h), nil
}

func (f *d3d11Fence) Release() { unknown(f.fence).release() }

func (f *d3d11Fence) Pointer() unsafe.Pointer { return unsafe.Pointer(f.fence) }

type d3d11Texture struct {
	texture *id3d11Texture2D
}

// WrapD3D11Texture wraps an ID3D11Texture2D pointer returned by the
// runtime's xrEnumerateSwapchainImages. The runtime keeps ownership.
func WrapD3D11Texture(texture unsafe.Pointer) D3D11Texture {
	return &d3d11Texture{texture: (*id3d11Texture2D)(texture)}
}

func (t *d3d11Texture) desc() d3d11Texture2DDesc {
	var desc d3d11Texture2DDesc
	syscall.SyscallN(t.texture.vtbl.GetDesc,
		uintptr(unsafe.Pointer(t.texture)), uintptr(unsafe.Pointer(&desc)))
	return desc
}

func (t *d3d11Texture) Desc() TextureDesc {
	desc := t.desc()
	return TextureDesc{
		Width:          desc.Width,
		Height:         desc.Height,
		ArraySize:      desc.ArraySize,
		MipLevels:      desc.MipLevels,
		SampleCount:    desc.SampleCount,
		Format:         desc.Format,
		Usage:          desc.Usage,
		BindFlags:      desc.BindFlags,
		CPUAccessFlags: desc.CPUAccessFlags,
		MiscFlags:      desc.MiscFlags,
	}
}

// CreateSharedHandle exports the texture through IDXGIResource1. Depth
// textures fail with ErrNotShareable.
func (t *d3d11Texture) CreateSharedHandle() (SharedHandle, error) {
	if desc := t.desc(); desc.BindFlags&d3d11BindDepthStencil != 0 {
		return nil, fmt.Errorf("%w: bind flags %#x", ErrNotShareable, desc.BindFlags)
	}
	var res *dxgiResource1
	if err := unknown(t.texture).queryInterface(&iidIDXGIResource1, unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("d3d: IDXGIResource1: %w", err)
	}
	defer unknown(res).release()

	var h windows.Handle
	hr, _, _ := syscall.SyscallN(res.vtbl.CreateSharedHandle,
		uintptr(unsafe.Pointer(res)), 0, genericAll, 0, uintptr(unsafe.Pointer(&h)))
	if err := checkHRESULT("IDXGIResource1::CreateSharedHandle", hr); err != nil {
		return nil, err
	}
	return ntHandle(h), nil
}

func (t *d3d11Texture) Pointer() unsafe.Pointer { return unsafe.Pointer(t.texture) }
