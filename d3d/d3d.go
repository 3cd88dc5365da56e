// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package d3d defines the slice of Direct3D 11, Direct3D 12 and DXGI that
// the interop layer drives.
//
// The application hands the layer objects implementing the D3D12 side
// (through its graphics binding). The D3D11 side is created by the layer
// from a Factory, which a platform package provides. Objects are only
// described by what the layer calls on them, so any implementation that
// honours the semantics below can be plugged in, including the software
// simulation used by tests.
//
// Shared handles transfer fences and textures between the two devices.
// They are process-local and the caller that obtained one must Close it
// once the importing device has opened it; the importing device holds an
// independent reference.
package d3d

import "errors"

// ErrNotFound is returned by Factory.EnumAdapters past the last adapter.
var ErrNotFound = errors.New("d3d: not found")

// ErrNotShareable means a resource cannot be exported as a shared handle.
// Depth/stencil textures are the common case.
var ErrNotShareable = errors.New("d3d: resource is not shareable")

// ErrDeviceRemoved means the device was lost and must be recreated.
var ErrDeviceRemoved = errors.New("d3d: device removed")

// LUID is a locally unique adapter identifier.
type LUID struct {
	LowPart  uint32
	HighPart int32
}

// IsZero reports whether l is the zero LUID.
func (l LUID) IsZero() bool { return l == LUID{} }

// FeatureLevel is a D3D_FEATURE_LEVEL value.
type FeatureLevel uint32

// Feature levels used by the layer.
const (
	FeatureLevel11_0 FeatureLevel = 0xb000
	FeatureLevel11_1 FeatureLevel = 0xb100
	FeatureLevel12_0 FeatureLevel = 0xc000
	FeatureLevel12_1 FeatureLevel = 0xc100
)

// CreateDeviceFlags mirrors D3D11_CREATE_DEVICE_FLAG.
type CreateDeviceFlags uint32

// CreateDeviceDebug enables the debug layer on the created device.
const CreateDeviceDebug CreateDeviceFlags = 0x2

// SharedHandle is an OS handle to a shared fence or resource.
type SharedHandle interface {
	// Close releases the handle. Objects opened from it stay valid.
	Close() error
}

// Event is a manual-reset OS event used for GPU completion notifications.
type Event interface {
	// Handle returns the native handle for platform backends, or 0.
	Handle() uintptr
	Set() error
	Reset() error
	// Wait blocks until the event is set. There is no timeout.
	Wait() error
	Close() error
}

// AdapterDesc describes a DXGI adapter.
type AdapterDesc struct {
	Description string
	LUID        LUID
	// Software is set for adapters flagged DXGI_ADAPTER_FLAG_SOFTWARE.
	Software bool
}

// Adapter is a DXGI adapter.
type Adapter interface {
	Desc() (AdapterDesc, error)
	Release()
}

// Factory enumerates adapters and creates D3D11 devices on them.
type Factory interface {
	// EnumAdapters returns the adapter at index, or ErrNotFound.
	EnumAdapters(index int) (Adapter, error)

	// CreateDevice creates a D3D11 device and its immediate context on the
	// adapter at exactly the requested feature level.
	CreateDevice(adapter Adapter, level FeatureLevel, flags CreateDeviceFlags) (D3D11Device, D3D11Context, error)
}

// D3D11Device is the device the runtime renders with.
type D3D11Device interface {
	// CreateFence creates a fence; shared fences can export handles.
	CreateFence(initialValue uint64, shared bool) (D3D11Fence, error)
	FeatureLevel() FeatureLevel
	Release()
}

// D3D11Context is the immediate context of a D3D11Device.
type D3D11Context interface {
	// Wait queues a GPU-side wait until fence reaches value.
	Wait(fence D3D11Fence, value uint64) error

	// Flush submits all queued commands and sets event, when non-nil, once
	// they completed.
	Flush(event Event) error
	Release()
}

// D3D11Fence is a D3D11 fence.
type D3D11Fence interface {
	CreateSharedHandle() (SharedHandle, error)
	Release()
}

// TextureDesc is the subset of D3D11_TEXTURE2D_DESC the layer reports.
type TextureDesc struct {
	Width, Height  uint32
	ArraySize      uint32
	MipLevels      uint32
	SampleCount    uint32
	Format         Format
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// D3D11Texture is a swapchain texture allocated by the runtime.
// The runtime owns it; the layer never releases it.
type D3D11Texture interface {
	Desc() TextureDesc

	// CreateSharedHandle exports the texture memory, or fails with
	// ErrNotShareable for kinds that cannot be shared.
	CreateSharedHandle() (SharedHandle, error)
}

// D3D12Device is the application's device.
type D3D12Device interface {
	AdapterLUID() LUID
	OpenSharedFence(handle SharedHandle) (D3D12Fence, error)
	OpenSharedResource(handle SharedHandle) (D3D12Resource, error)
}

// D3D12CommandQueue is the application's direct queue.
type D3D12CommandQueue interface {
	// Signal queues a GPU-side signal of value on fence.
	Signal(fence D3D12Fence, value uint64) error
}

// D3D12Fence is a fence opened on the application's device.
type D3D12Fence interface {
	CompletedValue() uint64

	// SetEventOnCompletion sets event once the fence reaches value.
	SetEventOnCompletion(value uint64, event Event) error
	Release()
}

// D3D12Resource is a texture imported into the application's device.
type D3D12Resource interface {
	Release()
}
