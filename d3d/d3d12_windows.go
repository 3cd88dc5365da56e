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

type d3d12DeviceVtbl struct {
	iUnknownVtbl

	_                [29]uintptr // ID3D12Object, then GetNodeCount through CreateSharedHandle
	OpenSharedHandle uintptr
	_                [10]uintptr // OpenSharedHandleByName through GetResourceTiling
	GetAdapterLuid   uintptr
}

type id3d12Device struct {
	vtbl *d3d12DeviceVtbl
}

type d3d12CommandQueueVtbl struct {
	iUnknownVtbl

	_      [11]uintptr // ID3D12Object, ID3D12DeviceChild, then UpdateTileMappings through EndEvent
	Signal uintptr
}

type id3d12CommandQueue struct {
	vtbl *d3d12CommandQueueVtbl
}

type d3d12FenceVtbl struct {
	iUnknownVtbl

	_                    [5]uintptr // ID3D12Object and ID3D12DeviceChild
	GetCompletedValue    uintptr
	SetEventOnCompletion uintptr
}

type id3d12Fence struct {
	vtbl *d3d12FenceVtbl
}

type id3d12Resource struct {
	vtbl *iUnknownVtbl
}

type d3d12Device struct {
	device *id3d12Device
}

// WrapD3D12Device wraps the ID3D12Device of an application's
// XrGraphicsBindingD3D12KHR. The application keeps ownership.
func WrapD3D12Device(device unsafe.Pointer) D3D12Device {
	return &d3d12Device{device: (*id3d12Device)(device)}
}

// AdapterLUID calls GetAdapterLuid. The LUID is returned through a hidden
// pointer after the interface pointer, as for every C++ method returning a
// struct.
func (d *d3d12Device) AdapterLUID() LUID {
	var luid LUID
	syscall.SyscallN(d.device.vtbl.GetAdapterLuid,
		uintptr(unsafe.Pointer(d.device)), uintptr(unsafe.Pointer(&luid)))
	return luid
}

func (d *d3d12Device) open(handle SharedHandle, iid *windows.GUID, out unsafe.Pointer) error {
	h, ok := handle.(ntHandle)
	if !ok {
		return fmt.Errorf("d3d: handle %T was not created by this backend", handle)
	}
	hr, _, _ := syscall.SyscallN(d.device.vtbl.OpenSharedHandle,
		uintptr(unsafe.Pointer(d.device)), uintptr(h), uintptr(unsafe.Pointer(iid)), uintptr(out))
	return checkHRESULT("ID3D12Device::OpenSharedHandle", hr)
}

func (d *d3d12Device) OpenSharedFence(handle SharedHandle) (D3D12Fence, error) {
	f := &d3d12Fence{}
	if err := d.open(handle, &iidID3D12Fence, unsafe.Pointer(&f.fence)); err != nil {
		return nil, err
	}
	return f, nil
}

func (d *d3d12Device) OpenSharedResource(handle SharedHandle) (D3D12Resource, error) {
	r := &d3d12Resource{}
	if err := d.open(handle, &iidID3D12Resource, unsafe.Pointer(&r.resource)); err != nil {
		return nil, err
	}
	return r, nil
}

func (d *d3d12Device) Pointer() unsafe.Pointer { return unsafe.Pointer(d.device) }

type d3d12CommandQueue struct {
	queue *id3d12CommandQueue
}

// WrapD3D12CommandQueue wraps the ID3D12CommandQueue of an application's
// XrGraphicsBindingD3D12KHR. The application keeps ownership.
func WrapD3D12CommandQueue(queue unsafe.Pointer) D3D12CommandQueue {
	return &d3d12CommandQueue{queue: (*id3d12CommandQueue)(queue)}
}

func (q *d3d12CommandQueue) Signal(fence D3D12Fence, value uint64) error {
	f, ok := fence.(*d3d12Fence)
	if !ok {
		return fmt.Errorf("d3d: fence %T was not opened on a D3D12 device", fence)
	}
	hr, _, _ := syscall.SyscallN(q.queue.vtbl.Signal,
		uintptr(unsafe.Pointer(q.queue)), uintptr(unsafe.Pointer(f.fence)), uintptr(value))
	return checkHRESULT("ID3D12CommandQueue::Signal", hr)
}

func (q *d3d12CommandQueue) Pointer() unsafe.Pointer { return unsafe.Pointer(q.queue) }

type d3d12Fence struct {
	fence *id3d12Fence
}

func (f *d3d12Fence) CompletedValue() uint64 {
	r, _, _ := syscall.SyscallN(f.fence.vtbl.GetCompletedValue, uintptr(unsafe.Pointer(f.fence)))
	return uint64(r)
}

func (f *d3d12Fence) SetEventOnCompletion(value uint64, event Event) error {
	h := event.Handle()
	if h == 0 {
		return fmt.Errorf("d3d: event %T has no OS handle", event)
	}
	hr, _, _ := syscall.SyscallN(f.fence.vtbl.SetEventOnCompletion,
		uintptr(unsafe.Pointer(f.fence)), uintptr(value), h)
	return checkHRESULT("ID3D12Fence::SetEventOnCompletion", hr)
}

func (f *d3d12Fence) Release() { unknown(f.fence).release() }

type d3d12Resource struct {
	resource *id3d12Resource
}

func (r *d3d12Resource) Release() { unknown(r.resource).release() }

// Pointer returns the ID3D12Resource handed to the application in
// XrSwapchainImageD3D12KHR.
func (r *d3d12Resource) Pointer() unsafe.Pointer { return unsafe.Pointer(r.resource) }
