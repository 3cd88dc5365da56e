// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// RuntimeProvider exposes a D3D11 device owned by someone else as a
// gpucontext.DeviceProvider, so in-process tooling built on the gogpu
// stack can locate the device the runtime consumes.
//
// The provider never owns the device: Destroy on the returned Device is a
// no-op and the owner releases the objects.
type RuntimeProvider struct {
	device  *runtimeDevice
	adapter Adapter
	format  gputypes.TextureFormat
}

// NewRuntimeProvider wraps a D3D11 device and its immediate context.
// newEvent creates the event Poll(true) waits on.
func NewRuntimeProvider(device D3D11Device, context D3D11Context, adapter Adapter,
	format Format, newEvent func() (Event, error)) *RuntimeProvider {
	return &RuntimeProvider{
		device: &runtimeDevice{
			device:   device,
			context:  context,
			newEvent: newEvent,
		},
		adapter: adapter,
		format:  format.TextureFormat(),
	}
}

// Device returns the wrapped device. It implements Poller.
func (p *RuntimeProvider) Device() gpucontext.Device { return p.device }

// Queue returns the immediate context, which doubles as the queue in D3D11.
func (p *RuntimeProvider) Queue() gpucontext.Queue { return p.device.context }

// Adapter returns the DXGI adapter the device was created on.
func (p *RuntimeProvider) Adapter() gpucontext.Adapter { return p.adapter }

// AdapterInfo describes the adapter from its DXGI description. DXGI does
// not tell discrete from integrated hardware, so only software adapters
// get a known type.
func (p *RuntimeProvider) AdapterInfo() gpucontext.AdapterInfo {
	info := gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
	if p.adapter == nil {
		return info
	}
	desc, err := p.adapter.Desc()
	if err != nil {
		return info
	}
	info.Name = desc.Description
	if desc.Software {
		info.Type = gpucontext.AdapterTypeSoftware
	}
	return info
}

// SurfaceFormat returns the format of the first swapchain of the session,
// or gputypes.TextureFormatUndefined.
func (p *RuntimeProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }

// D3D11 returns the raw device and context.
func (p *RuntimeProvider) D3D11() (D3D11Device, D3D11Context) {
	return p.device.device, p.device.context
}

// LastPollError returns the error of the most recent Poll, if any.
func (p *RuntimeProvider) LastPollError() error { return p.device.lastErr }

var _ gpucontext.DeviceProvider = (*RuntimeProvider)(nil)

// Poller is implemented by the device a RuntimeProvider returns.
type Poller interface {
	// Poll flushes the immediate context. With wait set it blocks until
	// the flushed work completed.
	Poll(wait bool)
	// Destroy is a no-op: the owner of the device releases it.
	Destroy()
}

var _ Poller = (*runtimeDevice)(nil)

type runtimeDevice struct {
	device   D3D11Device
	context  D3D11Context
	newEvent func() (Event, error)
	lastErr  error
}

func (d *runtimeDevice) Poll(wait bool) {
	d.lastErr = d.poll(wait)
}

func (d *runtimeDevice) poll(wait bool) error {
	if !wait {
		return d.context.Flush(nil)
	}
	ev, err := d.newEvent()
	if err != nil {
		return err
	}
	defer ev.Close()
	if err := d.context.Flush(ev); err != nil {
		return err
	}
	return ev.Wait()
}

func (d *runtimeDevice) Destroy() {}
