// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/xrlayers/interop/d3d"
)

// Device11 is a simulated D3D11 device.
type Device11 struct {
	object
	adapter d3d.AdapterDesc
	level   d3d.FeatureLevel
	flags   d3d.CreateDeviceFlags
}

// Adapter returns the description of the adapter the device runs on.
func (d *Device11) Adapter() d3d.AdapterDesc { return d.adapter }

// FeatureLevel implements d3d.D3D11Device.
func (d *Device11) FeatureLevel() d3d.FeatureLevel { return d.level }

// Flags returns the creation flags.
func (d *Device11) Flags() d3d.CreateDeviceFlags { return d.flags }

// Release implements d3d.D3D11Device.
func (d *Device11) Release() { d.release() }

// CreateFence implements d3d.D3D11Device.
func (d *Device11) CreateFence(initialValue uint64, shared bool) (d3d.D3D11Fence, error) {
	if err := d.m.fault(OpCreateFence); err != nil {
		return nil, err
	}
	return &Fence11{
		object:  d.m.newObject("fence11"),
		counter: &counter{value: initialValue},
		shared:  shared,
	}, nil
}

// NewTexture allocates a texture on the device. Runtimes call it for
// swapchain images.
func (d *Device11) NewTexture(desc d3d.TextureDesc) *Texture {
	return &Texture{
		object: d.m.newObject("texture11"),
		device: d,
		desc:   desc,
	}
}

// Fence11 is a simulated D3D11 fence.
type Fence11 struct {
	object
	counter *counter
	shared  bool
}

// Value returns the completed value.
func (f *Fence11) Value() uint64 { return f.counter.completed() }

// CreateSharedHandle implements d3d.D3D11Fence.
func (f *Fence11) CreateSharedHandle() (d3d.SharedHandle, error) {
	if !f.shared {
		return nil, fmt.Errorf("sim: fence not created shared: %w", d3d.ErrNotShareable)
	}
	if err := f.m.fault(OpExportFence); err != nil {
		return nil, err
	}
	return f.m.export(f.counter), nil
}

// Release implements d3d.D3D11Fence.
func (f *Fence11) Release() { f.release() }

// Context11 is a simulated immediate context. It records every wait it
// was asked to queue.
type Context11 struct {
	object
	device *Device11

	mu      sync.Mutex
	waits   []uint64
	flushes int

	// Highest value queued for each fence; work after the wait cannot
	// complete before the fence reaches it.
	pending map[*counter]uint64
}

// Wait implements d3d.D3D11Context.
func (c *Context11) Wait(fence d3d.D3D11Fence, value uint64) error {
	f, ok := fence.(*Fence11)
	if !ok {
		return fmt.Errorf("sim: foreign fence %T", fence)
	}
	if err := c.m.fault(OpWait); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, value)
	if c.pending == nil {
		c.pending = make(map[*counter]uint64)
	}
	if value > c.pending[f.counter] {
		c.pending[f.counter] = value
	}
	return nil
}

// Flush implements d3d.D3D11Context. The event is set once every queued
// fence wait is satisfied.
func (c *Context11) Flush(event d3d.Event) error {
	if err := c.m.fault(OpFlush); err != nil {
		return err
	}
	c.mu.Lock()
	c.flushes++
	pending := make(map[*counter]uint64, len(c.pending))
	for k, v := range c.pending {
		pending[k] = v
	}
	c.mu.Unlock()

	if event == nil {
		return nil
	}
	if len(pending) == 0 {
		return event.Set()
	}
	// The event fires after the last outstanding wait; one barrier event
	// per fence is enough since every fence only moves forward.
	g := &group{event: event, remaining: len(pending)}
	for ctr, value := range pending {
		if err := ctr.notify(value, g); err != nil {
			return err
		}
	}
	return nil
}

// Waits returns the values passed to Wait, in call order.
func (c *Context11) Waits() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.waits...)
}

// Flushes returns the number of Flush calls.
func (c *Context11) Flushes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

// Device returns the device the context belongs to.
func (c *Context11) Device() *Device11 { return c.device }

// Release implements d3d.D3D11Context.
func (c *Context11) Release() { c.release() }

// group sets event once it was itself set remaining times.
type group struct {
	mu        sync.Mutex
	event     d3d.Event
	remaining int
}

func (g *group) Handle() uintptr { return g.event.Handle() }
func (g *group) Reset() error    { return nil }
func (g *group) Wait() error     { return g.event.Wait() }
func (g *group) Close() error    { return nil }

func (g *group) Set() error {
	g.mu.Lock()
	g.remaining--
	done := g.remaining == 0
	g.mu.Unlock()
	if done {
		return g.event.Set()
	}
	return nil
}

// Texture is a simulated D3D11 texture.
type Texture struct {
	object
	device *Device11
	desc   d3d.TextureDesc
}

// Desc implements d3d.D3D11Texture.
func (t *Texture) Desc() d3d.TextureDesc { return t.desc }

// TextureFormat returns the WebGPU view of the texture format.
func (t *Texture) TextureFormat() gputypes.TextureFormat { return t.desc.Format.TextureFormat() }

// Device returns the device that allocated the texture.
func (t *Texture) Device() *Device11 { return t.device }

// CreateSharedHandle implements d3d.D3D11Texture. Depth formats cannot be
// shared.
func (t *Texture) CreateSharedHandle() (d3d.SharedHandle, error) {
	if t.desc.Format.IsDepth() {
		return nil, fmt.Errorf("sim: %s texture: %w", t.desc.Format, d3d.ErrNotShareable)
	}
	if err := t.m.fault(OpExportTexture); err != nil {
		return nil, err
	}
	return t.m.export(t), nil
}

// Release frees the texture. Only the runtime that allocated it calls this.
func (t *Texture) Release() { t.release() }

var (
	_ d3d.D3D11Device  = (*Device11)(nil)
	_ d3d.D3D11Context = (*Context11)(nil)
	_ d3d.D3D11Fence   = (*Fence11)(nil)
	_ d3d.D3D11Texture = (*Texture)(nil)
	_ d3d.Event        = (*group)(nil)
)
