// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/xrlayers/interop/d3d"
)

// Device12 is a simulated D3D12 device, the kind the application owns.
type Device12 struct {
	object
	adapter d3d.AdapterDesc
}

// NewD3D12Device creates an application device on the adapter at index.
func (m *Machine) NewD3D12Device(index int) (*Device12, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.adapters) {
		return nil, fmt.Errorf("sim: adapter %d: %w", index, d3d.ErrNotFound)
	}
	m.live["device12"]++
	return &Device12{
		object:  object{m: m, kind: "device12"},
		adapter: m.adapters[index],
	}, nil
}

// NewDeviceOnLUID creates an application device reporting luid, which
// need not belong to any adapter of the machine.
func (m *Machine) NewDeviceOnLUID(luid d3d.LUID) *Device12 {
	return &Device12{
		object:  m.newObject("device12"),
		adapter: d3d.AdapterDesc{Description: "Unknown Adapter", LUID: luid},
	}
}

// AdapterLUID implements d3d.D3D12Device.
func (d *Device12) AdapterLUID() d3d.LUID { return d.adapter.LUID }

// NewQueue creates a direct command queue.
func (d *Device12) NewQueue() *Queue12 {
	return &Queue12{object: d.m.newObject("queue12"), device: d}
}

// OpenSharedFence implements d3d.D3D12Device.
func (d *Device12) OpenSharedFence(handle d3d.SharedHandle) (d3d.D3D12Fence, error) {
	if err := d.m.fault(OpOpenSharedFence); err != nil {
		return nil, err
	}
	target, err := d.m.open(handle)
	if err != nil {
		return nil, err
	}
	ctr, ok := target.(*counter)
	if !ok {
		return nil, fmt.Errorf("sim: handle does not reference a fence")
	}
	return &Fence12{object: d.m.newObject("fence12"), counter: ctr}, nil
}

// OpenSharedResource implements d3d.D3D12Device.
func (d *Device12) OpenSharedResource(handle d3d.SharedHandle) (d3d.D3D12Resource, error) {
	if err := d.m.fault(OpOpenSharedResource); err != nil {
		return nil, err
	}
	target, err := d.m.open(handle)
	if err != nil {
		return nil, err
	}
	tex, ok := target.(*Texture)
	if !ok {
		return nil, fmt.Errorf("sim: handle does not reference a texture")
	}
	if tex.device.adapter.LUID != d.adapter.LUID {
		return nil, fmt.Errorf("sim: texture lives on adapter %s", tex.device.adapter.Description)
	}
	return &Resource12{object: d.m.newObject("resource12"), texture: tex}, nil
}

// Release releases the application's device.
func (d *Device12) Release() { d.release() }

// Queue12 is a simulated D3D12 direct queue. It records every signal.
type Queue12 struct {
	object
	device *Device12

	mu      sync.Mutex
	signals []uint64
	latency time.Duration
	busy    sync.WaitGroup
}

// SetLatency delays the completion of later signals by d, as if the GPU
// were still executing earlier work.
func (q *Queue12) SetLatency(d time.Duration) {
	q.mu.Lock()
	q.latency = d
	q.mu.Unlock()
}

// Signal implements d3d.D3D12CommandQueue.
func (q *Queue12) Signal(fence d3d.D3D12Fence, value uint64) error {
	f, ok := fence.(*Fence12)
	if !ok {
		return fmt.Errorf("sim: foreign fence %T", fence)
	}
	if err := q.m.fault(OpSignal); err != nil {
		return err
	}
	q.mu.Lock()
	q.signals = append(q.signals, value)
	latency := q.latency
	q.mu.Unlock()

	if latency <= 0 {
		f.counter.signal(value)
		return nil
	}
	q.busy.Add(1)
	time.AfterFunc(latency, func() {
		defer q.busy.Done()
		f.counter.signal(value)
	})
	return nil
}

// Signals returns the values passed to Signal, in call order.
func (q *Queue12) Signals() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]uint64(nil), q.signals...)
}

// Idle blocks until every delayed signal completed.
func (q *Queue12) Idle() { q.busy.Wait() }

// Release releases the queue.
func (q *Queue12) Release() { q.release() }

// Fence12 is a D3D12 fence opened from a shared handle.
type Fence12 struct {
	object
	counter *counter
}

// CompletedValue implements d3d.D3D12Fence.
func (f *Fence12) CompletedValue() uint64 { return f.counter.completed() }

// SetEventOnCompletion implements d3d.D3D12Fence.
func (f *Fence12) SetEventOnCompletion(value uint64, event d3d.Event) error {
	return f.counter.notify(value, event)
}

// Release implements d3d.D3D12Fence.
func (f *Fence12) Release() { f.release() }

// Resource12 is a texture opened on a D3D12 device. It aliases the memory
// of a D3D11 texture.
type Resource12 struct {
	object
	texture *Texture
}

// Texture returns the D3D11 texture the resource aliases.
func (r *Resource12) Texture() *Texture { return r.texture }

// Release implements d3d.D3D12Resource.
func (r *Resource12) Release() { r.release() }

var (
	_ d3d.D3D12Device       = (*Device12)(nil)
	_ d3d.D3D12CommandQueue = (*Queue12)(nil)
	_ d3d.D3D12Fence        = (*Fence12)(nil)
	_ d3d.D3D12Resource     = (*Resource12)(nil)
)
