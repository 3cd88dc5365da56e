// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sim is a software stand-in for DXGI, Direct3D 11, Direct3D 12 and
// a Direct3D 11 OpenXR runtime.
//
// GPU work completes as soon as it is queued unless a queue is given a
// latency. Fences are shared counters; a D3D11 context flush completes
// once every value the context waited for was signaled, so ordering bugs
// between the two devices show up as hangs or out-of-order histories.
//
// Every object is accounted for: Machine.Stats reports live objects and
// open shared handles, which tests use to detect leaks.
package sim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xrlayers/interop/d3d"
)

// Operations that can be made to fail with Machine.Fail.
const (
	OpEnumAdapters       = "EnumAdapters"
	OpCreateDevice       = "CreateDevice"
	OpCreateFence        = "CreateFence"
	OpExportFence        = "ExportFence"
	OpExportTexture      = "ExportTexture"
	OpOpenSharedFence    = "OpenSharedFence"
	OpOpenSharedResource = "OpenSharedResource"
	OpSignal             = "Signal"
	OpWait               = "Wait"
	OpFlush              = "Flush"
)

// ErrInjected is the default error returned by failing operations.
var ErrInjected = errors.New("sim: injected failure")

// Stats reports the objects alive on a Machine.
type Stats struct {
	// Live counts unreleased objects per kind ("adapter", "device11", ...).
	Live map[string]int

	// OpenHandles is the number of shared handles not yet closed.
	OpenHandles int

	// OverReleases counts objects released or closed more than once.
	OverReleases int
}

// LiveTotal returns the number of unreleased objects of every kind.
func (s Stats) LiveTotal() int {
	n := 0
	for _, c := range s.Live {
		n += c
	}
	return n
}

// String returns a human-readable summary.
func (s Stats) String() string {
	kinds := make([]string, 0, len(s.Live))
	for k, c := range s.Live {
		if c != 0 {
			kinds = append(kinds, fmt.Sprintf("%s=%d", k, c))
		}
	}
	sort.Strings(kinds)
	return fmt.Sprintf("Sim[live: %s, handles: %d, over-released: %d]",
		strings.Join(kinds, " "), s.OpenHandles, s.OverReleases)
}

// Machine owns the simulated adapters and the process-local shared handle
// table. It implements d3d.Factory.
//
// Machine is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	adapters []d3d.AdapterDesc
	handles  map[uint64]any
	nextID   uint64
	live     map[string]int
	over     int
	failures map[string]error
}

// NewMachine creates a machine with the given adapters. Without adapters a
// single default adapter is installed.
func NewMachine(adapters ...d3d.AdapterDesc) *Machine {
	if len(adapters) == 0 {
		adapters = []d3d.AdapterDesc{{
			Description: "Simulated Adapter",
			LUID:        d3d.LUID{LowPart: 0x1234, HighPart: 0},
			Software:    true,
		}}
	}
	return &Machine{
		adapters: adapters,
		handles:  make(map[uint64]any),
		live:     make(map[string]int),
		failures: make(map[string]error),
	}
}

// Adapters returns the adapter descriptions.
func (m *Machine) Adapters() []d3d.AdapterDesc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]d3d.AdapterDesc(nil), m.adapters...)
}

// Fail makes op fail with err from now on. A nil err uses ErrInjected.
func (m *Machine) Fail(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	m.mu.Lock()
	m.failures[op] = err
	m.mu.Unlock()
}

// Heal clears the failure installed for op.
func (m *Machine) Heal(op string) {
	m.mu.Lock()
	delete(m.failures, op)
	m.mu.Unlock()
}

func (m *Machine) fault(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Stats returns a snapshot of the object accounting.
func (m *Machine) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := make(map[string]int, len(m.live))
	for k, c := range m.live {
		live[k] = c
	}
	return Stats{Live: live, OpenHandles: len(m.handles), OverReleases: m.over}
}

// object is the release accounting shared by every simulated object.
type object struct {
	m        *Machine
	kind     string
	released bool
}

func (m *Machine) newObject(kind string) object {
	m.mu.Lock()
	m.live[kind]++
	m.mu.Unlock()
	return object{m: m, kind: kind}
}

func (o *object) release() {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	if o.released {
		o.m.over++
		slogger().Warn("object released twice", "kind", o.kind)
		return
	}
	o.released = true
	o.m.live[o.kind]--
}

// Released reports whether the object was released.
func (o *object) Released() bool {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return o.released
}

// Handle is a simulated NT handle to a shared fence or texture.
type Handle struct {
	m  *Machine
	id uint64
}

// Close implements d3d.SharedHandle.
func (h *Handle) Close() error {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	if _, ok := h.m.handles[h.id]; !ok {
		h.m.over++
		return fmt.Errorf("sim: handle %d already closed", h.id)
	}
	delete(h.m.handles, h.id)
	return nil
}

func (m *Machine) export(target any) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.handles[m.nextID] = target
	return &Handle{m: m, id: m.nextID}
}

func (m *Machine) open(h d3d.SharedHandle) (any, error) {
	sh, ok := h.(*Handle)
	if !ok || sh.m != m {
		return nil, fmt.Errorf("sim: foreign handle %T", h)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.handles[sh.id]
	if !ok {
		return nil, fmt.Errorf("sim: handle %d is closed", sh.id)
	}
	return target, nil
}

// Adapter is a simulated DXGI adapter.
type Adapter struct {
	object
	desc d3d.AdapterDesc
}

// Desc implements d3d.Adapter.
func (a *Adapter) Desc() (d3d.AdapterDesc, error) { return a.desc, nil }

// Release implements d3d.Adapter.
func (a *Adapter) Release() { a.release() }

// EnumAdapters implements d3d.Factory.
func (m *Machine) EnumAdapters(index int) (d3d.Adapter, error) {
	if err := m.fault(OpEnumAdapters); err != nil {
		return nil, err
	}
	m.mu.Lock()
	n := len(m.adapters)
	m.mu.Unlock()
	if index < 0 || index >= n {
		return nil, d3d.ErrNotFound
	}
	m.mu.Lock()
	desc := m.adapters[index]
	m.mu.Unlock()
	return &Adapter{object: m.newObject("adapter"), desc: desc}, nil
}

// CreateDevice implements d3d.Factory.
func (m *Machine) CreateDevice(adapter d3d.Adapter, level d3d.FeatureLevel, flags d3d.CreateDeviceFlags) (d3d.D3D11Device, d3d.D3D11Context, error) {
	a, ok := adapter.(*Adapter)
	if !ok || a.m != m {
		return nil, nil, fmt.Errorf("sim: foreign adapter %T", adapter)
	}
	if err := m.fault(OpCreateDevice); err != nil {
		return nil, nil, err
	}
	if level > d3d.FeatureLevel12_1 {
		return nil, nil, fmt.Errorf("sim: feature level %#x not supported", uint32(level))
	}
	dev := &Device11{
		object:  m.newObject("device11"),
		adapter: a.desc,
		level:   level,
		flags:   flags,
	}
	ctx := &Context11{object: m.newObject("context11"), device: dev}
	slogger().Debug("D3D11 device created", "adapter", a.desc.Description, "level", fmt.Sprintf("%#x", uint32(level)))
	return dev, ctx, nil
}

var _ d3d.Factory = (*Machine)(nil)
