// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"errors"
	"strings"
	"testing"

	"github.com/xrlayers/interop/d3d"
)

func newDevice(t *testing.T, m *Machine) (*Device11, *Context11) {
	t.Helper()
	adapter, err := m.EnumAdapters(0)
	if err != nil {
		t.Fatalf("EnumAdapters(0) error = %v", err)
	}
	dev, ctx, err := m.CreateDevice(adapter, d3d.FeatureLevel11_1, 0)
	adapter.Release()
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	return dev.(*Device11), ctx.(*Context11)
}

func TestMachineDefaultAdapter(t *testing.T) {
	m := NewMachine()
	adapters := m.Adapters()
	if len(adapters) != 1 || adapters[0].LUID.LowPart != 0x1234 {
		t.Fatalf("Adapters() = %+v", adapters)
	}
	if _, err := m.EnumAdapters(1); !errors.Is(err, d3d.ErrNotFound) {
		t.Errorf("EnumAdapters(1) error = %v, want ErrNotFound", err)
	}
	if _, err := m.EnumAdapters(-1); !errors.Is(err, d3d.ErrNotFound) {
		t.Errorf("EnumAdapters(-1) error = %v, want ErrNotFound", err)
	}
}

func TestMachineCreateDevice(t *testing.T) {
	m := NewMachine()
	adapter, err := m.EnumAdapters(0)
	if err != nil {
		t.Fatal(err)
	}
	defer adapter.Release()

	if _, _, err := m.CreateDevice(adapter, 0xd000, 0); err == nil {
		t.Error("CreateDevice() accepted an unsupported feature level")
	}
	if _, _, err := NewMachine().CreateDevice(adapter, d3d.FeatureLevel11_0, 0); err == nil {
		t.Error("CreateDevice() accepted a foreign adapter")
	}

	dev, ctx, err := m.CreateDevice(adapter, d3d.FeatureLevel11_1, d3d.CreateDeviceDebug)
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	d := dev.(*Device11)
	if d.FeatureLevel() != d3d.FeatureLevel11_1 || d.Flags() != d3d.CreateDeviceDebug {
		t.Errorf("device = level %#x flags %#x", uint32(d.FeatureLevel()), uint32(d.Flags()))
	}
	if ctx.(*Context11).Device() != d {
		t.Error("context does not belong to the device")
	}
	ctx.Release()
	dev.Release()
}

func TestMachineFailAndHeal(t *testing.T) {
	m := NewMachine()
	boom := errors.New("boom")
	m.Fail(OpEnumAdapters, boom)
	if _, err := m.EnumAdapters(0); !errors.Is(err, boom) {
		t.Errorf("EnumAdapters() error = %v, want boom", err)
	}
	m.Fail(OpEnumAdapters, nil)
	if _, err := m.EnumAdapters(0); !errors.Is(err, ErrInjected) {
		t.Errorf("EnumAdapters() error = %v, want ErrInjected", err)
	}
	m.Heal(OpEnumAdapters)
	adapter, err := m.EnumAdapters(0)
	if err != nil {
		t.Fatalf("EnumAdapters() after Heal error = %v", err)
	}
	adapter.Release()
}

func TestMachineStatsAccounting(t *testing.T) {
	m := NewMachine()
	dev, ctx := newDevice(t, m)

	stats := m.Stats()
	if stats.Live["device11"] != 1 || stats.Live["context11"] != 1 || stats.Live["adapter"] != 0 {
		t.Errorf("Stats() = %v", stats)
	}
	if stats.LiveTotal() != 2 {
		t.Errorf("LiveTotal() = %d, want 2", stats.LiveTotal())
	}

	ctx.Release()
	dev.Release()
	dev.Release()
	stats = m.Stats()
	if stats.LiveTotal() != 0 {
		t.Errorf("LiveTotal() = %d after release", stats.LiveTotal())
	}
	if stats.OverReleases != 1 {
		t.Errorf("OverReleases = %d, want 1", stats.OverReleases)
	}
	if !dev.Released() {
		t.Error("Released() = false")
	}
	if s := stats.String(); !strings.Contains(s, "over-released: 1") {
		t.Errorf("String() = %q", s)
	}
}

func TestHandleLifetime(t *testing.T) {
	m := NewMachine()
	dev, ctx := newDevice(t, m)
	defer dev.Release()
	defer ctx.Release()

	fence, err := dev.CreateFence(0, true)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Release()

	h, err := fence.CreateSharedHandle()
	if err != nil {
		t.Fatalf("CreateSharedHandle() error = %v", err)
	}
	if m.Stats().OpenHandles != 1 {
		t.Errorf("OpenHandles = %d, want 1", m.Stats().OpenHandles)
	}

	d12 := m.NewDeviceOnLUID(dev.Adapter().LUID)
	defer d12.Release()
	f12, err := d12.OpenSharedFence(h)
	if err != nil {
		t.Fatalf("OpenSharedFence() error = %v", err)
	}
	defer f12.Release()

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err == nil {
		t.Error("second Close() succeeded")
	}
	stats := m.Stats()
	if stats.OpenHandles != 0 || stats.OverReleases != 1 {
		t.Errorf("Stats() = %v", stats)
	}
	if _, err := d12.OpenSharedFence(h); err == nil {
		t.Error("OpenSharedFence() on a closed handle succeeded")
	}
}

func TestFenceNotShared(t *testing.T) {
	m := NewMachine()
	dev, ctx := newDevice(t, m)
	defer dev.Release()
	defer ctx.Release()

	fence, err := dev.CreateFence(0, false)
	if err != nil {
		t.Fatal(err)
	}
	defer fence.Release()
	if _, err := fence.CreateSharedHandle(); !errors.Is(err, d3d.ErrNotShareable) {
		t.Errorf("CreateSharedHandle() error = %v, want ErrNotShareable", err)
	}
}

func TestOpenSharedResourceChecksAdapter(t *testing.T) {
	m := NewMachine(
		d3d.AdapterDesc{Description: "A", LUID: d3d.LUID{LowPart: 1}},
		d3d.AdapterDesc{Description: "B", LUID: d3d.LUID{LowPart: 2}},
	)
	dev, ctx := newDevice(t, m)
	defer dev.Release()
	defer ctx.Release()

	tex := dev.NewTexture(d3d.TextureDesc{Width: 4, Height: 4, Format: d3d.FormatR8G8B8A8Unorm})
	defer tex.Release()

	h, err := tex.CreateSharedHandle()
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	other, err := m.NewD3D12Device(1)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Release()
	if _, err := other.OpenSharedResource(h); err == nil {
		t.Error("OpenSharedResource() on another adapter succeeded")
	}

	same, err := m.NewD3D12Device(0)
	if err != nil {
		t.Fatal(err)
	}
	defer same.Release()
	res, err := same.OpenSharedResource(h)
	if err != nil {
		t.Fatalf("OpenSharedResource() error = %v", err)
	}
	if res.(*Resource12).Texture() != tex {
		t.Error("resource does not alias the texture")
	}
	res.Release()

	if _, err := m.NewD3D12Device(2); !errors.Is(err, d3d.ErrNotFound) {
		t.Errorf("NewD3D12Device(2) error = %v, want ErrNotFound", err)
	}
}

func TestDepthTextureNotShareable(t *testing.T) {
	m := NewMachine()
	dev, ctx := newDevice(t, m)
	defer dev.Release()
	defer ctx.Release()

	tex := dev.NewTexture(d3d.TextureDesc{Width: 4, Height: 4, Format: d3d.FormatD32Float})
	defer tex.Release()
	if _, err := tex.CreateSharedHandle(); !errors.Is(err, d3d.ErrNotShareable) {
		t.Errorf("CreateSharedHandle() error = %v, want ErrNotShareable", err)
	}
}
