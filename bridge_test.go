package interop_test

import (
	"slices"
	"testing"
	"time"

	"github.com/xrlayers/interop"
	"github.com/xrlayers/interop/d3d"
	"github.com/xrlayers/interop/internal/sim"
)

// fixture is a D3D12 application talking to the simulated D3D11 runtime
// through the layer.
type fixture struct {
	t        *testing.T
	machine  *sim.Machine
	rt       *sim.Runtime
	entry    *interop.Entry
	loader   *sim.Loader
	instance interop.Instance
	system   interop.SystemID
	device   *sim.Device12
	queue    *sim.Queue12
}

func newFixture(t *testing.T, extensions ...string) *fixture {
	t.Helper()
	if extensions == nil {
		extensions = []string{interop.ExtensionD3D12Enable}
	}
	machine := sim.NewMachine(
		d3d.AdapterDesc{Description: "Integrated", LUID: d3d.LUID{LowPart: 0x10}},
		d3d.AdapterDesc{Description: "Discrete", LUID: d3d.LUID{LowPart: 0x20, HighPart: 1}},
	)
	rt := sim.NewRuntime(machine)
	entry := interop.NewEntry(interop.WithFactory(machine))
	loader := sim.NewLoader(entry, rt)

	instance, r := loader.CreateInstance(&interop.InstanceCreateInfo{
		ApplicationInfo:       interop.ApplicationInfo{ApplicationName: t.Name()},
		EnabledExtensionNames: extensions,
	})
	if r != interop.ResultSuccess {
		t.Fatalf("CreateInstance() = %v", r)
	}

	getSystem := sim.MustResolve[interop.GetSystemFunc](loader, interop.ProcGetSystem)
	system, r := getSystem(instance, &interop.SystemGetInfo{FormFactor: interop.FormFactorHeadMountedDisplay})
	if r != interop.ResultSuccess {
		t.Fatalf("GetSystem() = %v", r)
	}

	// The runtime reports the first adapter; the application follows it.
	device, err := machine.NewD3D12Device(0)
	if err != nil {
		t.Fatalf("NewD3D12Device() error = %v", err)
	}
	return &fixture{
		t:        t,
		machine:  machine,
		rt:       rt,
		entry:    entry,
		loader:   loader,
		instance: instance,
		system:   system,
		device:   device,
		queue:    device.NewQueue(),
	}
}

func (f *fixture) layer() *interop.Layer {
	f.t.Helper()
	h, ok := f.entry.Handler(f.instance)
	if !ok {
		f.t.Fatal("no handler for instance")
	}
	l, ok := h.(*interop.Layer)
	if !ok {
		f.t.Fatalf("handler is %T, want *interop.Layer", h)
	}
	return l
}

func (f *fixture) binding() *interop.GraphicsBindingD3D12 {
	return &interop.GraphicsBindingD3D12{Device: f.device, Queue: f.queue}
}

func (f *fixture) createSession(next interop.ChainStruct) (interop.Session, interop.Result) {
	create := sim.MustResolve[interop.CreateSessionFunc](f.loader, interop.ProcCreateSession)
	return create(f.instance, &interop.SessionCreateInfo{SystemID: f.system, Next: next})
}

func (f *fixture) mustSession() interop.Session {
	f.t.Helper()
	session, r := f.createSession(f.binding())
	if r != interop.ResultSuccess {
		f.t.Fatalf("CreateSession() = %v", r)
	}
	return session
}

func (f *fixture) createSwapchain(session interop.Session, format d3d.Format) (interop.Swapchain, interop.Result) {
	create := sim.MustResolve[interop.CreateSwapchainFunc](f.loader, interop.ProcCreateSwapchain)
	return create(session, &interop.SwapchainCreateInfo{
		UsageFlags:  interop.SwapchainUsageColorAttachment,
		Format:      int64(format),
		SampleCount: 1,
		Width:       64,
		Height:      32,
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
	})
}

func (f *fixture) mustSwapchain(session interop.Session) interop.Swapchain {
	f.t.Helper()
	sc, r := f.createSwapchain(session, d3d.FormatR8G8B8A8UnormSRGB)
	if r != interop.ResultSuccess {
		f.t.Fatalf("CreateSwapchain() = %v", r)
	}
	return sc
}

func (f *fixture) enumerate(sc interop.Swapchain, capacity uint32) ([]*interop.SwapchainImageD3D12, uint32, interop.Result) {
	enumerate := sim.MustResolve[interop.EnumerateSwapchainImagesFunc](f.loader, interop.ProcEnumerateSwapchainImages)
	out := make([]*interop.SwapchainImageD3D12, capacity)
	images := make([]interop.SwapchainImage, capacity)
	for i := range images {
		out[i] = &interop.SwapchainImageD3D12{}
		images[i] = out[i]
	}
	var count uint32
	r := enumerate(sc, capacity, &count, images)
	return out, count, r
}

func (f *fixture) endFrame(session interop.Session) interop.Result {
	end := sim.MustResolve[interop.EndFrameFunc](f.loader, interop.ProcEndFrame)
	return end(session, &interop.FrameEndInfo{})
}

func (f *fixture) destroySession(session interop.Session) interop.Result {
	destroy := sim.MustResolve[interop.DestroySessionFunc](f.loader, interop.ProcDestroySession)
	return destroy(session)
}

func (f *fixture) runtimeContext(session interop.Session) *sim.Context11 {
	f.t.Helper()
	p, ok := f.layer().RuntimeDevice(session)
	if !ok {
		f.t.Fatalf("session %d is not bridged", session)
	}
	_, ctx := p.D3D11()
	return ctx.(*sim.Context11)
}

// checkReleased verifies that only the application's device and queue are
// alive and that every shared handle was closed.
func (f *fixture) checkReleased() {
	f.t.Helper()
	s := f.machine.Stats()
	for kind, n := range s.Live {
		want := 0
		if kind == "device12" || kind == "queue12" {
			want = 1
		}
		if n != want {
			f.t.Errorf("%d live %s objects, want %d (%s)", n, kind, want, s)
		}
	}
	if s.OpenHandles != 0 {
		f.t.Errorf("%d shared handles left open", s.OpenHandles)
	}
	if s.OverReleases != 0 {
		f.t.Errorf("%d objects released twice", s.OverReleases)
	}
}

func TestNegotiationScenario(t *testing.T) {
	f := newFixture(t, "XR_KHR_D3D12_enable", "XR_KHR_foo")

	got := f.rt.EnabledExtensions()
	want := []string{"XR_KHR_foo", "XR_KHR_D3D11_enable"}
	if !slices.Equal(got, want) {
		t.Errorf("runtime extensions = %v, want %v", got, want)
	}
	if f.layer().HandledSystem() != f.system {
		t.Errorf("HandledSystem() = %d, want %d", f.layer().HandledSystem(), f.system)
	}
}

func TestInertInstance(t *testing.T) {
	machine := sim.NewMachine()
	rt := sim.NewRuntime(machine)
	entry := interop.NewEntry(interop.WithFactory(machine))
	loader := sim.NewLoader(entry, rt)

	instance, r := loader.CreateInstance(&interop.InstanceCreateInfo{
		EnabledExtensionNames: []string{"XR_KHR_foo", interop.ExtensionD3D11Enable},
	})
	if r != interop.ResultSuccess {
		t.Fatalf("CreateInstance() = %v", r)
	}
	if got := rt.EnabledExtensions(); !slices.Equal(got, []string{"XR_KHR_foo", interop.ExtensionD3D11Enable}) {
		t.Errorf("runtime extensions = %v", got)
	}
	h, _ := entry.Handler(instance)
	if _, ok := h.(interop.Passthrough); !ok {
		t.Fatalf("handler is %T, want interop.Passthrough", h)
	}

	// The application brings its own D3D11 device: nothing is bridged.
	system, r := sim.MustResolve[interop.GetSystemFunc](loader, interop.ProcGetSystem)(instance,
		&interop.SystemGetInfo{FormFactor: interop.FormFactorHeadMountedDisplay})
	if r != interop.ResultSuccess {
		t.Fatalf("GetSystem() = %v", r)
	}
	adapter, _ := machine.EnumAdapters(0)
	defer adapter.Release()
	dev11, ctx11, err := machine.CreateDevice(adapter, d3d.FeatureLevel11_0, 0)
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	defer dev11.Release()
	defer ctx11.Release()

	session, r := sim.MustResolve[interop.CreateSessionFunc](loader, interop.ProcCreateSession)(instance,
		&interop.SessionCreateInfo{SystemID: system, Next: &interop.GraphicsBindingD3D11{Device: dev11}})
	if r != interop.ResultSuccess {
		t.Fatalf("CreateSession() = %v", r)
	}
	got, _ := rt.SessionDevice(session)
	if got != dev11 {
		t.Error("runtime did not receive the application's D3D11 device")
	}
	if s := machine.Stats(); s.Live["fence11"] != 0 || s.Live["fence12"] != 0 {
		t.Errorf("inert instance created interop objects: %s", s)
	}
}

func TestGetD3D12GraphicsRequirements(t *testing.T) {
	f := newFixture(t)

	get := sim.MustResolve[interop.GetD3D12GraphicsRequirementsFunc](f.loader, interop.ProcGetD3D12GraphicsRequirements)
	var reqs interop.GraphicsRequirementsD3D12
	if r := get(f.instance, f.system, &reqs); r != interop.ResultSuccess {
		t.Fatalf("GetD3D12GraphicsRequirements() = %v", r)
	}
	if reqs.AdapterLUID != f.machine.Adapters()[0].LUID {
		t.Errorf("AdapterLUID = %+v, want %+v", reqs.AdapterLUID, f.machine.Adapters()[0].LUID)
	}
	if reqs.MinFeatureLevel != interop.MinD3D12FeatureLevel {
		t.Errorf("MinFeatureLevel = %#x, want %#x", reqs.MinFeatureLevel, interop.MinD3D12FeatureLevel)
	}

	f.rt.Fail(interop.ProcGetD3D11GraphicsRequirements, interop.ResultErrorSystemInvalid)
	if r := get(f.instance, f.system, &reqs); r != interop.ResultErrorSystemInvalid {
		t.Errorf("GetD3D12GraphicsRequirements() with failing runtime = %v, want %v", r, interop.ResultErrorSystemInvalid)
	}
	if r := get(f.instance, f.system, nil); r != interop.ResultErrorValidationFailure {
		t.Errorf("GetD3D12GraphicsRequirements(nil) = %v, want %v", r, interop.ResultErrorValidationFailure)
	}
}

func TestCreateSessionBridges(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	l := f.layer()

	if !l.IsSessionHandled(session) {
		t.Fatal("session not recorded")
	}
	if v, _ := l.FenceValue(session); v != 0 {
		t.Errorf("initial fence value = %d, want 0", v)
	}
	dev11, ok := f.rt.SessionDevice(session)
	if !ok {
		t.Fatal("runtime did not create the session")
	}
	if dev11.Adapter().LUID != f.device.AdapterLUID() {
		t.Errorf("D3D11 device on %+v, want adapter %+v", dev11.Adapter().LUID, f.device.AdapterLUID())
	}
	if dev11.FeatureLevel() != interop.RuntimeFeatureLevel {
		t.Errorf("D3D11 feature level = %#x, want %#x", dev11.FeatureLevel(), interop.RuntimeFeatureLevel)
	}
	if dev11.Flags()&d3d.CreateDeviceDebug != 0 {
		t.Error("debug device created without WithDebugDevice")
	}
	s := f.machine.Stats()
	if s.Live["fence11"] != 1 || s.Live["fence12"] != 1 || s.Live["adapter"] != 1 {
		t.Errorf("unexpected interop objects: %s", s)
	}
	if s.OpenHandles != 0 {
		t.Errorf("%d shared handles left open after session creation", s.OpenHandles)
	}
}

func TestCreateSessionMatchesAdapter(t *testing.T) {
	f := newFixture(t)
	device, err := f.machine.NewD3D12Device(1)
	if err != nil {
		t.Fatalf("NewD3D12Device() error = %v", err)
	}
	defer device.Release()
	queue := device.NewQueue()
	defer queue.Release()

	session, r := f.createSession(&interop.GraphicsBindingD3D12{Device: device, Queue: queue})
	if r != interop.ResultSuccess {
		t.Fatalf("CreateSession() = %v", r)
	}
	dev11, _ := f.rt.SessionDevice(session)
	if dev11.Adapter().Description != "Discrete" {
		t.Errorf("D3D11 device on %q, want %q", dev11.Adapter().Description, "Discrete")
	}
	if s := f.machine.Stats(); s.Live["adapter"] != 1 {
		t.Errorf("non-matching adapters not released: %s", s)
	}
}

func TestCreateSessionWithoutD3D12Binding(t *testing.T) {
	f := newFixture(t)

	adapter, _ := f.machine.EnumAdapters(0)
	dev11, ctx11, err := f.machine.CreateDevice(adapter, d3d.FeatureLevel11_0, 0)
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	session, r := f.createSession(&interop.GraphicsBindingD3D11{Device: dev11})
	if r != interop.ResultSuccess {
		t.Fatalf("CreateSession() = %v", r)
	}
	if f.layer().IsSessionHandled(session) {
		t.Error("session without D3D12 binding was recorded")
	}
	if r := f.endFrame(session); r != interop.ResultSuccess {
		t.Errorf("EndFrame() = %v", r)
	}
	if f.rt.Frames(session) != 1 {
		t.Error("EndFrame not forwarded")
	}
	if len(f.queue.Signals()) != 0 {
		t.Error("unhandled session signaled the application queue")
	}
	ctx11.Release()
	dev11.Release()
	adapter.Release()
}

func TestCreateSessionInvalidBinding(t *testing.T) {
	f := newFixture(t)

	_, r := f.createSession(&interop.GraphicsBindingD3D12{Device: f.device})
	if r != interop.ResultErrorGraphicsDeviceInvalid {
		t.Errorf("CreateSession(no queue) = %v, want %v", r, interop.ResultErrorGraphicsDeviceInvalid)
	}
	if slices.Contains(f.rt.Calls(), interop.ProcCreateSession) {
		t.Error("invalid binding reached the runtime")
	}
	f.checkReleased()
}

func chainOf(head interop.ChainStruct) []interop.ChainStruct {
	var nodes []interop.ChainStruct
	for n := head; n != nil; n = n.NextStruct() {
		nodes = append(nodes, n)
	}
	return nodes
}

func TestCreateSessionFailureLeavesChainIntact(t *testing.T) {
	f := newFixture(t)
	f.rt.Fail(interop.ProcCreateSession, interop.ResultErrorOutOfMemory)

	tail := &interop.OpaqueStruct{Type: 1000099000, Payload: "tail"}
	binding := f.binding()
	binding.Next = tail
	overlay := &interop.SessionCreateInfoOverlay{SessionLayersPlacement: 7, Next: binding}

	nodes := chainOf(overlay)
	overlayCopy, bindingCopy, tailCopy := *overlay, *binding, *tail

	session, r := f.createSession(overlay)
	if r != interop.ResultErrorOutOfMemory {
		t.Fatalf("CreateSession() = %v, want %v", r, interop.ResultErrorOutOfMemory)
	}
	if session != 0 {
		t.Errorf("session = %d, want 0", session)
	}

	after := chainOf(overlay)
	if len(after) != len(nodes) {
		t.Fatalf("chain length = %d, want %d", len(after), len(nodes))
	}
	for i := range nodes {
		if after[i] != nodes[i] {
			t.Errorf("chain node %d replaced", i)
		}
	}
	if *overlay != overlayCopy || *binding != bindingCopy || *tail != tailCopy {
		t.Error("chain nodes modified")
	}
	if len(f.layer().Sessions()) != 0 {
		t.Error("failed session recorded")
	}
	f.checkReleased()
}

func TestCreateSessionSuccessLeavesChainIntact(t *testing.T) {
	f := newFixture(t)

	binding := f.binding()
	overlay := &interop.SessionCreateInfoOverlay{Next: binding}
	overlayCopy, bindingCopy := *overlay, *binding

	if _, r := f.createSession(overlay); r != interop.ResultSuccess {
		t.Fatalf("CreateSession() = %v", r)
	}
	if *overlay != overlayCopy || *binding != bindingCopy {
		t.Error("chain nodes modified")
	}
}

func TestCreateSessionNativeFailures(t *testing.T) {
	ops := []string{
		sim.OpEnumAdapters,
		sim.OpCreateDevice,
		sim.OpCreateFence,
		sim.OpExportFence,
		sim.OpOpenSharedFence,
	}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			f.machine.Fail(op, nil)

			_, r := f.createSession(f.binding())
			if r != interop.ResultErrorRuntimeFailure {
				t.Errorf("CreateSession() = %v, want %v", r, interop.ResultErrorRuntimeFailure)
			}
			if slices.Contains(f.rt.Calls(), interop.ProcCreateSession) {
				t.Error("runtime called despite native failure")
			}
			if len(f.layer().Sessions()) != 0 {
				t.Error("failed session recorded")
			}
			f.checkReleased()
		})
	}
}

func TestCreateSessionAdapterNotFound(t *testing.T) {
	f := newFixture(t)
	device := f.machine.NewDeviceOnLUID(d3d.LUID{LowPart: 0xdead})
	defer device.Release()
	queue := device.NewQueue()
	defer queue.Release()

	_, r := f.createSession(&interop.GraphicsBindingD3D12{Device: device, Queue: queue})
	if r != interop.ResultErrorRuntimeFailure {
		t.Errorf("CreateSession() = %v, want %v", r, interop.ResultErrorRuntimeFailure)
	}
	if s := f.machine.Stats(); s.Live["adapter"] != 0 || s.Live["device11"] != 0 {
		t.Errorf("objects leaked: %s", s)
	}
}

func TestEndFrameSignalsAndWaits(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	ctx := f.runtimeContext(session)

	const frames = 5
	for i := 1; i <= frames; i++ {
		if r := f.endFrame(session); r != interop.ResultSuccess {
			t.Fatalf("EndFrame() #%d = %v", i, r)
		}
		if v, _ := f.layer().FenceValue(session); v != uint64(i) {
			t.Errorf("fence value after frame %d = %d", i, v)
		}
	}

	want := []uint64{1, 2, 3, 4, 5}
	if got := f.queue.Signals(); !slices.Equal(got, want) {
		t.Errorf("D3D12 signals = %v, want %v", got, want)
	}
	if got := ctx.Waits(); !slices.Equal(got, want) {
		t.Errorf("D3D11 waits = %v, want %v", got, want)
	}
	if f.rt.Frames(session) != frames {
		t.Errorf("runtime frames = %d, want %d", f.rt.Frames(session), frames)
	}
}

func TestEndFrameSignalFailure(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	f.machine.Fail(sim.OpSignal, nil)

	if r := f.endFrame(session); r != interop.ResultErrorRuntimeFailure {
		t.Errorf("EndFrame() = %v, want %v", r, interop.ResultErrorRuntimeFailure)
	}
	if v, _ := f.layer().FenceValue(session); v != 0 {
		t.Errorf("fence value advanced to %d on failed signal", v)
	}
	if f.rt.Frames(session) != 0 {
		t.Error("frame forwarded after failed signal")
	}

	f.machine.Heal(sim.OpSignal)
	if r := f.endFrame(session); r != interop.ResultSuccess {
		t.Fatalf("EndFrame() = %v", r)
	}
	if got := f.queue.Signals(); !slices.Equal(got, []uint64{1}) {
		t.Errorf("D3D12 signals = %v, want [1]", got)
	}
}

func TestEnumerateSwapchainImages(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc := f.mustSwapchain(session)

	_, count, r := f.enumerate(sc, 0)
	if r != interop.ResultSuccess {
		t.Fatalf("EnumerateSwapchainImages(0) = %v", r)
	}
	if count != 3 {
		t.Fatalf("image count = %d, want 3", count)
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 0 {
		t.Fatalf("count query imported images: %s", s)
	}

	images, count, r := f.enumerate(sc, count)
	if r != interop.ResultSuccess {
		t.Fatalf("EnumerateSwapchainImages(3) = %v", r)
	}
	textures := f.rt.SwapchainTextures(sc)
	seen := make(map[d3d.D3D12Resource]bool)
	for i := range count {
		res, ok := images[i].Texture.(*sim.Resource12)
		if !ok {
			t.Fatalf("image %d texture is %T", i, images[i].Texture)
		}
		if res.Texture() != textures[i] {
			t.Errorf("image %d aliases the wrong runtime texture", i)
		}
		if seen[res] {
			t.Errorf("image %d is a duplicate", i)
		}
		seen[res] = true
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 3 || s.OpenHandles != 0 {
		t.Errorf("unexpected import accounting: %s", s)
	}

	again, _, r := f.enumerate(sc, count)
	if r != interop.ResultSuccess {
		t.Fatalf("second EnumerateSwapchainImages() = %v", r)
	}
	for i := range again {
		if again[i].Texture != images[i].Texture {
			t.Errorf("image %d re-imported", i)
		}
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 3 {
		t.Errorf("second enumeration imported again: %s", s)
	}
}

func TestEnumerateSwapchainImagesSizeInsufficient(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc := f.mustSwapchain(session)

	_, count, r := f.enumerate(sc, 2)
	if r != interop.ResultErrorSizeInsufficient {
		t.Errorf("EnumerateSwapchainImages(2) = %v, want %v", r, interop.ResultErrorSizeInsufficient)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 0 {
		t.Errorf("failed enumeration imported images: %s", s)
	}
}

func TestEnumerateSwapchainImagesWrongType(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc := f.mustSwapchain(session)

	enumerate := sim.MustResolve[interop.EnumerateSwapchainImagesFunc](f.loader, interop.ProcEnumerateSwapchainImages)
	images := []interop.SwapchainImage{
		&interop.SwapchainImageD3D12{},
		&interop.SwapchainImageD3D11{},
		&interop.SwapchainImageD3D12{},
	}
	var count uint32
	if r := enumerate(sc, 3, &count, images); r != interop.ResultErrorValidationFailure {
		t.Errorf("EnumerateSwapchainImages(D3D11 images) = %v, want %v", r, interop.ResultErrorValidationFailure)
	}
	if r := enumerate(sc, 3, nil, images); r != interop.ResultErrorValidationFailure {
		t.Errorf("EnumerateSwapchainImages(nil count) = %v, want %v", r, interop.ResultErrorValidationFailure)
	}
}

func TestEnumerateDepthSwapchainFails(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc, r := f.createSwapchain(session, d3d.FormatD32Float)
	if r != interop.ResultSuccess {
		t.Fatalf("CreateSwapchain() = %v", r)
	}

	_, _, r = f.enumerate(sc, 3)
	if r != interop.ResultErrorRuntimeFailure {
		t.Errorf("EnumerateSwapchainImages(depth) = %v, want %v", r, interop.ResultErrorRuntimeFailure)
	}
	if !f.layer().IsSwapchainHandled(sc) {
		t.Error("swapchain record dropped by failed import")
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 0 || s.OpenHandles != 0 {
		t.Errorf("failed import leaked: %s", s)
	}
}

func TestEnumerateImportFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc := f.mustSwapchain(session)
	f.machine.Fail(sim.OpOpenSharedResource, nil)

	if _, _, r := f.enumerate(sc, 3); r != interop.ResultErrorRuntimeFailure {
		t.Fatalf("EnumerateSwapchainImages() = %v, want %v", r, interop.ResultErrorRuntimeFailure)
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 0 || s.OpenHandles != 0 {
		t.Errorf("failed import leaked: %s", s)
	}

	f.machine.Heal(sim.OpOpenSharedResource)
	if _, count, r := f.enumerate(sc, 3); r != interop.ResultSuccess || count != 3 {
		t.Errorf("EnumerateSwapchainImages() after heal = %d, %v", count, r)
	}
}

func TestDestroySwapchainReleasesImports(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc := f.mustSwapchain(session)
	if _, _, r := f.enumerate(sc, 3); r != interop.ResultSuccess {
		t.Fatalf("EnumerateSwapchainImages() = %v", r)
	}

	destroy := sim.MustResolve[interop.DestroySwapchainFunc](f.loader, interop.ProcDestroySwapchain)
	if r := destroy(sc); r != interop.ResultSuccess {
		t.Fatalf("DestroySwapchain() = %v", r)
	}
	if f.layer().IsSwapchainHandled(sc) {
		t.Error("swapchain record kept")
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 0 || s.Live["texture11"] != 0 {
		t.Errorf("swapchain objects leaked: %s", s)
	}
	if !f.layer().IsSessionHandled(session) {
		t.Error("session dropped with its swapchain")
	}
}

func TestZeroFrameTeardown(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()

	if r := f.destroySession(session); r != interop.ResultSuccess {
		t.Fatalf("DestroySession() = %v", r)
	}
	if got := f.queue.Signals(); !slices.Equal(got, []uint64{1}) {
		t.Errorf("D3D12 signals = %v, want [1]", got)
	}
	l := f.layer()
	if len(l.Sessions()) != 0 || len(l.Swapchains()) != 0 {
		t.Errorf("tables not empty: sessions %v, swapchains %v", l.Sessions(), l.Swapchains())
	}
	f.checkReleased()
}

func TestDestroySessionRemovesOnlyItsSwapchains(t *testing.T) {
	f := newFixture(t)
	a := f.mustSession()
	b := f.mustSession()
	a1, a2 := f.mustSwapchain(a), f.mustSwapchain(a)
	b1 := f.mustSwapchain(b)
	for _, sc := range []interop.Swapchain{a1, a2, b1} {
		if _, _, r := f.enumerate(sc, 3); r != interop.ResultSuccess {
			t.Fatalf("EnumerateSwapchainImages() = %v", r)
		}
	}
	for range 3 {
		f.endFrame(a)
	}

	if r := f.destroySession(a); r != interop.ResultSuccess {
		t.Fatalf("DestroySession() = %v", r)
	}
	l := f.layer()
	if got := l.Sessions(); !slices.Equal(got, []interop.Session{b}) {
		t.Errorf("sessions = %v, want [%d]", got, b)
	}
	if got := l.Swapchains(); !slices.Equal(got, []interop.Swapchain{b1}) {
		t.Errorf("swapchains = %v, want [%d]", got, b1)
	}
	if s := f.machine.Stats(); s.Live["resource12"] != 3 || s.Live["device11"] != 1 {
		t.Errorf("session b objects disturbed: %s", s)
	}

	if r := f.destroySession(b); r != interop.ResultSuccess {
		t.Fatalf("DestroySession() = %v", r)
	}
	f.checkReleased()
}

func TestDestroySessionWaitsForGPU(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	const latency = 20 * time.Millisecond
	f.queue.SetLatency(latency)
	defer f.queue.Idle()

	for range 3 {
		if r := f.endFrame(session); r != interop.ResultSuccess {
			t.Fatalf("EndFrame() = %v", r)
		}
	}
	start := time.Now()
	if r := f.destroySession(session); r != interop.ResultSuccess {
		t.Fatalf("DestroySession() = %v", r)
	}
	if elapsed := time.Since(start); elapsed < latency {
		t.Errorf("DestroySession returned after %v, before the final signal completed", elapsed)
	}
	if got := f.queue.Signals(); !slices.Equal(got, []uint64{1, 2, 3, 4}) {
		t.Errorf("D3D12 signals = %v, want [1 2 3 4]", got)
	}
	f.checkReleased()
}

func TestDestroySessionForwardFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	f.rt.Fail(interop.ProcDestroySession, interop.ResultErrorHandleInvalid)

	if r := f.destroySession(session); r != interop.ResultErrorHandleInvalid {
		t.Errorf("DestroySession() = %v, want %v", r, interop.ResultErrorHandleInvalid)
	}
	if !f.layer().IsSessionHandled(session) {
		t.Error("session dropped although the runtime kept it")
	}
	if len(f.queue.Signals()) != 0 {
		t.Error("drain ran although the runtime kept the session")
	}
}

func TestDestroyInstanceCleansUp(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	sc := f.mustSwapchain(session)
	if _, _, r := f.enumerate(sc, 3); r != interop.ResultSuccess {
		t.Fatalf("EnumerateSwapchainImages() = %v", r)
	}
	l := f.layer()

	destroy := sim.MustResolve[interop.DestroyInstanceFunc](f.loader, interop.ProcDestroyInstance)
	if r := destroy(f.instance); r != interop.ResultSuccess {
		t.Fatalf("DestroyInstance() = %v", r)
	}
	if _, ok := f.entry.Handler(f.instance); ok {
		t.Error("instance state kept")
	}
	if len(l.Sessions()) != 0 || len(l.Swapchains()) != 0 {
		t.Error("tables not empty after instance destruction")
	}
	f.checkReleased()

	if r := destroy(f.instance); r != interop.ResultErrorHandleInvalid {
		t.Errorf("second DestroyInstance() = %v, want %v", r, interop.ResultErrorHandleInvalid)
	}
}

func TestRuntimeDeviceProvider(t *testing.T) {
	f := newFixture(t)
	session := f.mustSession()
	f.mustSwapchain(session)
	f.endFrame(session)

	p, ok := f.layer().RuntimeDevice(session)
	if !ok {
		t.Fatal("RuntimeDevice() not found")
	}
	if got := p.SurfaceFormat(); got != d3d.FormatR8G8B8A8UnormSRGB.TextureFormat() {
		t.Errorf("SurfaceFormat() = %v", got)
	}
	if got := p.AdapterInfo().Name; got != "Integrated" {
		t.Errorf("AdapterInfo().Name = %q, want %q", got, "Integrated")
	}
	dev, ok := p.Device().(d3d.Poller)
	if !ok {
		t.Fatalf("Device() = %T, does not implement d3d.Poller", p.Device())
	}
	dev.Poll(true)
	if err := p.LastPollError(); err != nil {
		t.Errorf("Poll(true) error = %v", err)
	}
	ctx := f.runtimeContext(session)
	if ctx.Flushes() != 1 {
		t.Errorf("flushes = %d, want 1", ctx.Flushes())
	}

	if _, ok := f.layer().RuntimeDevice(interop.Session(999)); ok {
		t.Error("RuntimeDevice() found an unknown session")
	}
}
