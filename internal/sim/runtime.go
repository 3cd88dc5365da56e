// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"slices"
	"strings"
	"sync"

	"github.com/xrlayers/interop"
	"github.com/xrlayers/interop/d3d"
)

// Runtime is a simulated OpenXR runtime that only supports Direct3D 11.
// It is the terminal element of the call chain.
type Runtime struct {
	machine *Machine

	// Name and Version are reported by xrGetInstanceProperties.
	Name    string
	Version interop.Version

	// ImageCount is the number of images allocated per swapchain.
	ImageCount uint32

	mu         sync.Mutex
	nextHandle uint64
	instance   interop.Instance
	extensions []string
	systemID   interop.SystemID
	sessions   map[interop.Session]*runtimeSession
	swapchains map[interop.Swapchain]*runtimeSwapchain
	failures   map[string]interop.Result
	calls      []string
}

type runtimeSession struct {
	device *Device11
	frames int
}

type runtimeSwapchain struct {
	session  interop.Session
	info     interop.SwapchainCreateInfo
	textures []*Texture
}

// NewRuntime creates a runtime whose devices must live on machine.
func NewRuntime(machine *Machine) *Runtime {
	return &Runtime{
		machine:    machine,
		Name:       "Simulated D3D11 Runtime",
		Version:    interop.MakeVersion(1, 0, 0),
		ImageCount: 3,
		sessions:   make(map[interop.Session]*runtimeSession),
		swapchains: make(map[interop.Swapchain]*runtimeSwapchain),
		failures:   make(map[string]interop.Result),
	}
}

// Fail makes the entry point name return result from now on.
func (rt *Runtime) Fail(name string, result interop.Result) {
	rt.mu.Lock()
	rt.failures[name] = result
	rt.mu.Unlock()
}

// Heal clears the failure installed for name.
func (rt *Runtime) Heal(name string) {
	rt.mu.Lock()
	delete(rt.failures, name)
	rt.mu.Unlock()
}

// enter records the call and returns the injected failure, if any.
func (rt *Runtime) enter(name string) interop.Result {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.calls = append(rt.calls, name)
	if r, ok := rt.failures[name]; ok {
		return r
	}
	return interop.ResultSuccess
}

// Calls returns the entry points invoked on the runtime, in order.
func (rt *Runtime) Calls() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.calls...)
}

// EnabledExtensions returns the extensions the instance was created with.
func (rt *Runtime) EnabledExtensions() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.extensions...)
}

// SessionDevice returns the D3D11 device the session was created with.
func (rt *Runtime) SessionDevice(session interop.Session) (*Device11, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s, ok := rt.sessions[session]
	if !ok {
		return nil, false
	}
	return s.device, true
}

// Frames returns the number of xrEndFrame calls on session.
func (rt *Runtime) Frames(session interop.Session) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if s, ok := rt.sessions[session]; ok {
		return s.frames
	}
	return 0
}

// SwapchainTextures returns the textures allocated for swapchain.
func (rt *Runtime) SwapchainTextures(swapchain interop.Swapchain) []*Texture {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if sc, ok := rt.swapchains[swapchain]; ok {
		return append([]*Texture(nil), sc.textures...)
	}
	return nil
}

func (rt *Runtime) hasExtension(name string) bool {
	return slices.ContainsFunc(rt.extensions, func(e string) bool { return strings.EqualFold(e, name) })
}

func (rt *Runtime) newHandle() uint64 {
	rt.nextHandle++
	return rt.nextHandle
}

// CreateApiLayerInstance implements the terminal xrCreateApiLayerInstance.
func (rt *Runtime) CreateApiLayerInstance(info *interop.InstanceCreateInfo, _ *interop.ApiLayerCreateInfo) (interop.Instance, interop.Result) {
	if r := rt.enter("xrCreateInstance"); r.Failed() {
		return 0, r
	}
	if info == nil {
		return 0, interop.ResultErrorValidationFailure
	}
	for _, ext := range info.EnabledExtensionNames {
		if strings.EqualFold(ext, interop.ExtensionD3D12Enable) {
			return 0, interop.ResultErrorExtensionNotPresent
		}
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.extensions = append([]string(nil), info.EnabledExtensionNames...)
	rt.instance = interop.Instance(rt.newHandle())
	return rt.instance, interop.ResultSuccess
}

// GetInstanceProcAddr implements the terminal xrGetInstanceProcAddr.
func (rt *Runtime) GetInstanceProcAddr(instance interop.Instance, name string) (interop.Proc, interop.Result) {
	rt.mu.Lock()
	valid := instance != 0 && instance == rt.instance
	d3d11 := rt.hasExtension(interop.ExtensionD3D11Enable)
	rt.mu.Unlock()
	if !valid {
		return nil, interop.ResultErrorHandleInvalid
	}

	switch name {
	case interop.ProcGetInstanceProcAddr:
		return interop.GetInstanceProcAddrFunc(rt.GetInstanceProcAddr), interop.ResultSuccess
	case interop.ProcDestroyInstance:
		return interop.DestroyInstanceFunc(rt.destroyInstance), interop.ResultSuccess
	case interop.ProcGetInstanceProperties:
		return interop.GetInstancePropertiesFunc(rt.getInstanceProperties), interop.ResultSuccess
	case interop.ProcGetSystem:
		return interop.GetSystemFunc(rt.getSystem), interop.ResultSuccess
	case interop.ProcGetSystemProperties:
		return interop.GetSystemPropertiesFunc(rt.getSystemProperties), interop.ResultSuccess
	case interop.ProcGetD3D11GraphicsRequirements:
		if !d3d11 {
			return nil, interop.ResultErrorFunctionUnsupported
		}
		return interop.GetD3D11GraphicsRequirementsFunc(rt.getD3D11GraphicsRequirements), interop.ResultSuccess
	case interop.ProcCreateSession:
		return interop.CreateSessionFunc(rt.createSession), interop.ResultSuccess
	case interop.ProcDestroySession:
		return interop.DestroySessionFunc(rt.destroySession), interop.ResultSuccess
	case interop.ProcCreateSwapchain:
		return interop.CreateSwapchainFunc(rt.createSwapchain), interop.ResultSuccess
	case interop.ProcDestroySwapchain:
		return interop.DestroySwapchainFunc(rt.destroySwapchain), interop.ResultSuccess
	case interop.ProcEnumerateSwapchainImages:
		return interop.EnumerateSwapchainImagesFunc(rt.enumerateSwapchainImages), interop.ResultSuccess
	case interop.ProcEndFrame:
		return interop.EndFrameFunc(rt.endFrame), interop.ResultSuccess
	}
	return nil, interop.ResultErrorFunctionUnsupported
}

func (rt *Runtime) destroyInstance(instance interop.Instance) interop.Result {
	if r := rt.enter(interop.ProcDestroyInstance); r.Failed() {
		return r
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if instance != rt.instance {
		return interop.ResultErrorHandleInvalid
	}
	for _, sc := range rt.swapchains {
		for _, t := range sc.textures {
			t.Release()
		}
	}
	rt.swapchains = make(map[interop.Swapchain]*runtimeSwapchain)
	rt.sessions = make(map[interop.Session]*runtimeSession)
	rt.instance = 0
	return interop.ResultSuccess
}

func (rt *Runtime) getInstanceProperties(_ interop.Instance, props *interop.InstanceProperties) interop.Result {
	if r := rt.enter(interop.ProcGetInstanceProperties); r.Failed() {
		return r
	}
	if props == nil {
		return interop.ResultErrorValidationFailure
	}
	props.RuntimeName = rt.Name
	props.RuntimeVersion = rt.Version
	return interop.ResultSuccess
}

func (rt *Runtime) getSystem(_ interop.Instance, info *interop.SystemGetInfo) (interop.SystemID, interop.Result) {
	if r := rt.enter(interop.ProcGetSystem); r.Failed() {
		return 0, r
	}
	if info == nil {
		return 0, interop.ResultErrorValidationFailure
	}
	if info.FormFactor != interop.FormFactorHeadMountedDisplay {
		return 0, interop.ResultErrorFormFactorUnsupported
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.systemID == 0 {
		rt.systemID = interop.SystemID(rt.newHandle())
	}
	return rt.systemID, interop.ResultSuccess
}

func (rt *Runtime) getSystemProperties(_ interop.Instance, system interop.SystemID, props *interop.SystemProperties) interop.Result {
	if r := rt.enter(interop.ProcGetSystemProperties); r.Failed() {
		return r
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if system == 0 || system != rt.systemID {
		return interop.ResultErrorSystemInvalid
	}
	if props == nil {
		return interop.ResultErrorValidationFailure
	}
	props.SystemID = system
	props.VendorID = 0x1d3d
	props.SystemName = "Simulated HMD"
	return interop.ResultSuccess
}

func (rt *Runtime) getD3D11GraphicsRequirements(_ interop.Instance, system interop.SystemID, reqs *interop.GraphicsRequirementsD3D11) interop.Result {
	if r := rt.enter(interop.ProcGetD3D11GraphicsRequirements); r.Failed() {
		return r
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if system == 0 || system != rt.systemID {
		return interop.ResultErrorSystemInvalid
	}
	if reqs == nil {
		return interop.ResultErrorValidationFailure
	}
	adapters := rt.machine.Adapters()
	reqs.AdapterLUID = adapters[0].LUID
	reqs.MinFeatureLevel = d3d.FeatureLevel11_0
	return interop.ResultSuccess
}

func (rt *Runtime) createSession(_ interop.Instance, info *interop.SessionCreateInfo) (interop.Session, interop.Result) {
	if r := rt.enter(interop.ProcCreateSession); r.Failed() {
		return 0, r
	}
	if info == nil {
		return 0, interop.ResultErrorValidationFailure
	}
	if _, i := interop.FindInChain(info.Next, interop.TypeGraphicsBindingD3D12); i >= 0 {
		return 0, interop.ResultErrorGraphicsDeviceInvalid
	}
	node, _ := interop.FindInChain(info.Next, interop.TypeGraphicsBindingD3D11)
	binding, ok := node.(*interop.GraphicsBindingD3D11)
	if !ok {
		return 0, interop.ResultErrorGraphicsDeviceInvalid
	}
	device, ok := binding.Device.(*Device11)
	if !ok || device.m != rt.machine || device.Released() {
		return 0, interop.ResultErrorGraphicsDeviceInvalid
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if info.SystemID == 0 || info.SystemID != rt.systemID {
		return 0, interop.ResultErrorSystemInvalid
	}
	session := interop.Session(rt.newHandle())
	rt.sessions[session] = &runtimeSession{device: device}
	return session, interop.ResultSuccess
}

func (rt *Runtime) destroySession(session interop.Session) interop.Result {
	if r := rt.enter(interop.ProcDestroySession); r.Failed() {
		return r
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, ok := rt.sessions[session]; !ok {
		return interop.ResultErrorHandleInvalid
	}
	for handle, sc := range rt.swapchains {
		if sc.session != session {
			continue
		}
		for _, t := range sc.textures {
			t.Release()
		}
		delete(rt.swapchains, handle)
	}
	delete(rt.sessions, session)
	return interop.ResultSuccess
}

func (rt *Runtime) createSwapchain(session interop.Session, info *interop.SwapchainCreateInfo) (interop.Swapchain, interop.Result) {
	if r := rt.enter(interop.ProcCreateSwapchain); r.Failed() {
		return 0, r
	}
	if info == nil || info.Width == 0 || info.Height == 0 {
		return 0, interop.ResultErrorValidationFailure
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s, ok := rt.sessions[session]
	if !ok {
		return 0, interop.ResultErrorHandleInvalid
	}

	arraySize := max(info.ArraySize, 1)
	mips := max(info.MipCount, 1)
	samples := max(info.SampleCount, 1)
	textures := make([]*Texture, rt.ImageCount)
	for i := range textures {
		textures[i] = s.device.NewTexture(d3d.TextureDesc{
			Width:       info.Width,
			Height:      info.Height,
			ArraySize:   arraySize,
			MipLevels:   mips,
			SampleCount: samples,
			Format:      d3d.Format(info.Format), //nolint:gosec // DXGI formats fit uint32
			BindFlags:   bindFlags(info.UsageFlags),
			MiscFlags:   miscSharedNTHandle,
		})
	}
	swapchain := interop.Swapchain(rt.newHandle())
	rt.swapchains[swapchain] = &runtimeSwapchain{session: session, info: *info, textures: textures}
	return swapchain, interop.ResultSuccess
}

// D3D11 bind and misc flags the runtime sets on swapchain textures.
const (
	bindShaderResource  = 0x8
	bindRenderTarget    = 0x20
	bindDepthStencil    = 0x40
	bindUnorderedAccess = 0x80
	miscSharedNTHandle  = 0x800
)

func bindFlags(usage interop.SwapchainUsageFlags) uint32 {
	var flags uint32
	if usage&interop.SwapchainUsageColorAttachment != 0 {
		flags |= bindRenderTarget
	}
	if usage&interop.SwapchainUsageDepthStencilAttachment != 0 {
		flags |= bindDepthStencil
	}
	if usage&interop.SwapchainUsageSampled != 0 {
		flags |= bindShaderResource
	}
	if usage&interop.SwapchainUsageUnorderedAccess != 0 {
		flags |= bindUnorderedAccess
	}
	return flags
}

func (rt *Runtime) destroySwapchain(swapchain interop.Swapchain) interop.Result {
	if r := rt.enter(interop.ProcDestroySwapchain); r.Failed() {
		return r
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sc, ok := rt.swapchains[swapchain]
	if !ok {
		return interop.ResultErrorHandleInvalid
	}
	for _, t := range sc.textures {
		t.Release()
	}
	delete(rt.swapchains, swapchain)
	return interop.ResultSuccess
}

func (rt *Runtime) enumerateSwapchainImages(swapchain interop.Swapchain, capacity uint32, countOutput *uint32, images []interop.SwapchainImage) interop.Result {
	if r := rt.enter(interop.ProcEnumerateSwapchainImages); r.Failed() {
		return r
	}
	if countOutput == nil {
		return interop.ResultErrorValidationFailure
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	sc, ok := rt.swapchains[swapchain]
	if !ok {
		return interop.ResultErrorHandleInvalid
	}
	n := uint32(len(sc.textures)) //nolint:gosec // image counts are small
	*countOutput = n
	if capacity == 0 {
		return interop.ResultSuccess
	}
	if capacity < n || uint32(len(images)) < n { //nolint:gosec // image counts are small
		return interop.ResultErrorSizeInsufficient
	}
	for i, t := range sc.textures {
		img, ok := images[i].(*interop.SwapchainImageD3D11)
		if !ok {
			return interop.ResultErrorValidationFailure
		}
		img.Texture = t
	}
	return interop.ResultSuccess
}

func (rt *Runtime) endFrame(session interop.Session, _ *interop.FrameEndInfo) interop.Result {
	if r := rt.enter(interop.ProcEndFrame); r.Failed() {
		return r
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	s, ok := rt.sessions[session]
	if !ok {
		return interop.ResultErrorHandleInvalid
	}
	s.frames++
	return interop.ResultSuccess
}
