package interop

import (
	"fmt"
	"sync"
)

// Proc is a resolved entry point. Its dynamic type is one of the *Func
// types below, selected by the entry point name.
type Proc any

// Entry point signatures exchanged through GetInstanceProcAddr. They mirror
// the C prototypes: results are reported as Result, never as error.
type (
	GetInstanceProcAddrFunc          func(instance Instance, name string) (Proc, Result)
	CreateApiLayerInstanceFunc       func(info *InstanceCreateInfo, layerInfo *ApiLayerCreateInfo) (Instance, Result)
	DestroyInstanceFunc              func(instance Instance) Result
	GetInstancePropertiesFunc        func(instance Instance, props *InstanceProperties) Result
	GetSystemFunc                    func(instance Instance, info *SystemGetInfo) (SystemID, Result)
	GetSystemPropertiesFunc          func(instance Instance, system SystemID, props *SystemProperties) Result
	GetD3D11GraphicsRequirementsFunc func(instance Instance, system SystemID, reqs *GraphicsRequirementsD3D11) Result
	GetD3D12GraphicsRequirementsFunc func(instance Instance, system SystemID, reqs *GraphicsRequirementsD3D12) Result
	CreateSessionFunc                func(instance Instance, info *SessionCreateInfo) (Session, Result)
	DestroySessionFunc               func(session Session) Result
	CreateSwapchainFunc              func(session Session, info *SwapchainCreateInfo) (Swapchain, Result)
	DestroySwapchainFunc             func(swapchain Swapchain) Result
	EnumerateSwapchainImagesFunc     func(swapchain Swapchain, capacity uint32, countOutput *uint32, images []SwapchainImage) Result
	EndFrameFunc                     func(session Session, info *FrameEndInfo) Result
)

// Entry point names.
const (
	ProcGetInstanceProcAddr          = "xrGetInstanceProcAddr"
	ProcDestroyInstance              = "xrDestroyInstance"
	ProcGetInstanceProperties        = "xrGetInstanceProperties"
	ProcGetSystem                    = "xrGetSystem"
	ProcGetSystemProperties          = "xrGetSystemProperties"
	ProcGetD3D11GraphicsRequirements = "xrGetD3D11GraphicsRequirementsKHR"
	ProcGetD3D12GraphicsRequirements = "xrGetD3D12GraphicsRequirementsKHR"
	ProcCreateSession                = "xrCreateSession"
	ProcDestroySession               = "xrDestroySession"
	ProcCreateSwapchain              = "xrCreateSwapchain"
	ProcDestroySwapchain             = "xrDestroySwapchain"
	ProcEnumerateSwapchainImages     = "xrEnumerateSwapchainImages"
	ProcEndFrame                     = "xrEndFrame"
)

// dispatch is the Handler for the next element of the chain. Entry points
// are resolved lazily through the next GetInstanceProcAddr and cached.
type dispatch struct {
	gipa     GetInstanceProcAddrFunc
	instance Instance

	mu    sync.Mutex
	procs map[string]Proc
}

func newDispatch(gipa GetInstanceProcAddrFunc, instance Instance) *dispatch {
	return &dispatch{
		gipa:     gipa,
		instance: instance,
		procs:    make(map[string]Proc),
	}
}

func (d *dispatch) resolve(name string) (Proc, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.procs[name]; ok {
		return p, nil
	}
	p, r := d.gipa(d.instance, name)
	if r.Failed() {
		return nil, r
	}
	if p == nil {
		return nil, ResultErrorFunctionUnsupported
	}
	d.procs[name] = p
	return p, nil
}

// Has reports whether the next element exposes name.
func (d *dispatch) Has(name string) bool {
	_, err := d.resolve(name)
	return err == nil
}

// lookup resolves name and asserts its signature.
func lookup[F any](d *dispatch, name string) (F, error) {
	var zero F
	p, err := d.resolve(name)
	if err != nil {
		return zero, err
	}
	f, ok := p.(F)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected signature %T: %w", name, p, ResultErrorFunctionUnsupported)
	}
	return f, nil
}

func (d *dispatch) GetInstanceProperties(instance Instance) (InstanceProperties, error) {
	var props InstanceProperties
	f, err := lookup[GetInstancePropertiesFunc](d, ProcGetInstanceProperties)
	if err != nil {
		return props, err
	}
	r := f(instance, &props)
	return props, r.Err()
}

func (d *dispatch) GetSystem(instance Instance, info *SystemGetInfo) (SystemID, error) {
	f, err := lookup[GetSystemFunc](d, ProcGetSystem)
	if err != nil {
		return 0, err
	}
	id, r := f(instance, info)
	return id, r.Err()
}

func (d *dispatch) GetSystemProperties(instance Instance, system SystemID) (SystemProperties, error) {
	var props SystemProperties
	f, err := lookup[GetSystemPropertiesFunc](d, ProcGetSystemProperties)
	if err != nil {
		return props, err
	}
	r := f(instance, system, &props)
	return props, r.Err()
}

func (d *dispatch) GetD3D11GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D11, error) {
	var reqs GraphicsRequirementsD3D11
	f, err := lookup[GetD3D11GraphicsRequirementsFunc](d, ProcGetD3D11GraphicsRequirements)
	if err != nil {
		return reqs, err
	}
	r := f(instance, system, &reqs)
	return reqs, r.Err()
}

func (d *dispatch) GetD3D12GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D12, error) {
	var reqs GraphicsRequirementsD3D12
	f, err := lookup[GetD3D12GraphicsRequirementsFunc](d, ProcGetD3D12GraphicsRequirements)
	if err != nil {
		return reqs, err
	}
	r := f(instance, system, &reqs)
	return reqs, r.Err()
}

func (d *dispatch) CreateSession(instance Instance, info *SessionCreateInfo) (Session, error) {
	f, err := lookup[CreateSessionFunc](d, ProcCreateSession)
	if err != nil {
		return 0, err
	}
	s, r := f(instance, info)
	return s, r.Err()
}

func (d *dispatch) DestroySession(session Session) error {
	f, err := lookup[DestroySessionFunc](d, ProcDestroySession)
	if err != nil {
		return err
	}
	return f(session).Err()
}

func (d *dispatch) CreateSwapchain(session Session, info *SwapchainCreateInfo) (Swapchain, error) {
	f, err := lookup[CreateSwapchainFunc](d, ProcCreateSwapchain)
	if err != nil {
		return 0, err
	}
	sc, r := f(session, info)
	return sc, r.Err()
}

func (d *dispatch) DestroySwapchain(swapchain Swapchain) error {
	f, err := lookup[DestroySwapchainFunc](d, ProcDestroySwapchain)
	if err != nil {
		return err
	}
	return f(swapchain).Err()
}

func (d *dispatch) EnumerateSwapchainImages(swapchain Swapchain, capacity uint32, images []SwapchainImage) (uint32, error) {
	f, err := lookup[EnumerateSwapchainImagesFunc](d, ProcEnumerateSwapchainImages)
	if err != nil {
		return 0, err
	}
	var count uint32
	r := f(swapchain, capacity, &count, images)
	return count, r.Err()
}

func (d *dispatch) EndFrame(session Session, info *FrameEndInfo) error {
	f, err := lookup[EndFrameFunc](d, ProcEndFrame)
	if err != nil {
		return err
	}
	return f(session, info).Err()
}

func (d *dispatch) DestroyInstance(instance Instance) error {
	f, err := lookup[DestroyInstanceFunc](d, ProcDestroyInstance)
	if err != nil {
		return err
	}
	return f(instance).Err()
}

var _ Handler = (*dispatch)(nil)
