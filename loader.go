package interop

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// Loader interface structure tags (XrLoaderInterfaceStructs).
const (
	LoaderStructApiLayerCreateInfo uint32 = 4
	LoaderStructApiLayerNextInfo   uint32 = 5
)

// Versions of the loader structures the layer was built against.
const (
	ApiLayerCreateInfoVersion uint32 = 1
	ApiLayerNextInfoVersion   uint32 = 1
)

// ApiLayerCreateInfo is XrApiLayerCreateInfo, handed to the layer by the
// loader or by the previous layer.
type ApiLayerCreateInfo struct {
	StructType           uint32
	StructVersion        uint32
	StructSize           uintptr
	LoaderInstance       uintptr
	SettingsFileLocation string
	NextInfo             *ApiLayerNextInfo
}

// ApiLayerNextInfo is XrApiLayerNextInfo: one link of the call chain.
type ApiLayerNextInfo struct {
	StructType                 uint32
	StructVersion              uint32
	StructSize                 uintptr
	LayerName                  string
	NextGetInstanceProcAddr    GetInstanceProcAddrFunc
	NextCreateApiLayerInstance CreateApiLayerInstanceFunc
	Next                       *ApiLayerNextInfo
}

// NewApiLayerCreateInfo returns a create info with its tags filled in.
func NewApiLayerCreateInfo(next *ApiLayerNextInfo) *ApiLayerCreateInfo {
	return &ApiLayerCreateInfo{
		StructType:    LoaderStructApiLayerCreateInfo,
		StructVersion: ApiLayerCreateInfoVersion,
		StructSize:    unsafe.Sizeof(ApiLayerCreateInfo{}),
		NextInfo:      next,
	}
}

// NewApiLayerNextInfo returns a chain link with its tags filled in.
func NewApiLayerNextInfo(name string, gipa GetInstanceProcAddrFunc, create CreateApiLayerInstanceFunc, next *ApiLayerNextInfo) *ApiLayerNextInfo {
	return &ApiLayerNextInfo{
		StructType:                 LoaderStructApiLayerNextInfo,
		StructVersion:              ApiLayerNextInfoVersion,
		StructSize:                 unsafe.Sizeof(ApiLayerNextInfo{}),
		LayerName:                  name,
		NextGetInstanceProcAddr:    gipa,
		NextCreateApiLayerInstance: create,
		Next:                       next,
	}
}

// validateLayerInfo checks the loader structures exactly. Any mismatch,
// including a missing link to the next element, is an error.
func validateLayerInfo(info *ApiLayerCreateInfo, layerName string) error {
	switch {
	case info == nil:
		return errors.New("missing api layer create info")
	case info.StructType != LoaderStructApiLayerCreateInfo:
		return fmt.Errorf("create info: struct type %d", info.StructType)
	case info.StructVersion != ApiLayerCreateInfoVersion:
		return fmt.Errorf("create info: struct version %d", info.StructVersion)
	case info.StructSize != unsafe.Sizeof(ApiLayerCreateInfo{}):
		return fmt.Errorf("create info: struct size %d", info.StructSize)
	}
	next := info.NextInfo
	switch {
	case next == nil:
		return errors.New("missing api layer next info")
	case next.StructType != LoaderStructApiLayerNextInfo:
		return fmt.Errorf("next info: struct type %d", next.StructType)
	case next.StructVersion != ApiLayerNextInfoVersion:
		return fmt.Errorf("next info: struct version %d", next.StructVersion)
	case next.StructSize != unsafe.Sizeof(ApiLayerNextInfo{}):
		return fmt.Errorf("next info: struct size %d", next.StructSize)
	case next.LayerName != layerName:
		return fmt.Errorf("next info: layer name %q", next.LayerName)
	case next.NextGetInstanceProcAddr == nil:
		return errors.New("next info: missing xrGetInstanceProcAddr")
	case next.NextCreateApiLayerInstance == nil:
		return errors.New("next info: missing xrCreateApiLayerInstance")
	}
	return nil
}

// Entry is the loader-facing side of the layer. It owns one handler per
// instance created through it: a *Layer when the application requested
// Direct3D 12, a Passthrough otherwise.
//
// Every function it hands out converts errors to Result codes and recovers
// panics, so nothing escapes to the caller as a Go failure.
type Entry struct {
	opts options

	mu        sync.Mutex
	instances map[Instance]*instanceState
}

type instanceState struct {
	handler Handler
	next    GetInstanceProcAddrFunc
}

// NewEntry creates the loader entry of the layer.
func NewEntry(opts ...Option) *Entry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Entry{
		opts:      o,
		instances: make(map[Instance]*instanceState),
	}
}

// CreateApiLayerInstance implements xrCreateApiLayerInstance. It validates
// the loader structures, rewrites the extension list and calls the next
// element with the chain advanced by one link.
func (e *Entry) CreateApiLayerInstance(info *InstanceCreateInfo, layerInfo *ApiLayerCreateInfo) (instance Instance, result Result) {
	Logger().Debug("--> xrCreateApiLayerInstance")
	defer func() {
		if p := recover(); p != nil {
			Logger().Error("panic in xrCreateApiLayerInstance", "panic", p)
			instance, result = 0, ResultErrorRuntimeFailure
		}
		Logger().Debug("<-- xrCreateApiLayerInstance", "result", result.String())
	}()

	if err := validateLayerInfo(layerInfo, e.opts.layerName); err != nil {
		Logger().Error("xrCreateApiLayerInstance validation failed", "error", err)
		return 0, ResultErrorInitializationFailed
	}
	if info == nil {
		return 0, ResultErrorValidationFailure
	}

	for link := layerInfo.NextInfo; link != nil; link = link.Next {
		Logger().Info("using layer", "name", link.LayerName)
	}
	for _, ext := range info.EnabledExtensionNames {
		Logger().Info("requested extension", "name", ext)
	}

	negotiated, substituted := NegotiateExtensions(info.EnabledExtensionNames)
	if !substituted {
		Logger().Info("Direct3D 12 is not requested for the instance")
	}
	chainInfo := *info
	chainInfo.EnabledExtensionNames = negotiated

	next := layerInfo.NextInfo
	chainLayerInfo := *layerInfo
	chainLayerInfo.NextInfo = next.Next

	instance, result = next.NextCreateApiLayerInstance(&chainInfo, &chainLayerInfo)
	if result.Failed() {
		return 0, result
	}

	d := newDispatch(next.NextGetInstanceProcAddr, instance)
	var handler Handler = Passthrough{Next: d}
	if substituted {
		layer := newLayer(d, instance, e.opts)
		if err := layer.start(info); err != nil {
			Logger().Error("cannot initialize layer", "error", err)
			if derr := d.DestroyInstance(instance); derr != nil {
				Logger().Warn("cannot destroy instance", "error", derr)
			}
			return 0, ResultOf(err)
		}
		handler = layer
	}

	e.mu.Lock()
	e.instances[instance] = &instanceState{handler: handler, next: next.NextGetInstanceProcAddr}
	e.mu.Unlock()
	return instance, ResultSuccess
}

// Handler returns the handler installed for instance.
func (e *Entry) Handler(instance Instance) (Handler, bool) {
	st := e.instance(instance)
	if st == nil {
		return nil, false
	}
	return st.handler, true
}

func (e *Entry) instance(instance Instance) *instanceState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.instances[instance]
}

// DestroyInstance implements xrDestroyInstance. The instance state is
// dropped once the chain destroyed the instance.
func (e *Entry) DestroyInstance(instance Instance) Result {
	return guard(ProcDestroyInstance, func() error {
		st := e.instance(instance)
		if st == nil {
			return ResultErrorHandleInvalid
		}
		if err := st.handler.DestroyInstance(instance); err != nil {
			return err
		}
		e.mu.Lock()
		delete(e.instances, instance)
		e.mu.Unlock()
		return nil
	})
}

// GetInstanceProcAddr implements xrGetInstanceProcAddr. The entry points
// the layer intercepts resolve to local functions; every other name is
// resolved by the next element of the chain.
func (e *Entry) GetInstanceProcAddr(instance Instance, name string) (proc Proc, result Result) {
	defer func() {
		if p := recover(); p != nil {
			Logger().Error("panic in xrGetInstanceProcAddr", "name", name, "panic", p)
			proc, result = nil, ResultErrorRuntimeFailure
		}
	}()

	switch name {
	case ProcGetInstanceProcAddr:
		return GetInstanceProcAddrFunc(e.GetInstanceProcAddr), ResultSuccess
	case ProcDestroyInstance:
		return DestroyInstanceFunc(e.DestroyInstance), ResultSuccess
	}

	st := e.instance(instance)
	if st == nil {
		return nil, ResultErrorHandleInvalid
	}
	if layer, ok := st.handler.(*Layer); ok {
		if p := layerProc(layer, name); p != nil {
			return p, ResultSuccess
		}
	}
	return st.next(instance, name)
}

// layerProc returns the local implementation of name, or nil when the
// layer does not intercept it.
func layerProc(l *Layer, name string) Proc {
	switch name {
	case ProcGetSystem:
		return GetSystemFunc(func(instance Instance, info *SystemGetInfo) (system SystemID, r Result) {
			r = guard(name, func() error {
				var err error
				system, err = l.GetSystem(instance, info)
				return err
			})
			return system, r
		})
	case ProcGetD3D12GraphicsRequirements:
		return GetD3D12GraphicsRequirementsFunc(func(instance Instance, system SystemID, reqs *GraphicsRequirementsD3D12) Result {
			return guard(name, func() error {
				if reqs == nil {
					return ResultErrorValidationFailure
				}
				out, err := l.GetD3D12GraphicsRequirements(instance, system)
				if err != nil {
					return err
				}
				*reqs = out
				return nil
			})
		})
	case ProcCreateSession:
		return CreateSessionFunc(func(instance Instance, info *SessionCreateInfo) (session Session, r Result) {
			r = guard(name, func() error {
				var err error
				session, err = l.CreateSession(instance, info)
				return err
			})
			if r.Failed() {
				session = 0
			}
			return session, r
		})
	case ProcDestroySession:
		return DestroySessionFunc(func(session Session) Result {
			return guard(name, func() error { return l.DestroySession(session) })
		})
	case ProcCreateSwapchain:
		return CreateSwapchainFunc(func(session Session, info *SwapchainCreateInfo) (swapchain Swapchain, r Result) {
			r = guard(name, func() error {
				var err error
				swapchain, err = l.CreateSwapchain(session, info)
				return err
			})
			if r.Failed() {
				swapchain = 0
			}
			return swapchain, r
		})
	case ProcDestroySwapchain:
		return DestroySwapchainFunc(func(swapchain Swapchain) Result {
			return guard(name, func() error { return l.DestroySwapchain(swapchain) })
		})
	case ProcEnumerateSwapchainImages:
		return EnumerateSwapchainImagesFunc(func(swapchain Swapchain, capacity uint32, countOutput *uint32, images []SwapchainImage) Result {
			return guard(name, func() error {
				if countOutput == nil {
					return ResultErrorValidationFailure
				}
				count, err := l.EnumerateSwapchainImages(swapchain, capacity, images)
				if err == nil || ResultOf(err) == ResultErrorSizeInsufficient {
					*countOutput = count
				}
				return err
			})
		})
	case ProcEndFrame:
		return EndFrameFunc(func(session Session, info *FrameEndInfo) Result {
			return guard(name, func() error { return l.EndFrame(session, info) })
		})
	}
	return nil
}

// guard runs fn and converts its outcome into the Result reported to the
// caller. Panics are recovered into ResultErrorRuntimeFailure.
func guard(name string, fn func() error) (result Result) {
	Logger().Debug("--> " + name)
	defer func() {
		if p := recover(); p != nil {
			Logger().Error("panic in entry point", "name", name, "panic", p)
			result = ResultErrorRuntimeFailure
		}
		Logger().Debug("<-- "+name, "result", result.String())
	}()

	err := fn()
	result = ResultOf(err)
	if err != nil {
		var r Result
		if !errors.As(err, &r) {
			Logger().Error(name+" failed", "error", err)
		}
	}
	return result
}
