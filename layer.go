package interop

import (
	"sort"
	"sync"

	"github.com/xrlayers/interop/d3d"
)

// Layer is the bridging Handler. It hands the runtime a D3D11 device for
// every session the application creates with a D3D12 binding on the
// handled system, and translates swapchain images and frame submission
// between the two devices. Calls it does not bridge are forwarded through
// the embedded Passthrough.
//
// The session and swapchain tables are only touched from entry points.
// The OpenXR threading rules guarantee a handle is not used concurrently,
// but calls on different handles may race, so the tables themselves are
// guarded by a mutex that is never held across a forwarded call or a GPU
// wait.
type Layer struct {
	Passthrough

	instance Instance
	opts     options

	// d3d11Available is set when the runtime exposes
	// xrGetD3D11GraphicsRequirementsKHR. Without it no system is handled.
	d3d11Available bool

	mu         sync.Mutex
	system     SystemID
	sessions   map[Session]*sessionState
	swapchains map[Swapchain]*swapchainState
}

// sessionState is the bridge state of a handled session.
type sessionState struct {
	session Session

	// Supplied by the application.
	d3d12Device d3d.D3D12Device
	d3d12Queue  d3d.D3D12CommandQueue

	// Created for the runtime on the application's adapter.
	adapter      d3d.Adapter
	d3d11Device  d3d.D3D11Device
	d3d11Context d3d.D3D11Context

	// Both fences reference one counter. fenceValue is the last value
	// signaled on the D3D12 queue.
	d3d11Fence d3d.D3D11Fence
	d3d12Fence d3d.D3D12Fence
	fenceValue uint64
}

// swapchainState is the bridge state of a swapchain of a handled session.
type swapchainState struct {
	swapchain  Swapchain
	session    Session
	createInfo SwapchainCreateInfo

	// textures holds one imported resource per runtime image, filled by
	// the first enumeration with a non-zero capacity.
	textures []d3d.D3D12Resource
}

// procChecker is implemented by next handlers that can tell whether an entry
// point exists.
type procChecker interface {
	Has(name string) bool
}

// NewLayer creates a bridging layer in front of next for instance.
func NewLayer(next Handler, instance Instance, opts ...Option) *Layer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newLayer(next, instance, o)
}

func newLayer(next Handler, instance Instance, o options) *Layer {
	available := true
	if p, ok := next.(procChecker); ok {
		available = p.Has(ProcGetD3D11GraphicsRequirements)
	}
	return &Layer{
		Passthrough:    Passthrough{Next: next},
		instance:       instance,
		opts:           o,
		d3d11Available: available,
		sessions:       make(map[Session]*sessionState),
		swapchains:     make(map[Swapchain]*swapchainState),
	}
}

// start logs what the instance runs on. It is called once the chain
// created the instance.
func (l *Layer) start(info *InstanceCreateInfo) error {
	props, err := l.Next.GetInstanceProperties(l.instance)
	if err != nil {
		return err
	}
	Logger().Info("application", "name", info.ApplicationInfo.ApplicationName)
	Logger().Info("using OpenXR runtime",
		"name", props.RuntimeName,
		"version", props.RuntimeVersion.String())
	if !l.d3d11Available {
		Logger().Warn("runtime does not expose " + ProcGetD3D11GraphicsRequirements)
	}
	return nil
}

// HandledSystem returns the system whose sessions are bridged, or 0.
func (l *Layer) HandledSystem() SystemID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.system
}

func (l *Layer) isSystemHandled(system SystemID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.system != 0 && system == l.system
}

func (l *Layer) session(session Session) *sessionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessions[session]
}

// IsSessionHandled reports whether session is bridged.
func (l *Layer) IsSessionHandled(session Session) bool {
	return l.session(session) != nil
}

// IsSwapchainHandled reports whether swapchain belongs to a bridged session.
func (l *Layer) IsSwapchainHandled(swapchain Swapchain) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.swapchains[swapchain]
	return ok
}

// FenceValue returns the last fence value signaled for session.
func (l *Layer) FenceValue(session Session) (uint64, bool) {
	st := l.session(session)
	if st == nil {
		return 0, false
	}
	return st.fenceValue, true
}

// Sessions returns the bridged sessions in handle order.
func (l *Layer) Sessions() []Session {
	l.mu.Lock()
	out := make([]Session, 0, len(l.sessions))
	for s := range l.sessions {
		out = append(out, s)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Swapchains returns the swapchains of bridged sessions in handle order.
func (l *Layer) Swapchains() []Swapchain {
	l.mu.Lock()
	out := make([]Swapchain, 0, len(l.swapchains))
	for s := range l.swapchains {
		out = append(out, s)
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RuntimeDevice exposes the D3D11 device created for a bridged session.
// The layer keeps ownership of the device.
func (l *Layer) RuntimeDevice(session Session) (*d3d.RuntimeProvider, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.sessions[session]
	if !ok {
		return nil, false
	}
	format := d3d.FormatUnknown
	var first Swapchain
	for _, sc := range l.swapchains {
		if sc.session == session && (first == 0 || sc.swapchain < first) {
			first = sc.swapchain
			format = d3d.Format(sc.createInfo.Format) //nolint:gosec // DXGI formats fit uint32
		}
	}
	return d3d.NewRuntimeProvider(st.d3d11Device, st.d3d11Context, st.adapter, format, l.opts.newEvent), true
}

var _ Handler = (*Layer)(nil)
