package interop

import (
	"errors"
	"fmt"

	"github.com/xrlayers/interop/d3d"
)

// ErrAdapterNotFound means no DXGI adapter matches the LUID of the
// application's D3D12 device.
var ErrAdapterNotFound = errors.New("interop: adapter not found")

// CreateSession bridges sessions created with a D3D12 binding on the
// handled system: the runtime receives a D3D11 binding on a device created
// on the same adapter, and a shared fence links the application's queue to
// that device. Other sessions are forwarded untouched and not recorded.
//
// The application's chain is never written to. The runtime receives a
// scratch copy in which the D3D12 binding is replaced.
func (l *Layer) CreateSession(instance Instance, info *SessionCreateInfo) (Session, error) {
	if info == nil || !l.isSystemHandled(info.SystemID) {
		return l.Next.CreateSession(instance, info)
	}

	node, index := FindInChain(info.Next, TypeGraphicsBindingD3D12)
	binding, ok := node.(*GraphicsBindingD3D12)
	if !ok {
		Logger().Info("Direct3D 12 is not requested for the session")
		return l.Next.CreateSession(instance, info)
	}
	if binding.Device == nil || binding.Queue == nil {
		return 0, ResultErrorGraphicsDeviceInvalid
	}

	st, err := l.newSessionState(binding)
	if err != nil {
		Logger().Error("cannot create interop resources", "error", err)
		return 0, err
	}

	chained := *info
	chained.Next = replaceInChain(info.Next, index, &GraphicsBindingD3D11{Device: st.d3d11Device})

	session, err := l.Next.CreateSession(instance, &chained)
	if err != nil {
		st.release()
		return session, err
	}

	st.session = session
	l.mu.Lock()
	l.sessions[session] = st
	l.mu.Unlock()
	Logger().Debug("session bridged", "session", uint64(session))
	return session, nil
}

// newSessionState creates the D3D11 device, context and shared fence pair
// for binding. On failure everything created so far is released.
func (l *Layer) newSessionState(binding *GraphicsBindingD3D12) (*sessionState, error) {
	factory, err := l.opts.resolveFactory()
	if err != nil {
		return nil, err
	}

	st := &sessionState{
		d3d12Device: binding.Device,
		d3d12Queue:  binding.Queue,
	}
	if err := st.init(factory, l.opts.debugDevice); err != nil {
		st.release()
		return nil, err
	}
	return st, nil
}

func (st *sessionState) init(factory d3d.Factory, debug bool) error {
	luid := st.d3d12Device.AdapterLUID()
	adapter, desc, err := findAdapter(factory, luid)
	if err != nil {
		return err
	}
	st.adapter = adapter
	Logger().Info("using Direct3D 12 on adapter", "adapter", desc.Description)

	var flags d3d.CreateDeviceFlags
	if debug {
		flags |= d3d.CreateDeviceDebug
	}
	st.d3d11Device, st.d3d11Context, err = factory.CreateDevice(adapter, RuntimeFeatureLevel, flags)
	if err != nil {
		return fmt.Errorf("create D3D11 device: %w", err)
	}

	st.d3d11Fence, err = st.d3d11Device.CreateFence(0, true)
	if err != nil {
		return fmt.Errorf("create shared D3D11 fence: %w", err)
	}
	handle, err := st.d3d11Fence.CreateSharedHandle()
	if err != nil {
		return fmt.Errorf("export D3D11 fence: %w", err)
	}
	st.d3d12Fence, err = st.d3d12Device.OpenSharedFence(handle)
	closeHandle(handle)
	if err != nil {
		return fmt.Errorf("open shared fence on D3D12 device: %w", err)
	}
	return nil
}

// findAdapter enumerates adapters until one matches luid.
func findAdapter(factory d3d.Factory, luid d3d.LUID) (d3d.Adapter, d3d.AdapterDesc, error) {
	for i := 0; ; i++ {
		adapter, err := factory.EnumAdapters(i)
		if errors.Is(err, d3d.ErrNotFound) {
			return nil, d3d.AdapterDesc{}, fmt.Errorf("%w: LUID %08x:%08x",
				ErrAdapterNotFound, uint32(luid.HighPart), luid.LowPart) //nolint:gosec // printed as raw bits
		}
		if err != nil {
			return nil, d3d.AdapterDesc{}, fmt.Errorf("enumerate adapter %d: %w", i, err)
		}
		desc, err := adapter.Desc()
		if err != nil {
			adapter.Release()
			return nil, d3d.AdapterDesc{}, fmt.Errorf("describe adapter %d: %w", i, err)
		}
		if desc.LUID == luid {
			return adapter, desc, nil
		}
		adapter.Release()
	}
}

// release frees every object the bridge created for the session, in
// reverse creation order. Objects supplied by the application are not
// touched.
func (st *sessionState) release() {
	if st.d3d12Fence != nil {
		st.d3d12Fence.Release()
		st.d3d12Fence = nil
	}
	if st.d3d11Fence != nil {
		st.d3d11Fence.Release()
		st.d3d11Fence = nil
	}
	if st.d3d11Context != nil {
		st.d3d11Context.Release()
		st.d3d11Context = nil
	}
	if st.d3d11Device != nil {
		st.d3d11Device.Release()
		st.d3d11Device = nil
	}
	if st.adapter != nil {
		st.adapter.Release()
		st.adapter = nil
	}
}

func closeHandle(h d3d.SharedHandle) {
	if err := h.Close(); err != nil {
		Logger().Warn("cannot close shared handle", "error", err)
	}
}
