package interop

import (
	"fmt"

	"github.com/xrlayers/interop/d3d"
)

// DestroySession forwards the call and, for a bridged session, waits for
// both devices to go idle before releasing the interop objects and the
// records of the session's swapchains.
func (l *Layer) DestroySession(session Session) error {
	if err := l.Next.DestroySession(session); err != nil {
		return err
	}
	if st := l.session(session); st != nil {
		l.cleanupSession(st)
	}
	return nil
}

// DestroyInstance forwards the call and tears down every session the
// application did not destroy.
func (l *Layer) DestroyInstance(instance Instance) error {
	if err := l.Next.DestroyInstance(instance); err != nil {
		return err
	}
	for _, session := range l.Sessions() {
		if st := l.session(session); st != nil {
			l.cleanupSession(st)
		}
	}
	return nil
}

// cleanupSession drains st, releases everything the bridge created for it
// and only then drops the session and swapchain records.
//
// The runtime already destroyed the session: a failed drain is logged and
// the objects are released anyway.
func (l *Layer) cleanupSession(st *sessionState) {
	if err := st.drain(l.opts.newEvent); err != nil {
		Logger().Warn("cannot drain session", "session", uint64(st.session), "error", err)
	}

	l.mu.Lock()
	var owned []*swapchainState
	for _, sc := range l.swapchains {
		if sc.session == st.session {
			owned = append(owned, sc)
		}
	}
	l.mu.Unlock()

	for _, sc := range owned {
		sc.release()
	}
	st.release()

	l.mu.Lock()
	for _, sc := range owned {
		delete(l.swapchains, sc.swapchain)
	}
	delete(l.sessions, st.session)
	l.mu.Unlock()
	Logger().Debug("session released", "session", uint64(st.session), "swapchains", len(owned))
}

// drain blocks until all work queued on both devices completed: a final
// fence value is signaled on the D3D12 queue and waited for, then the
// D3D11 context is flushed and waited for. There is no timeout.
func (st *sessionState) drain(newEvent func() (d3d.Event, error)) error {
	value := st.fenceValue + 1
	if err := st.d3d12Queue.Signal(st.d3d12Fence, value); err != nil {
		return fmt.Errorf("signal D3D12 fence to %d: %w", value, err)
	}
	st.fenceValue = value

	ev, err := newEvent()
	if err != nil {
		return fmt.Errorf("create flush event: %w", err)
	}
	defer ev.Close()

	if err := st.d3d12Fence.SetEventOnCompletion(value, ev); err != nil {
		return fmt.Errorf("wait D3D12 fence for %d: %w", value, err)
	}
	if err := ev.Wait(); err != nil {
		return fmt.Errorf("wait D3D12 fence for %d: %w", value, err)
	}
	if err := ev.Reset(); err != nil {
		return fmt.Errorf("reset flush event: %w", err)
	}
	if err := st.d3d11Context.Flush(ev); err != nil {
		return fmt.Errorf("flush D3D11 context: %w", err)
	}
	if err := ev.Wait(); err != nil {
		return fmt.Errorf("wait D3D11 flush: %w", err)
	}
	return nil
}
