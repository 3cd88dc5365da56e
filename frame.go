package interop

import "fmt"

// EndFrame orders the application's D3D12 work before the runtime's D3D11
// work on the images: the next fence value is signaled on the D3D12 queue
// and waited on by the D3D11 context before the call is forwarded. Neither
// side blocks the CPU.
func (l *Layer) EndFrame(session Session, info *FrameEndInfo) error {
	if st := l.session(session); st != nil {
		if err := st.serialize(); err != nil {
			Logger().Error("cannot serialize frame", "session", uint64(session), "error", err)
			return err
		}
	}
	return l.Next.EndFrame(session, info)
}

// serialize signals fenceValue+1 on the D3D12 queue and makes the D3D11
// context wait for it. The counter only advances once the signal was
// queued, so a value is never issued twice.
func (st *sessionState) serialize() error {
	value := st.fenceValue + 1
	if err := st.d3d12Queue.Signal(st.d3d12Fence, value); err != nil {
		return fmt.Errorf("signal D3D12 fence to %d: %w", value, err)
	}
	st.fenceValue = value
	if err := st.d3d11Context.Wait(st.d3d11Fence, value); err != nil {
		return fmt.Errorf("wait D3D11 fence for %d: %w", value, err)
	}
	return nil
}
