package interop

import (
	"github.com/xrlayers/interop/d3d"
)

// MinD3D12FeatureLevel is reported to the application as the minimum
// feature level of its D3D12 device. It is a policy constant: D3D12 on an
// adapter at 11_1 guarantees the fence and resource sharing the bridge
// relies on.
const MinD3D12FeatureLevel = d3d.FeatureLevel11_1

// RuntimeFeatureLevel is the feature level of the D3D11 device created for
// the runtime. 11_1 is the lowest level with shared fence support.
const RuntimeFeatureLevel = d3d.FeatureLevel11_1

// NegotiateExtensions removes every XR_KHR_D3D12_enable entry from names,
// compared case-insensitively over ASCII only, and appends
// XR_KHR_D3D11_enable once when at least one was removed.
// An already requested XR_KHR_D3D11_enable keeps its position and nothing
// is appended. The remaining names keep their relative order.
// The input slice is not modified.
func NegotiateExtensions(names []string) (negotiated []string, substituted bool) {
	hasRuntime := false
	negotiated = make([]string, 0, len(names)+1)
	for _, name := range names {
		switch {
		case equalFoldASCII(name, ExtensionD3D12Enable):
			substituted = true
			continue
		case equalFoldASCII(name, ExtensionD3D11Enable):
			hasRuntime = true
		}
		negotiated = append(negotiated, name)
	}
	if substituted && !hasRuntime {
		negotiated = append(negotiated, ExtensionD3D11Enable)
	}
	return negotiated, substituted
}

// equalFoldASCII is strings.EqualFold without Unicode folding: only A-Z
// and a-z match each other, so U+212A KELVIN SIGN is not a 'k'.
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// GetD3D12GraphicsRequirements answers the D3D12 requirements query from
// the runtime's D3D11 requirements: same adapter, fixed minimum feature
// level.
func (l *Layer) GetD3D12GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D12, error) {
	runtime, err := l.Next.GetD3D11GraphicsRequirements(instance, system)
	if err != nil {
		return GraphicsRequirementsD3D12{}, err
	}
	return GraphicsRequirementsD3D12{
		AdapterLUID:     runtime.AdapterLUID,
		MinFeatureLevel: MinD3D12FeatureLevel,
	}, nil
}

// GetSystem forwards the call and remembers the returned system when it is
// a head-mounted display the runtime can serve through D3D11. That system
// is the only one whose sessions are bridged.
func (l *Layer) GetSystem(instance Instance, info *SystemGetInfo) (SystemID, error) {
	system, err := l.Next.GetSystem(instance, info)
	if err != nil {
		return system, err
	}
	if info == nil || info.FormFactor != FormFactorHeadMountedDisplay || !l.d3d11Available {
		return system, nil
	}

	props, err := l.Next.GetSystemProperties(instance, system)
	if err != nil {
		return 0, err
	}
	Logger().Info("using OpenXR system", "name", props.SystemName, "system", uint64(system))

	l.mu.Lock()
	l.system = system
	l.mu.Unlock()
	return system, nil
}
