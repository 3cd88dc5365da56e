//go:build windows && amd64

package interop

import "github.com/xrlayers/interop/d3d"

// The system DXGI factory serves entries created without WithFactory.
func init() {
	_ = RegisterFactory(d3d.NewDXGIFactory())
}
