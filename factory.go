package interop

import (
	"errors"
	"sync"

	"github.com/xrlayers/interop/d3d"
)

// ErrNoFactory means no DXGI factory was configured or registered, so no
// D3D11 device can be created for a session.
var ErrNoFactory = errors.New("interop: no DXGI factory available")

var (
	factoryMu sync.RWMutex
	factory   d3d.Factory
)

// RegisterFactory registers the DXGI factory used by entries created
// without WithFactory.
//
// Only one factory can be registered. Subsequent calls replace the previous
// one. Platform packages register themselves via blank import:
//
//	func init() {
//	    interop.RegisterFactory(newFactory())
//	}
func RegisterFactory(f d3d.Factory) error {
	if f == nil {
		return errors.New("interop: factory must not be nil")
	}
	factoryMu.Lock()
	factory = f
	factoryMu.Unlock()
	return nil
}

// RegisteredFactory returns the registered factory, or nil if none.
func RegisteredFactory() d3d.Factory {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()
	return f
}

// resolveFactory picks the configured factory, falling back to the
// registered one.
func (o *options) resolveFactory() (d3d.Factory, error) {
	if o.factory != nil {
		return o.factory, nil
	}
	if f := RegisteredFactory(); f != nil {
		return f, nil
	}
	return nil, ErrNoFactory
}
