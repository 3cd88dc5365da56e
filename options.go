package interop

import (
	"github.com/xrlayers/interop/d3d"
	"github.com/xrlayers/interop/internal/osevent"
)

// LayerName is the name the layer is registered under in its manifest.
const LayerName = "XR_APILAYER_NOVENDOR_d3d12on11_interop"

// Option configures an Entry during creation.
//
// Example:
//
//	entry := interop.NewEntry(
//	    interop.WithFactory(dxgiFactory),
//	    interop.WithDebugDevice(true),
//	)
type Option func(*options)

type options struct {
	layerName   string
	factory     d3d.Factory
	debugDevice bool
	newEvent    func() (d3d.Event, error)
}

func defaultOptions() options {
	return options{
		layerName: LayerName,
		newEvent:  newOSEvent,
	}
}

func newOSEvent() (d3d.Event, error) {
	ev, err := osevent.New()
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// WithFactory sets the DXGI factory used to find adapters and create the
// D3D11 devices handed to the runtime. Without it the factory registered
// with RegisterFactory is used.
func WithFactory(f d3d.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithLayerName overrides the layer name expected in the loader's next-info
// chain. Only useful when the layer is packaged under another manifest name.
func WithLayerName(name string) Option {
	return func(o *options) {
		o.layerName = name
	}
}

// WithDebugDevice creates the D3D11 devices with the debug layer enabled.
func WithDebugDevice(enabled bool) Option {
	return func(o *options) {
		o.debugDevice = enabled
	}
}

// WithEventFactory replaces the OS events the teardown path blocks on.
func WithEventFactory(newEvent func() (d3d.Event, error)) Option {
	return func(o *options) {
		if newEvent != nil {
			o.newEvent = newEvent
		}
	}
}
