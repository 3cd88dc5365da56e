// Package interop is an OpenXR API layer that lets Direct3D 12 applications
// run on runtimes that only support Direct3D 11.
//
// # Overview
//
// The layer sits in the OpenXR call chain between the application and the
// runtime. It intercepts a small set of entry points and forwards every
// other call unchanged:
//
//   - Instance creation: XR_KHR_D3D12_enable is replaced by
//     XR_KHR_D3D11_enable in the requested extension list.
//   - xrGetD3D12GraphicsRequirementsKHR is answered from the runtime's
//     D3D11 requirements.
//   - Session creation: a D3D11 device is created on the adapter of the
//     application's D3D12 device and handed to the runtime, together with
//     a fence shared between the two devices.
//   - Swapchain enumeration: the D3D11 textures allocated by the runtime
//     are opened on the D3D12 device through shared handles, without
//     copies.
//   - xrEndFrame: the D3D12 queue signals the shared fence and the D3D11
//     context waits on it, so the runtime never reads an image the
//     application is still rendering.
//   - Teardown: both devices are drained before the interop objects are
//     released.
//
// # Quick Start
//
//	entry := interop.NewEntry(interop.WithFactory(dxgiFactory))
//
//	// Hand entry.CreateApiLayerInstance and entry.GetInstanceProcAddr to
//	// the loader; the loader calls them with its ApiLayerCreateInfo.
//
// # Architecture
//
// The package is organized into:
//   - Entry: loader ABI validation, proc resolution, Result conversion
//   - Handler: Passthrough for instances that did not request D3D12,
//     Layer for the bridging ones
//   - d3d: the Direct3D and DXGI surface the layer drives, and on
//     windows/amd64 the COM backend registered at init
//   - internal/sim: a software backend and runtime for tests and demos
//
// RegisterImplicitLayer installs a manifest for the loader on Windows.
//
// # Limitations
//
// Depth/stencil swapchain images cannot be shared between the devices;
// enumerating them fails with XR_ERROR_RUNTIME_FAILURE.
package interop

// Version information
const (
	// LayerVersion is the current version of the layer
	LayerVersion = "0.1.0"

	// LayerVersionMajor is the major version
	LayerVersionMajor = 0

	// LayerVersionMinor is the minor version
	LayerVersionMinor = 1

	// LayerVersionPatch is the patch version
	LayerVersionPatch = 0
)
