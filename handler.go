package interop

// Handler handles or forwards the session API calls the layer touches.
//
// Every other entry point never reaches a Handler: its name is resolved
// straight through to the next element of the call chain by
// Entry.GetInstanceProcAddr.
//
// Failures are returned as errors. A failing Result coming from the chain
// is returned as is so the boundary can report it unchanged.
type Handler interface {
	GetInstanceProperties(instance Instance) (InstanceProperties, error)
	GetSystem(instance Instance, info *SystemGetInfo) (SystemID, error)
	GetSystemProperties(instance Instance, system SystemID) (SystemProperties, error)
	GetD3D11GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D11, error)
	GetD3D12GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D12, error)
	CreateSession(instance Instance, info *SessionCreateInfo) (Session, error)
	DestroySession(session Session) error
	CreateSwapchain(session Session, info *SwapchainCreateInfo) (Swapchain, error)
	DestroySwapchain(swapchain Swapchain) error

	// EnumerateSwapchainImages follows the two-call idiom: with capacity 0
	// it only reports the image count, otherwise it fills images[:count].
	EnumerateSwapchainImages(swapchain Swapchain, capacity uint32, images []SwapchainImage) (uint32, error)
	EndFrame(session Session, info *FrameEndInfo) error
	DestroyInstance(instance Instance) error
}

// Passthrough forwards every call to the next handler unchanged. It is the
// handler installed for instances that did not request Direct3D 12, and
// the base the bridging Layer embeds.
type Passthrough struct {
	Next Handler
}

// GetInstanceProperties forwards the call.
func (p Passthrough) GetInstanceProperties(instance Instance) (InstanceProperties, error) {
	return p.Next.GetInstanceProperties(instance)
}

// GetSystem forwards the call.
func (p Passthrough) GetSystem(instance Instance, info *SystemGetInfo) (SystemID, error) {
	return p.Next.GetSystem(instance, info)
}

// GetSystemProperties forwards the call.
func (p Passthrough) GetSystemProperties(instance Instance, system SystemID) (SystemProperties, error) {
	return p.Next.GetSystemProperties(instance, system)
}

// GetD3D11GraphicsRequirements forwards the call.
func (p Passthrough) GetD3D11GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D11, error) {
	return p.Next.GetD3D11GraphicsRequirements(instance, system)
}

// GetD3D12GraphicsRequirements forwards the call.
func (p Passthrough) GetD3D12GraphicsRequirements(instance Instance, system SystemID) (GraphicsRequirementsD3D12, error) {
	return p.Next.GetD3D12GraphicsRequirements(instance, system)
}

// CreateSession forwards the call.
func (p Passthrough) CreateSession(instance Instance, info *SessionCreateInfo) (Session, error) {
	return p.Next.CreateSession(instance, info)
}

// DestroySession forwards the call.
func (p Passthrough) DestroySession(session Session) error {
	return p.Next.DestroySession(session)
}

// CreateSwapchain forwards the call.
func (p Passthrough) CreateSwapchain(session Session, info *SwapchainCreateInfo) (Swapchain, error) {
	return p.Next.CreateSwapchain(session, info)
}

// DestroySwapchain forwards the call.
func (p Passthrough) DestroySwapchain(swapchain Swapchain) error {
	return p.Next.DestroySwapchain(swapchain)
}

// EnumerateSwapchainImages forwards the call.
func (p Passthrough) EnumerateSwapchainImages(swapchain Swapchain, capacity uint32, images []SwapchainImage) (uint32, error) {
	return p.Next.EnumerateSwapchainImages(swapchain, capacity, images)
}

// EndFrame forwards the call.
func (p Passthrough) EndFrame(session Session, info *FrameEndInfo) error {
	return p.Next.EndFrame(session, info)
}

// DestroyInstance forwards the call.
func (p Passthrough) DestroyInstance(instance Instance) error {
	return p.Next.DestroyInstance(instance)
}

var _ Handler = Passthrough{}
