package interop

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/xrlayers/interop/d3d"
)

// CreateSwapchain forwards the call and, for bridged sessions, records the
// swapchain so its images can be imported on enumeration.
func (l *Layer) CreateSwapchain(session Session, info *SwapchainCreateInfo) (Swapchain, error) {
	if info == nil || !l.IsSessionHandled(session) {
		return l.Next.CreateSwapchain(session, info)
	}

	format := d3d.Format(info.Format) //nolint:gosec // DXGI formats fit uint32
	Logger().Info("creating swapchain",
		"width", info.Width,
		"height", info.Height,
		"arraySize", info.ArraySize,
		"mipCount", info.MipCount,
		"sampleCount", info.SampleCount,
		"format", format.String(),
		"textureFormat", format.TextureFormat(),
		"usage", fmt.Sprintf("%#x", uint64(info.UsageFlags)),
		"textureUsage", textureUsage(info.UsageFlags))
	if format.IsDepth() {
		Logger().Warn("depth swapchain images cannot be shared with Direct3D 12", "format", format.String())
	}

	swapchain, err := l.Next.CreateSwapchain(session, info)
	if err != nil {
		return swapchain, err
	}

	l.mu.Lock()
	l.swapchains[swapchain] = &swapchainState{
		swapchain:  swapchain,
		session:    session,
		createInfo: *info,
	}
	l.mu.Unlock()
	return swapchain, nil
}

// DestroySwapchain forwards the call and drops the swapchain's imported
// resources. No GPU drain is needed: the application may not have work in
// flight on a swapchain it destroys.
func (l *Layer) DestroySwapchain(swapchain Swapchain) error {
	if err := l.Next.DestroySwapchain(swapchain); err != nil {
		return err
	}

	l.mu.Lock()
	sc, ok := l.swapchains[swapchain]
	delete(l.swapchains, swapchain)
	l.mu.Unlock()
	if ok {
		sc.release()
	}
	return nil
}

// EnumerateSwapchainImages hands the application D3D12 resources aliasing
// the D3D11 textures the runtime allocated. The first call with a non-zero
// capacity imports the textures; later calls reuse them. Calls with a zero
// capacity only query the count and are forwarded untouched.
func (l *Layer) EnumerateSwapchainImages(swapchain Swapchain, capacity uint32, images []SwapchainImage) (uint32, error) {
	l.mu.Lock()
	sc := l.swapchains[swapchain]
	var st *sessionState
	if sc != nil {
		st = l.sessions[sc.session]
	}
	l.mu.Unlock()

	if sc == nil || st == nil || capacity == 0 {
		return l.Next.EnumerateSwapchainImages(swapchain, capacity, images)
	}

	if uint32(len(images)) < capacity { //nolint:gosec // slice length fits uint32
		return 0, ResultErrorValidationFailure
	}
	out := make([]*SwapchainImageD3D12, capacity)
	for i := range out {
		img, ok := images[i].(*SwapchainImageD3D12)
		if !ok || img == nil {
			return 0, ResultErrorValidationFailure
		}
		out[i] = img
	}

	runtimeImages := make([]SwapchainImage, capacity)
	for i := range runtimeImages {
		runtimeImages[i] = &SwapchainImageD3D11{}
	}
	count, err := l.Next.EnumerateSwapchainImages(swapchain, capacity, runtimeImages)
	if err != nil {
		return count, err
	}
	if count > capacity {
		return count, ResultErrorSizeInsufficient
	}

	if sc.textures == nil {
		textures, err := importTextures(st.d3d12Device, runtimeImages[:count])
		if err != nil {
			Logger().Error("cannot import swapchain images", "swapchain", uint64(swapchain), "error", err)
			return 0, err
		}
		sc.textures = textures
	} else if len(sc.textures) != int(count) {
		return 0, fmt.Errorf("swapchain %d: runtime reported %d images, %d imported",
			swapchain, count, len(sc.textures))
	}

	for i := range count {
		out[i].Texture = sc.textures[i]
	}
	return count, nil
}

// importTextures opens each runtime texture on device through a shared
// handle. Either every texture is imported or none is.
func importTextures(device d3d.D3D12Device, images []SwapchainImage) ([]d3d.D3D12Resource, error) {
	textures := make([]d3d.D3D12Resource, 0, len(images))
	fail := func(err error) ([]d3d.D3D12Resource, error) {
		releaseResources(textures)
		return nil, err
	}

	for i, image := range images {
		img, ok := image.(*SwapchainImageD3D11)
		if !ok || img.Texture == nil {
			return fail(fmt.Errorf("image %d: runtime returned no D3D11 texture", i))
		}
		if i == 0 {
			logTextureDesc(img.Texture.Desc())
		}

		handle, err := img.Texture.CreateSharedHandle()
		if err != nil {
			return fail(fmt.Errorf("image %d: export texture: %w", i, err))
		}
		resource, err := device.OpenSharedResource(handle)
		closeHandle(handle)
		if err != nil {
			return fail(fmt.Errorf("image %d: open shared texture on D3D12 device: %w", i, err))
		}
		textures = append(textures, resource)
	}
	return textures, nil
}

func logTextureDesc(desc d3d.TextureDesc) {
	Logger().Info("swapchain image descriptor",
		"width", desc.Width,
		"height", desc.Height,
		"arraySize", desc.ArraySize,
		"format", desc.Format.String(),
		"mipCount", desc.MipLevels,
		"sampleCount", desc.SampleCount,
		"usage", fmt.Sprintf("%#x", desc.Usage),
		"bindFlags", fmt.Sprintf("%#x", desc.BindFlags),
		"cpuFlags", fmt.Sprintf("%#x", desc.CPUAccessFlags),
		"misc", fmt.Sprintf("%#x", desc.MiscFlags))
}

// textureUsage translates swapchain usage flags to WebGPU texture usages.
func textureUsage(flags SwapchainUsageFlags) gputypes.TextureUsage {
	var usage gputypes.TextureUsage
	if flags&(SwapchainUsageColorAttachment|SwapchainUsageDepthStencilAttachment) != 0 {
		usage |= gputypes.TextureUsageRenderAttachment
	}
	if flags&SwapchainUsageSampled != 0 {
		usage |= gputypes.TextureUsageTextureBinding
	}
	if flags&SwapchainUsageUnorderedAccess != 0 {
		usage |= gputypes.TextureUsageStorageBinding
	}
	if flags&SwapchainUsageTransferSrc != 0 {
		usage |= gputypes.TextureUsageCopySrc
	}
	if flags&SwapchainUsageTransferDst != 0 {
		usage |= gputypes.TextureUsageCopyDst
	}
	return usage
}

func (sc *swapchainState) release() {
	releaseResources(sc.textures)
	sc.textures = nil
}

func releaseResources(resources []d3d.D3D12Resource) {
	for _, r := range resources {
		r.Release()
	}
}
