package interop

import (
	"fmt"

	"github.com/xrlayers/interop/d3d"
)

// Handles are opaque runtime values. Zero is XR_NULL_HANDLE.
type (
	Instance  uint64
	Session   uint64
	Swapchain uint64
	SystemID  uint64
)

// Version is a packed XrVersion.
type Version uint64

// MakeVersion packs major.minor.patch like XR_MAKE_VERSION.
func MakeVersion(major, minor, patch uint32) Version {
	return Version(uint64(major&0xffff)<<48 | uint64(minor&0xffff)<<32 | uint64(patch))
}

// Major returns the major component.
func (v Version) Major() uint32 { return uint32(v>>48) & 0xffff }

// Minor returns the minor component.
func (v Version) Minor() uint32 { return uint32(v>>32) & 0xffff }

// Patch returns the patch component.
func (v Version) Patch() uint32 { return uint32(v) }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// StructureType is an XrStructureType.
type StructureType uint32

// Structure types the layer recognizes.
const (
	TypeInstanceCreateInfo          StructureType = 3
	TypeSystemGetInfo               StructureType = 4
	TypeSystemProperties            StructureType = 5
	TypeSessionCreateInfo           StructureType = 8
	TypeSwapchainCreateInfo         StructureType = 9
	TypeFrameEndInfo                StructureType = 12
	TypeInstanceProperties          StructureType = 32
	TypeGraphicsBindingD3D11        StructureType = 1000027000
	TypeSwapchainImageD3D11         StructureType = 1000027001
	TypeGraphicsRequirementsD3D11   StructureType = 1000027002
	TypeGraphicsBindingD3D12        StructureType = 1000028000
	TypeSwapchainImageD3D12         StructureType = 1000028001
	TypeGraphicsRequirementsD3D12   StructureType = 1000028002
	TypeSessionCreateInfoOverlayEXT StructureType = 1000033000
)

// Extension names swapped during negotiation.
const (
	ExtensionD3D11Enable = "XR_KHR_D3D11_enable"
	ExtensionD3D12Enable = "XR_KHR_D3D12_enable"
)

// FormFactor is an XrFormFactor.
type FormFactor uint32

// Form factors.
const (
	FormFactorHeadMountedDisplay FormFactor = 1
	FormFactorHandheldDisplay    FormFactor = 2
)

// ApplicationInfo is XrApplicationInfo.
type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         Version
}

// InstanceCreateInfo is XrInstanceCreateInfo.
type InstanceCreateInfo struct {
	Next                  ChainStruct
	CreateFlags           uint64
	ApplicationInfo       ApplicationInfo
	EnabledAPILayerNames  []string
	EnabledExtensionNames []string
}

// InstanceProperties is XrInstanceProperties.
type InstanceProperties struct {
	RuntimeVersion Version
	RuntimeName    string
}

// SystemGetInfo is XrSystemGetInfo.
type SystemGetInfo struct {
	Next       ChainStruct
	FormFactor FormFactor
}

// SystemProperties is the part of XrSystemProperties the layer logs.
type SystemProperties struct {
	SystemID   SystemID
	VendorID   uint32
	SystemName string
}

// GraphicsRequirementsD3D11 is XrGraphicsRequirementsD3D11KHR.
type GraphicsRequirementsD3D11 struct {
	AdapterLUID     d3d.LUID
	MinFeatureLevel d3d.FeatureLevel
}

// GraphicsRequirementsD3D12 is XrGraphicsRequirementsD3D12KHR.
type GraphicsRequirementsD3D12 struct {
	AdapterLUID     d3d.LUID
	MinFeatureLevel d3d.FeatureLevel
}

// SessionCreateInfo is XrSessionCreateInfo.
type SessionCreateInfo struct {
	Next        ChainStruct
	CreateFlags uint64
	SystemID    SystemID
}

// SwapchainUsageFlags is XrSwapchainUsageFlags.
type SwapchainUsageFlags uint64

// Swapchain usage bits.
const (
	SwapchainUsageColorAttachment        SwapchainUsageFlags = 0x01
	SwapchainUsageDepthStencilAttachment SwapchainUsageFlags = 0x02
	SwapchainUsageUnorderedAccess        SwapchainUsageFlags = 0x04
	SwapchainUsageTransferSrc            SwapchainUsageFlags = 0x08
	SwapchainUsageTransferDst            SwapchainUsageFlags = 0x10
	SwapchainUsageSampled                SwapchainUsageFlags = 0x20
	SwapchainUsageMutableFormat          SwapchainUsageFlags = 0x40
)

// SwapchainCreateInfo is XrSwapchainCreateInfo. Format holds a DXGI_FORMAT
// on Direct3D sessions.
type SwapchainCreateInfo struct {
	Next        ChainStruct
	CreateFlags uint64
	UsageFlags  SwapchainUsageFlags
	Format      int64
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
}

// SwapchainImage is one element of the array passed to
// xrEnumerateSwapchainImages (XrSwapchainImageBaseHeader).
type SwapchainImage interface {
	StructureType() StructureType
}

// SwapchainImageD3D11 is XrSwapchainImageD3D11KHR.
type SwapchainImageD3D11 struct {
	Texture d3d.D3D11Texture
}

// StructureType implements SwapchainImage.
func (*SwapchainImageD3D11) StructureType() StructureType { return TypeSwapchainImageD3D11 }

// SwapchainImageD3D12 is XrSwapchainImageD3D12KHR.
type SwapchainImageD3D12 struct {
	Texture d3d.D3D12Resource
}

// StructureType implements SwapchainImage.
func (*SwapchainImageD3D12) StructureType() StructureType { return TypeSwapchainImageD3D12 }

// FrameEndInfo is the part of XrFrameEndInfo the layer forwards.
type FrameEndInfo struct {
	Next                 ChainStruct
	DisplayTime          int64
	EnvironmentBlendMode uint32
	LayerCount           uint32
}
