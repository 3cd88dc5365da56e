// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Format is a DXGI_FORMAT value. OpenXR swapchains on Direct3D carry it as
// their int64 format.
type Format uint32

// DXGI formats commonly used by OpenXR swapchains.
const (
	FormatUnknown              Format = 0
	FormatR32G32B32A32Float    Format = 2
	FormatR16G16B16A16Float    Format = 10
	FormatD32FloatS8X24Uint    Format = 20
	FormatR10G10B10A2Unorm     Format = 24
	FormatR8G8B8A8Unorm        Format = 28
	FormatR8G8B8A8UnormSRGB    Format = 29
	FormatD32Float             Format = 40
	FormatR32Float             Format = 41
	FormatD24UnormS8Uint       Format = 45
	FormatR8Unorm              Format = 61
	FormatD16Unorm             Format = 55
	FormatB8G8R8A8Unorm        Format = 87
	FormatB8G8R8A8UnormSRGB    Format = 91
	FormatR8G8B8A8Typeless     Format = 27
	FormatB8G8R8A8Typeless     Format = 90
	FormatR24G8Typeless        Format = 44
	FormatR32Typeless          Format = 39
	FormatR16Typeless          Format = 53
	FormatR32G8X24Typeless     Format = 19
	FormatR16G16B16A16Typeless Format = 9
)

type formatInfo struct {
	name    string
	texture gputypes.TextureFormat
	depth   bool
}

var formats = map[Format]formatInfo{
	FormatR32G32B32A32Float:    {"R32G32B32A32_FLOAT", gputypes.TextureFormatRGBA32Float, false},
	FormatR16G16B16A16Float:    {"R16G16B16A16_FLOAT", gputypes.TextureFormatRGBA16Float, false},
	FormatR16G16B16A16Typeless: {"R16G16B16A16_TYPELESS", gputypes.TextureFormatRGBA16Float, false},
	FormatR8G8B8A8Unorm:        {"R8G8B8A8_UNORM", gputypes.TextureFormatRGBA8Unorm, false},
	FormatR8G8B8A8UnormSRGB:    {"R8G8B8A8_UNORM_SRGB", gputypes.TextureFormatRGBA8UnormSrgb, false},
	FormatR8G8B8A8Typeless:     {"R8G8B8A8_TYPELESS", gputypes.TextureFormatRGBA8Unorm, false},
	FormatB8G8R8A8Unorm:        {"B8G8R8A8_UNORM", gputypes.TextureFormatBGRA8Unorm, false},
	FormatB8G8R8A8UnormSRGB:    {"B8G8R8A8_UNORM_SRGB", gputypes.TextureFormatBGRA8UnormSrgb, false},
	FormatB8G8R8A8Typeless:     {"B8G8R8A8_TYPELESS", gputypes.TextureFormatBGRA8Unorm, false},
	FormatR10G10B10A2Unorm:     {"R10G10B10A2_UNORM", gputypes.TextureFormatUndefined, false},
	FormatR32Float:             {"R32_FLOAT", gputypes.TextureFormatR32Float, false},
	FormatR8Unorm:              {"R8_UNORM", gputypes.TextureFormatR8Unorm, false},
	FormatD32FloatS8X24Uint:    {"D32_FLOAT_S8X24_UINT", gputypes.TextureFormatDepth32FloatStencil8, true},
	FormatR32G8X24Typeless:     {"R32G8X24_TYPELESS", gputypes.TextureFormatDepth32FloatStencil8, true},
	FormatD32Float:             {"D32_FLOAT", gputypes.TextureFormatDepth32Float, true},
	FormatR32Typeless:          {"R32_TYPELESS", gputypes.TextureFormatDepth32Float, true},
	FormatD24UnormS8Uint:       {"D24_UNORM_S8_UINT", gputypes.TextureFormatDepth24PlusStencil8, true},
	FormatR24G8Typeless:        {"R24G8_TYPELESS", gputypes.TextureFormatDepth24PlusStencil8, true},
	FormatD16Unorm:             {"D16_UNORM", gputypes.TextureFormatDepth16Unorm, true},
	FormatR16Typeless:          {"R16_TYPELESS", gputypes.TextureFormatDepth16Unorm, true},
}

// String returns the DXGI name of the format without the DXGI_FORMAT_ prefix.
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	if f == FormatUnknown {
		return "UNKNOWN"
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

// TextureFormat returns the equivalent WebGPU texture format, or
// gputypes.TextureFormatUndefined when the format has no counterpart.
// Typeless formats map to their canonical typed variant.
func (f Format) TextureFormat() gputypes.TextureFormat {
	if info, ok := formats[f]; ok {
		return info.texture
	}
	return gputypes.TextureFormatUndefined
}

// IsDepth reports whether the format is a depth or depth/stencil format,
// including the typeless formats swapchains use for depth.
func (f Format) IsDepth() bool {
	return formats[f].depth
}
