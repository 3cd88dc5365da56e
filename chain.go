package interop

import "github.com/xrlayers/interop/d3d"

// ChainStruct is a node of an OpenXR "next" chain (XrBaseInStructure).
//
// Nodes are linked through their Next field. The layer never writes to a
// node it did not allocate: WithNext returns a shallow copy instead.
type ChainStruct interface {
	StructureType() StructureType

	// NextStruct returns the following node, or nil.
	NextStruct() ChainStruct

	// WithNext returns a copy of the node linked to next.
	WithNext(next ChainStruct) ChainStruct
}

// GraphicsBindingD3D11 is XrGraphicsBindingD3D11KHR.
type GraphicsBindingD3D11 struct {
	Next   ChainStruct
	Device d3d.D3D11Device
}

// StructureType implements ChainStruct.
func (*GraphicsBindingD3D11) StructureType() StructureType { return TypeGraphicsBindingD3D11 }

// NextStruct implements ChainStruct.
func (b *GraphicsBindingD3D11) NextStruct() ChainStruct { return b.Next }

// WithNext implements ChainStruct.
func (b *GraphicsBindingD3D11) WithNext(next ChainStruct) ChainStruct {
	c := *b
	c.Next = next
	return &c
}

// GraphicsBindingD3D12 is XrGraphicsBindingD3D12KHR.
type GraphicsBindingD3D12 struct {
	Next   ChainStruct
	Device d3d.D3D12Device
	Queue  d3d.D3D12CommandQueue
}

// StructureType implements ChainStruct.
func (*GraphicsBindingD3D12) StructureType() StructureType { return TypeGraphicsBindingD3D12 }

// NextStruct implements ChainStruct.
func (b *GraphicsBindingD3D12) NextStruct() ChainStruct { return b.Next }

// WithNext implements ChainStruct.
func (b *GraphicsBindingD3D12) WithNext(next ChainStruct) ChainStruct {
	c := *b
	c.Next = next
	return &c
}

// SessionCreateInfoOverlay is XrSessionCreateInfoOverlayEXTX.
type SessionCreateInfoOverlay struct {
	Next                   ChainStruct
	CreateFlags            uint64
	SessionLayersPlacement uint32
}

// StructureType implements ChainStruct.
func (*SessionCreateInfoOverlay) StructureType() StructureType {
	return TypeSessionCreateInfoOverlayEXT
}

// NextStruct implements ChainStruct.
func (o *SessionCreateInfoOverlay) NextStruct() ChainStruct { return o.Next }

// WithNext implements ChainStruct.
func (o *SessionCreateInfoOverlay) WithNext(next ChainStruct) ChainStruct {
	c := *o
	c.Next = next
	return &c
}

// OpaqueStruct carries an extension struct the layer does not interpret.
type OpaqueStruct struct {
	Next    ChainStruct
	Type    StructureType
	Payload any
}

// StructureType implements ChainStruct.
func (o *OpaqueStruct) StructureType() StructureType { return o.Type }

// NextStruct implements ChainStruct.
func (o *OpaqueStruct) NextStruct() ChainStruct { return o.Next }

// WithNext implements ChainStruct.
func (o *OpaqueStruct) WithNext(next ChainStruct) ChainStruct {
	c := *o
	c.Next = next
	return &c
}

// FindInChain returns the first node of type t in the chain starting at
// head, and its index.
func FindInChain(head ChainStruct, t StructureType) (ChainStruct, int) {
	i := 0
	for entry := head; entry != nil; entry = entry.NextStruct() {
		if entry.StructureType() == t {
			return entry, i
		}
		i++
	}
	return nil, -1
}

// replaceInChain returns a chain equal to the one at head except that the
// node at index is replaced by repl, linked to the original successor.
// Nodes before index are copied, nodes after it are shared. The original
// chain is left untouched.
func replaceInChain(head ChainStruct, index int, repl ChainStruct) ChainStruct {
	if head == nil {
		return nil
	}
	if index == 0 {
		return repl.WithNext(head.NextStruct())
	}
	return head.WithNext(replaceInChain(head.NextStruct(), index-1, repl))
}
