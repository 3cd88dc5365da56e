// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"

	"github.com/xrlayers/interop"
)

// Loader plays the OpenXR loader for a chain made of one layer entry in
// front of a Runtime.
type Loader struct {
	Entry   *interop.Entry
	Runtime *Runtime

	// LayerName is the name put in the layer's next info.
	LayerName string

	instance interop.Instance
}

// NewLoader chains entry in front of rt.
func NewLoader(entry *interop.Entry, rt *Runtime) *Loader {
	return &Loader{Entry: entry, Runtime: rt, LayerName: interop.LayerName}
}

// LayerInfo returns the create info the loader hands to the layer.
func (l *Loader) LayerInfo() *interop.ApiLayerCreateInfo {
	return interop.NewApiLayerCreateInfo(
		interop.NewApiLayerNextInfo(l.LayerName, l.Runtime.GetInstanceProcAddr, l.Runtime.CreateApiLayerInstance, nil))
}

// CreateInstance creates an instance through the layer.
func (l *Loader) CreateInstance(info *interop.InstanceCreateInfo) (interop.Instance, interop.Result) {
	instance, r := l.Entry.CreateApiLayerInstance(info, l.LayerInfo())
	if r.Succeeded() {
		l.instance = instance
	}
	return instance, r
}

// Instance returns the last instance created.
func (l *Loader) Instance() interop.Instance { return l.instance }

// Resolve looks name up through the layer and asserts its signature.
func Resolve[F any](l *Loader, name string) (F, error) {
	var zero F
	p, r := l.Entry.GetInstanceProcAddr(l.instance, name)
	if r.Failed() {
		return zero, fmt.Errorf("%s: %w", name, r)
	}
	f, ok := p.(F)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected signature %T", name, p)
	}
	return f, nil
}

// MustResolve is like Resolve but panics on failure. Tests and demos only.
func MustResolve[F any](l *Loader, name string) F {
	f, err := Resolve[F](l, name)
	if err != nil {
		panic(err)
	}
	return f
}
