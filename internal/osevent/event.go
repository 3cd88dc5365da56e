// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package osevent provides the manual-reset event the layer blocks on
// while draining GPU work. On Windows it is a Win32 event object that
// native Direct3D backends can be handed directly; elsewhere it is a
// condition variable.
package osevent

import "errors"

// ErrClosed is returned when an event is used after Close.
var ErrClosed = errors.New("osevent: event closed")
