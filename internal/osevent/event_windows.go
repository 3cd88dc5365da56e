// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package osevent

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

// Event is a manual-reset Win32 event.
type Event struct {
	mu     sync.Mutex
	handle windows.Handle
}

// New creates an unsignaled manual-reset event.
func New() (*Event, error) {
	h, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("osevent: CreateEvent: %w", err)
	}
	return &Event{handle: h}, nil
}

func (e *Event) get() (windows.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == 0 {
		return 0, ErrClosed
	}
	return e.handle, nil
}

// Handle returns the HANDLE value, or 0 after Close.
func (e *Event) Handle() uintptr {
	h, _ := e.get()
	return uintptr(h)
}

// Set signals the event.
func (e *Event) Set() error {
	h, err := e.get()
	if err != nil {
		return err
	}
	return windows.SetEvent(h)
}

// Reset returns the event to the unsignaled state.
func (e *Event) Reset() error {
	h, err := e.get()
	if err != nil {
		return err
	}
	return windows.ResetEvent(h)
}

// Wait blocks until the event is signaled.
func (e *Event) Wait() error {
	h, err := e.get()
	if err != nil {
		return err
	}
	ret, err := windows.WaitForSingleObject(h, windows.INFINITE)
	if err != nil {
		return fmt.Errorf("osevent: WaitForSingleObject: %w", err)
	}
	if ret != windows.WAIT_OBJECT_0 {
		return fmt.Errorf("osevent: WaitForSingleObject returned %#x", ret)
	}
	return nil
}

// Close releases the handle. Closing twice is a no-op.
func (e *Event) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(e.handle)
	e.handle = 0
	return err
}
