// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package osevent

import "sync"

// Event is a manual-reset event built on a condition variable.
type Event struct {
	mu     sync.Mutex
	cond   *sync.Cond
	set    bool
	closed bool
}

// New creates an unsignaled manual-reset event.
func New() (*Event, error) {
	e := &Event{}
	e.cond = sync.NewCond(&e.mu)
	return e, nil
}

// Handle returns 0: there is no native handle on this platform.
func (e *Event) Handle() uintptr { return 0 }

// Set signals the event and wakes every waiter.
func (e *Event) Set() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.set = true
	e.cond.Broadcast()
	return nil
}

// Reset returns the event to the unsignaled state.
func (e *Event) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.set = false
	return nil
}

// Wait blocks until the event is signaled or closed.
func (e *Event) Wait() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for !e.set && !e.closed {
		e.cond.Wait()
	}
	if !e.set {
		return ErrClosed
	}
	return nil
}

// Close wakes pending waiters with ErrClosed. Closing twice is a no-op.
func (e *Event) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.cond.Broadcast()
	return nil
}
