// Copyright 2026 The xrlayers Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"sync"

	"github.com/xrlayers/interop/d3d"
)

// counter is the GPU-side value of a fence. The D3D11 and D3D12 fence
// objects opened from one shared handle point to the same counter.
type counter struct {
	mu      sync.Mutex
	value   uint64
	waiters []waiter
}

type waiter struct {
	value uint64
	event d3d.Event
}

func (c *counter) completed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// signal advances the counter and sets the events whose value was reached.
// Fences only move forward.
func (c *counter) signal(value uint64) {
	c.mu.Lock()
	if value > c.value {
		c.value = value
	}
	var ready []d3d.Event
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if w.value <= c.value {
			ready = append(ready, w.event)
		} else {
			pending = append(pending, w)
		}
	}
	c.waiters = pending
	c.mu.Unlock()

	for _, ev := range ready {
		if err := ev.Set(); err != nil {
			slogger().Warn("cannot set completion event", "error", err)
		}
	}
}

// notify sets event once the counter reaches value.
func (c *counter) notify(value uint64, event d3d.Event) error {
	c.mu.Lock()
	if c.value < value {
		c.waiters = append(c.waiters, waiter{value: value, event: event})
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return event.Set()
}
