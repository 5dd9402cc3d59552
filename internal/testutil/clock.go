// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant handed out by a new Clock.
var Epoch = time.Date(2025, time.March, 8, 9, 0, 0, 0, time.UTC)

// Clock is a thread-safe stepping clock. Every call to Now advances it by Step, so
// successive writes get strictly increasing timestamps.
type Clock struct {
	mu   sync.Mutex
	cur  time.Time
	Step time.Duration
}

// NewClock starts at Epoch and advances one second per reading.
func NewClock() *Clock {
	return &Clock{cur: Epoch, Step: time.Second}
}

// Now returns the current instant and then advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.cur
	c.cur = c.cur.Add(c.Step)
	return t
}

// Peek returns the instant the next Now call will return.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

// Advance moves the clock forward without a reading.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}
