/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package security

import (
	"sync"
	"time"
)

// EventKind classifies a SecurityEvent.
type EventKind string

const (
	EventAuthSuccess      EventKind = "auth_success"
	EventAuthFailed       EventKind = "auth_failed"
	EventFirewallRejected EventKind = "firewall_rejected"
	EventRateLimited      EventKind = "rate_limited"
	EventConnectionClosed EventKind = "connection_closed"
)

// Event is one entry in the bounded security ring.
type Event struct {
	Kind         EventKind `json:"kind"`
	ConnectionID string    `json:"connection_id"`
	PID          int32     `json:"pid"`
	Method       string    `json:"method,omitempty"`
	Path         string    `json:"path,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// DefaultRingCapacity bounds the in-memory event ring at 1,000 entries,
// oldest dropped on overflow.
const DefaultRingCapacity = 1000

// ring is an append-only, bounded, oldest-drop circular buffer. Appends
// are the only hot-path mutation and hold the lock for a single push.
type ring struct {
	mu   sync.Mutex
	buf  []Event
	next int
	full bool
	cap  int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &ring{buf: make([]Event, capacity), cap: capacity}
}

func (r *ring) append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % r.cap
	if r.next == 0 {
		r.full = true
	}
}

// snapshot returns events oldest-first.
func (r *ring) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Event, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Event, r.cap)
	copy(out, r.buf[r.next:])
	copy(out[r.cap-r.next:], r.buf[:r.next])
	return out
}
