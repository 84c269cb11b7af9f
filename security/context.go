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

// Package security implements the per-connection SecurityContext, the
// handshake state machine, the firewall and the rate limiter that sit
// between the framer and the router.
package security

import (
	"sync"
	"time"

	"github.com/linch-mind/daemon/transport"
)

// State is a connection's position in the handshake state machine.
type State int

const (
	StateInit State = iota
	StateAwaitHandshake
	StateVerifying
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAwaitHandshake:
		return "await_handshake"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ClientType distinguishes a same-process loopback client from an external
// one, as surfaced in the handshake response.
type ClientType string

const (
	ClientInternal ClientType = "internal"
	ClientExternal ClientType = "external"
)

// Context is the per-connection authentication and accounting state.
// Exactly one Context exists per live ConnectionStream; both are created
// and destroyed together.
type Context struct {
	mu sync.Mutex

	connectionID string
	peer         transport.PeerCredential
	state        State
	clientType   ClientType

	connectedAt     time.Time
	requestCount    uint64
	lastRequestTime time.Time
}

// newContext is called only by Manager.Accept, which owns connectionID
// uniqueness.
func newContext(connectionID string, peer transport.PeerCredential) *Context {
	return &Context{
		connectionID: connectionID,
		peer:         peer,
		state:        StateAwaitHandshake,
		connectedAt:  time.Now(),
	}
}

// ConnectionID returns the opaque id this context is keyed by in the
// manager's live-connection table.
func (c *Context) ConnectionID() string {
	return c.connectionID
}

// Peer returns the credentials captured at accept time.
func (c *Context) Peer() transport.PeerCredential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peer
}

// State returns the current handshake state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsAuthenticated reports whether the connection has completed the
// handshake successfully.
func (c *Context) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateAuthenticated
}

// ClientType returns "internal" or "external" once authenticated; the zero
// value before then.
func (c *Context) ClientType() ClientType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientType
}

// authenticate transitions the context to AUTHENTICATED. Called only by
// Manager.Handshake after verification succeeds.
func (c *Context) authenticate(ct ClientType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateAuthenticated
	c.clientType = ct
}

// close transitions the context to CLOSED. Idempotent.
func (c *Context) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
}

// recordRequest increments the request counter and timestamps the
// connection. Called once per dispatched request, on admission.
func (c *Context) recordRequest(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount++
	c.lastRequestTime = at
}

// Snapshot is an immutable read of a Context's accounting fields, safe to
// retain past the context's lifetime (used by status/debug endpoints).
type Snapshot struct {
	ConnectionID    string                    `json:"connection_id"`
	PID             int32                     `json:"pid"`
	UID             int32                     `json:"uid,omitempty"`
	GID             int32                     `json:"gid,omitempty"`
	Confidence      transport.Confidence      `json:"peer_confidence"`
	Source          string                    `json:"peer_source"`
	State           string                    `json:"state"`
	ClientType      ClientType                `json:"client_type,omitempty"`
	ConnectedAt     time.Time                 `json:"connected_at"`
	RequestCount    uint64                    `json:"request_count"`
	LastRequestTime time.Time                 `json:"last_request_time,omitempty"`
}

// Snapshot returns a consistent, immutable read of the context's state.
func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ConnectionID:    c.connectionID,
		PID:             c.peer.PID,
		UID:             c.peer.UID,
		GID:             c.peer.GID,
		Confidence:      c.peer.Confidence,
		Source:          c.peer.Source,
		State:           c.state.String(),
		ClientType:      c.clientType,
		ConnectedAt:     c.connectedAt,
		RequestCount:    c.requestCount,
		LastRequestTime: c.lastRequestTime,
	}
}
