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
	"os"
	"sync"
	"time"

	"github.com/linch-mind/daemon/internal/ipcctx"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/transport"
)

// HandshakePath is the one route a connection may dispatch before it is
// authenticated.
const HandshakePath = "/auth/handshake"

// ManagerOptions configures a Manager: one policy owner for contexts,
// firewall, rate limiter and the event ring.
type ManagerOptions struct {
	ServerPID             int32
	RequireAuthentication bool
	Verifier              PeerVerifier
	RateLimit             RateLimitConfig
	Firewall              FirewallConfig
	RingCapacity          int

	// OnEvent, when set, observes every recorded security event in addition
	// to the ring. Used by the server to feed its metrics counters; must not
	// block.
	OnEvent func(Event)
}

// Manager owns every connection's SecurityContext, the shared rate
// limiter, the firewall, and the security event ring. The limiter and
// firewall can be swapped live through UpdatePolicies, so reads of either
// go through policyMu.
type Manager struct {
	opts     ManagerOptions
	contexts ipcctx.Registry[string]
	events   *ring
	verifier PeerVerifier

	policyMu sync.RWMutex
	limiter  *RateLimiter
	firewall *Firewall
}

// NewManager builds a Manager. A zero ServerPID defaults to the current
// process's own PID.
func NewManager(opts ManagerOptions) *Manager {
	if opts.ServerPID == 0 {
		opts.ServerPID = int32(os.Getpid())
	}
	if opts.Verifier == nil {
		opts.Verifier = DefaultPeerVerifier
	}
	return &Manager{
		opts:     opts,
		contexts: ipcctx.New[string](nil),
		limiter:  NewRateLimiter(opts.RateLimit),
		firewall: NewFirewall(opts.Firewall),
		events:   newRing(opts.RingCapacity),
		verifier: opts.Verifier,
	}
}

// UpdatePolicies replaces the rate-limit and firewall configuration, the
// entry point a config hot-reload uses. Replacing the limiter starts every
// peer's windows fresh; under new thresholds the old counts are not
// comparable anyway.
func (m *Manager) UpdatePolicies(rl RateLimitConfig, fw FirewallConfig) {
	m.policyMu.Lock()
	defer m.policyMu.Unlock()
	m.limiter = NewRateLimiter(rl)
	m.firewall = NewFirewall(fw)
}

// Accept creates and registers the SecurityContext for a newly accepted
// connection.
func (m *Manager) Accept(connectionID string, peer transport.PeerCredential) *Context {
	ctx := newContext(connectionID, peer)
	m.contexts.Store(connectionID, ctx)
	return ctx
}

// Close removes a connection's SecurityContext from the live table; a
// context never outlives its connection.
func (m *Manager) Close(ctx *Context) {
	ctx.close()
	m.contexts.Delete(ctx.ConnectionID())
	m.RecordEvent(EventConnectionClosed, ctx.ConnectionID(), ctx.Peer().PID, "", "")
}

// Handshake verifies a POST /auth/handshake request and, on success,
// authenticates ctx.
func (m *Manager) Handshake(ctx *Context, req HandshakeRequest) (*HandshakeResponse, ipcerr.Error) {
	if req.ClientPID == m.opts.ServerPID {
		ctx.authenticate(ClientInternal)
		m.RecordEvent(EventAuthSuccess, ctx.ConnectionID(), req.ClientPID, "POST", HandshakePath)
		return &HandshakeResponse{Authenticated: true, ServerPID: m.opts.ServerPID, ClientType: ClientInternal}, nil
	}

	if !m.verifier(ctx.Peer(), req.ClientPID) {
		m.RecordEvent(EventAuthFailed, ctx.ConnectionID(), req.ClientPID, "POST", HandshakePath)
		return nil, ipcerr.New(ipcerr.AuthFailed, "peer verification failed")
	}

	ctx.authenticate(ClientExternal)
	m.RecordEvent(EventAuthSuccess, ctx.ConnectionID(), req.ClientPID, "POST", HandshakePath)
	return &HandshakeResponse{Authenticated: true, ServerPID: m.opts.ServerPID, ClientType: ClientExternal}, nil
}

// RequireAuthentication reports whether the auth gate is active. When
// false (development only), every connection is treated as
// pre-authenticated.
func (m *Manager) RequireAuthentication() bool {
	return m.opts.RequireAuthentication
}

// CheckFirewall applies the method allow-list and path deny lists,
// recording a SecurityEvent on rejection.
func (m *Manager) CheckFirewall(ctx *Context, method, path string) ipcerr.Error {
	m.policyMu.RLock()
	fw := m.firewall
	m.policyMu.RUnlock()

	if err := fw.Check(method, path); err != nil {
		m.RecordEvent(EventFirewallRejected, ctx.ConnectionID(), ctx.Peer().PID, method, path)
		return err
	}
	return nil
}

// CheckRateLimit admits or rejects a request against the per-PID bucket,
// recording a SecurityEvent on rejection.
func (m *Manager) CheckRateLimit(ctx *Context, method, path string) ipcerr.Error {
	m.policyMu.RLock()
	limiter := m.limiter
	m.policyMu.RUnlock()

	if limiter.Admit(ctx.Peer().PID, path) {
		return nil
	}
	m.RecordEvent(EventRateLimited, ctx.ConnectionID(), ctx.Peer().PID, method, path)
	return ipcerr.New(ipcerr.RateLimited, "rate limit exceeded")
}

// RecordRequest increments ctx's accounting counters for an admitted
// request.
func (m *Manager) RecordRequest(ctx *Context) {
	ctx.recordRequest(time.Now())
}

// RecordEvent appends an entry to the bounded security ring.
func (m *Manager) RecordEvent(kind EventKind, connectionID string, pid int32, method, path string) {
	e := Event{
		Kind:         kind,
		ConnectionID: connectionID,
		PID:          pid,
		Method:       method,
		Path:         path,
		Timestamp:    time.Now(),
	}
	m.events.append(e)
	if m.opts.OnEvent != nil {
		m.opts.OnEvent(e)
	}
}

// Events returns a snapshot of the security ring, oldest first.
func (m *Manager) Events() []Event {
	return m.events.snapshot()
}

// Connections returns a snapshot of every live SecurityContext.
func (m *Manager) Connections() []Snapshot {
	var out []Snapshot
	m.contexts.Walk(func(_ string, val any) bool {
		if ctx, ok := val.(*Context); ok {
			out = append(out, ctx.Snapshot())
		}
		return true
	})
	return out
}

// PruneRateLimits removes rate-limit buckets idle beyond the longest
// configured window.
func (m *Manager) PruneRateLimits() {
	m.policyMu.RLock()
	limiter := m.limiter
	m.policyMu.RUnlock()
	limiter.Prune()
}
