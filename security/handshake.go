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

import "github.com/linch-mind/daemon/transport"

// HandshakeRequest is the decoded payload of POST /auth/handshake.
type HandshakeRequest struct {
	ClientPID int32 `json:"client_pid"`
}

// HandshakeResponse is returned on successful verification.
type HandshakeResponse struct {
	Authenticated bool       `json:"authenticated"`
	ServerPID     int32      `json:"server_pid"`
	ClientType    ClientType `json:"client_type"`
}

// PeerVerifier decides whether an external client (one whose declared PID
// is not the daemon's own) should be trusted. It receives the credentials
// captured at accept time and the PID the client declared in its
// handshake payload.
//
// DefaultPeerVerifier accepts any live client_pid unconditionally - the
// transport boundary (socket file permissions, named-pipe DACL) is the
// real trust boundary. The check is pluggable so an operator can tighten
// it without touching the handshake state machine.
type PeerVerifier func(peer transport.PeerCredential, declaredPID int32) bool

// DefaultPeerVerifier accepts any external client whose declared PID
// names a live process on this host.
func DefaultPeerVerifier(_ transport.PeerCredential, declaredPID int32) bool {
	return transport.ProcessAlive(declaredPID)
}
