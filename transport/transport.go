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

// Package transport provides the platform-specific endpoint acquisition and
// byte-stream I/O the rest of the IPC fabric builds on: a Unix domain
// socket listener on POSIX, a Named Pipe instance pool on Windows, both
// exposed through the same Endpoint/ConnectionStream surface so the framer
// and everything above it never branches on GOOS.
package transport

import (
	"context"
	"io"
	"time"
)

// Kind identifies which platform primitive backs an Endpoint.
type Kind string

const (
	KindUnixSocket Kind = "unix_socket"
	KindNamedPipe  Kind = "named_pipe"
)

// Confidence grades how trustworthy a PeerCredential's PID is. Some
// platforms (and sandboxes on platforms that normally support it) cannot
// guarantee the credential, so the authentication decision stays boolean
// while logging can still distinguish a solid read from a guess.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// PeerCredential is the OS-reported identity of the process on the other
// end of a connection.
type PeerCredential struct {
	PID        int32
	UID        int32
	GID        int32
	Source     string
	Confidence Confidence
}

// ConnectionStream is an accepted connection: ordered, reliable,
// message-preserving byte delivery in both directions, exclusively owned
// by whichever goroutine accepted it for the entire connection lifetime.
type ConnectionStream interface {
	io.Reader
	io.Writer
	io.Closer

	// Peer returns the credentials captured at accept time.
	Peer() PeerCredential
	// ConnectedAt returns when this stream was accepted.
	ConnectedAt() time.Time
	// SetReadDeadline bounds the next Read. The zero time clears the
	// deadline. Backs the idle-connection timeout and the shutdown drain,
	// which both need a blocked reader to wake without the peer's help.
	SetReadDeadline(t time.Time) error
}

// Descriptor is the JSON shape written to the endpoint descriptor file so
// clients can discover how to connect.
type Descriptor struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	PID      int    `json:"pid"`
	Protocol string `json:"protocol"`
}

// Endpoint is the accept-loop surface common to both platform
// implementations.
type Endpoint interface {
	// Accept blocks until a new connection arrives, ctx is canceled, or the
	// endpoint is closed. It never blocks the caller from servicing other
	// connections concurrently - each Accept call is independent.
	Accept(ctx context.Context) (ConnectionStream, error)
	// Descriptor returns the JSON descriptor clients use to connect.
	Descriptor() Descriptor
	// Close releases the platform resource(s) backing this endpoint and
	// unblocks any in-flight Accept call with an error.
	Close() error
}

// Options configures Listen. Fields not meaningful to the selected
// platform are ignored.
type Options struct {
	// SocketPath overrides the auto-generated Unix domain socket path.
	SocketPath string
	// PipeName overrides the auto-generated Windows Named Pipe name
	// (without the `\\.\pipe\` prefix).
	PipeName string
	// PipePoolSize is the number of pre-created pipe instances (Windows
	// only). Zero selects DefaultPipePoolSize.
	PipePoolSize int
	// SocketFileMode is the permission bits applied to the socket file
	// after bind (POSIX only). Zero selects 0600.
	SocketFileMode uint32
	// SocketDirMode is the permission bits applied to the socket's parent
	// directory if it must be created (POSIX only). Zero selects 0700.
	SocketDirMode uint32
}

// DefaultPipePoolSize is the number of Named Pipe instances created when
// Options.PipePoolSize is zero.
const DefaultPipePoolSize = 10

// Listen acquires the platform endpoint: a Unix domain socket on POSIX, a
// Named Pipe instance pool on Windows. Permission and address-in-use
// failures are returned as-is; callers treat them as fatal.
func Listen(opts Options) (Endpoint, error) {
	return listenPlatform(opts)
}
