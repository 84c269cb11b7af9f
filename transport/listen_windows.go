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

//go:build windows

package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	winio "github.com/Microsoft/go-winio"
)

// pipeSecurityDescriptor grants full control to the current user SID and
// read/write to Administrators, with an explicit deny ACE for Everyone.
// go-winio takes this as an SDDL string rather than a hand-built ACL.
const pipeSecurityDescriptor = "D:P(D;;GA;;;WD)(A;;GRGW;;;BA)(A;;GA;;;OW)"

// fallbackSecurityDescriptor is used if the rich descriptor cannot be
// constructed: owner-only access.
const fallbackSecurityDescriptor = "D:P(A;;GA;;;OW)"

// DefaultPipeName returns the auto-generated pipe name for pid, without
// the `\\.\pipe\` prefix.
func DefaultPipeName(pid int) string {
	return fmt.Sprintf("linch-mind-%d", pid)
}

type pipeInstance struct {
	ln net.Listener
}

type pipeEndpoint struct {
	mu        sync.Mutex
	instances []*pipeInstance
	accepted  chan acceptResult
	closed    chan struct{}
	closeOnce sync.Once
	name      string
	path      string
	pid       int
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// listenPlatform creates a pool of N pre-created Named Pipe instances
// (message mode, duplex, overlapped I/O under the hood via go-winio), each
// running its own accept-connect-serve loop so a single Windows pipe
// instance serving only one client at a time does not serialize the
// server's clients.
func listenPlatform(opts Options) (Endpoint, error) {
	pid := os.Getpid()
	name := opts.PipeName
	if name == "" {
		name = DefaultPipeName(pid)
	}
	path := `\\.\pipe\` + name

	poolSize := opts.PipePoolSize
	if poolSize <= 0 {
		poolSize = DefaultPipePoolSize
	}

	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
		MessageMode:        true,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}

	ep := &pipeEndpoint{
		accepted: make(chan acceptResult, poolSize),
		closed:   make(chan struct{}),
		name:     name,
		path:     path,
		pid:      pid,
	}

	for i := 0; i < poolSize; i++ {
		ln, err := winio.ListenPipe(path, cfg)
		if err != nil {
			ln, err = winio.ListenPipe(path, &winio.PipeConfig{
				SecurityDescriptor: fallbackSecurityDescriptor,
				MessageMode:        true,
				InputBufferSize:    64 * 1024,
				OutputBufferSize:   64 * 1024,
			})
			if err != nil {
				ep.Close()
				return nil, fmt.Errorf("transport: create pipe instance %d: %w", i, err)
			}
		}
		inst := &pipeInstance{ln: ln}
		ep.instances = append(ep.instances, inst)
		go ep.serveInstance(inst)
	}

	return ep, nil
}

// serveInstance runs one instance's accept loop, feeding the shared
// accepted channel. Go's scheduler already parks blocking named-pipe I/O
// across OS threads, so a goroutine per instance is all the fan-out the
// pool needs.
func (e *pipeEndpoint) serveInstance(inst *pipeInstance) {
	failures := 0
	const maxConsecutiveFailures = 5
	backoff := 50 * time.Millisecond
	const maxBackoff = 2 * time.Second

	for {
		conn, err := inst.ln.Accept()
		select {
		case <-e.closed:
			return
		default:
		}
		if err != nil {
			failures++
			if failures >= maxConsecutiveFailures {
				return
			}
			time.Sleep(backoff)
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		failures = 0
		backoff = 50 * time.Millisecond

		select {
		case e.accepted <- acceptResult{conn: conn}:
		case <-e.closed:
			_ = conn.Close()
			return
		}
	}
}

func (e *pipeEndpoint) Accept(ctx context.Context) (ConnectionStream, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.closed:
		return nil, net.ErrClosed
	case r := <-e.accepted:
		if r.err != nil {
			return nil, r.err
		}
		pid := clientProcessID(r.conn)
		peer := PeerCredential{PID: pid, Source: "named_pipe_client_pid", Confidence: ConfidenceHigh}
		if pid == 0 {
			peer.Confidence = ConfidenceLow
		}
		return &pipeStream{conn: r.conn, peer: peer, connectedAt: time.Now()}, nil
	}
}

func (e *pipeEndpoint) Descriptor() Descriptor {
	return Descriptor{Type: string(KindNamedPipe), Path: e.path, PID: e.pid, Protocol: "ipc"}
}

func (e *pipeEndpoint) Close() error {
	e.closeOnce.Do(func() {
		close(e.closed)
	})
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for _, inst := range e.instances {
		if err := inst.ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// clientProcessID reads the PID of the connected client via go-winio's
// PipeConn, when the underlying type exposes it.
func clientProcessID(conn net.Conn) int32 {
	type pidReader interface {
		ClientProcessID() (uint32, error)
	}
	if pr, ok := conn.(pidReader); ok {
		if pid, err := pr.ClientProcessID(); err == nil {
			return int32(pid)
		}
	}
	return 0
}

type pipeStream struct {
	conn        net.Conn
	peer        PeerCredential
	connectedAt time.Time
}

func (s *pipeStream) Read(p []byte) (int, error)          { return s.conn.Read(p) }
func (s *pipeStream) Write(p []byte) (int, error)         { return s.conn.Write(p) }
func (s *pipeStream) Close() error                        { return s.conn.Close() }
func (s *pipeStream) Peer() PeerCredential                { return s.peer }
func (s *pipeStream) ConnectedAt() time.Time              { return s.connectedAt }
func (s *pipeStream) SetReadDeadline(t time.Time) error   { return s.conn.SetReadDeadline(t) }
