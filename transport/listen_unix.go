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

//go:build !windows

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

func unknownPeerCredential() PeerCredential {
	return PeerCredential{Source: "none", Confidence: ConfidenceUnknown}
}

// DefaultSocketPath returns the auto-generated socket path for pid under
// the system temp directory.
func DefaultSocketPath(pid int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("linch-mind-%d.sock", pid))
}

type unixEndpoint struct {
	ln   *net.UnixListener
	path string
	pid  int
}

// listenPlatform binds a Unix domain socket, removing any stale file at
// the path first, creating the parent directory 0700 if needed, and
// chmod-ing the socket file to 0600 immediately after bind.
func listenPlatform(opts Options) (Endpoint, error) {
	pid := os.Getpid()
	path := opts.SocketPath
	if path == "" {
		path = DefaultSocketPath(pid)
	}

	dirMode := os.FileMode(0700)
	if opts.SocketDirMode != 0 {
		dirMode = os.FileMode(opts.SocketDirMode)
	}
	fileMode := os.FileMode(0600)
	if opts.SocketFileMode != 0 {
		fileMode = os.FileMode(opts.SocketFileMode)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("transport: create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("transport: remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve socket address: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen on socket: %w", err)
	}
	if err := os.Chmod(path, fileMode); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("transport: chmod socket: %w", err)
	}

	return &unixEndpoint{ln: ln, path: path, pid: pid}, nil
}

func (e *unixEndpoint) Accept(ctx context.Context) (ConnectionStream, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := e.ln.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		uconn, _ := r.conn.(*net.UnixConn)
		peer := readPeerCredential(uconn)
		return &unixStream{conn: r.conn, peer: peer, connectedAt: time.Now()}, nil
	}
}

func (e *unixEndpoint) Descriptor() Descriptor {
	return Descriptor{Type: string(KindUnixSocket), Path: e.path, PID: e.pid, Protocol: "ipc"}
}

func (e *unixEndpoint) Close() error {
	err := e.ln.Close()
	if rmErr := os.Remove(e.path); rmErr != nil && !os.IsNotExist(rmErr) {
		if err == nil {
			err = rmErr
		}
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

type unixStream struct {
	conn        net.Conn
	peer        PeerCredential
	connectedAt time.Time
}

func (s *unixStream) Read(p []byte) (int, error)          { return s.conn.Read(p) }
func (s *unixStream) Write(p []byte) (int, error)         { return s.conn.Write(p) }
func (s *unixStream) Close() error                        { return s.conn.Close() }
func (s *unixStream) Peer() PeerCredential                { return s.peer }
func (s *unixStream) ConnectedAt() time.Time              { return s.connectedAt }
func (s *unixStream) SetReadDeadline(t time.Time) error   { return s.conn.SetReadDeadline(t) }
