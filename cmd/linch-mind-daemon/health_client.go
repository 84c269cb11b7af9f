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

package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/linch-mind/daemon/config"
	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/security"
	"github.com/linch-mind/daemon/transport"
)

// healthClient speaks the same length-prefixed JSON frames as the server,
// just enough to drive `linch-mind-daemon health` against a running
// instance without pulling in a full client SDK.
type healthClient struct {
	conn net.Conn
}

func newHealthClient(opts config.Options) (*healthClient, error) {
	dir := opts.AppDataDir
	if dir == "" {
		dir = config.DefaultAppDataDir()
	}
	d, err := transport.ReadDescriptor(dir)
	if err != nil {
		return nil, fmt.Errorf("locate daemon endpoint: %w", err)
	}

	conn, err := dialDescriptor(d)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Path, err)
	}
	return &healthClient{conn: conn}, nil
}

func (c *healthClient) Close() error {
	return c.conn.Close()
}

func (c *healthClient) Health(ctx context.Context) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	}

	hs := framer.RequestFrame{Method: "POST", Path: security.HandshakePath, Data: map[string]any{"client_pid": os.Getpid()}, RequestID: "cli-handshake"}
	if err := writeFrame(c.conn, hs); err != nil {
		return "", err
	}
	if hsResp, err := readFrame(c.conn); err != nil {
		return "", err
	} else if !hsResp.Success {
		return "", fmt.Errorf("daemon rejected handshake: %+v", hsResp.Error)
	}

	req := framer.RequestFrame{Method: "GET", Path: "/health", RequestID: "cli-health"}
	if err := writeFrame(c.conn, req); err != nil {
		return "", err
	}
	resp, err := readFrame(c.conn)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("daemon reported unhealthy: %+v", resp.Error)
	}
	body, err := json.Marshal(resp.Data)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func writeFrame(conn net.Conn, req framer.RequestFrame) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = conn.Write(body)
	return err
}

func readFrame(conn net.Conn) (*framer.ResponseFrame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, err
	}
	var resp framer.ResponseFrame
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
