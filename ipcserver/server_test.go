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

//go:build linux || darwin

package ipcserver_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/ipcserver"
	"github.com/linch-mind/daemon/security"
	"github.com/linch-mind/daemon/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIPCServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "IPCServer Suite")
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

var _ = Describe("Server end-to-end", func() {
	var (
		srv        *ipcserver.Server
		dir        string
		socketPath string
		cancel     context.CancelFunc
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		socketPath = filepath.Join(dir, "test.sock")

		srv = ipcserver.New(ipcserver.Options{
			Endpoint:        transport.Options{SocketPath: socketPath},
			AppDataDir:      dir,
			RequireAuthentication: false,
		}, ipclog.New(ipclog.PanicLevel))

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		Expect(srv.Start(ctx)).To(Succeed())
	})

	AfterEach(func() {
		cancel()
		_ = srv.Shutdown(context.Background())
	})

	It("answers GET /health over the unix socket", func() {
		conn, err := net.Dial("unix", socketPath)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/health", RequestID: "r1"})).To(Succeed())
		resp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeTrue())
		Expect(resp.Metadata.RequestID).To(Equal("r1"))

		data, ok := resp.Data.(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(data).To(HaveKeyWithValue("status", "healthy"))
		Expect(data).To(HaveKeyWithValue("service", "linch-mind-daemon"))
		Expect(data).To(HaveKeyWithValue("protocol_version", "2.0"))
		Expect(data).To(HaveKey("timestamp"))
	})

	It("writes responses back in request order on one connection", func() {
		conn, err := net.Dial("unix", socketPath)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		for _, id := range []string{"a", "b", "c"} {
			Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/health", RequestID: id})).To(Succeed())
		}
		for _, id := range []string{"a", "b", "c"} {
			resp, err := readFrame(conn)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Metadata.RequestID).To(Equal(id))
		}
	})

	It("completes a handshake and then serves a second request on the same connection", func() {
		conn, err := net.Dial("unix", socketPath)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		Expect(writeFrame(conn, framer.RequestFrame{
			Method: "POST", Path: security.HandshakePath,
			Data: map[string]any{"client_pid": os.Getpid()}, RequestID: "hs",
		})).To(Succeed())
		hsResp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(hsResp.Success).To(BeTrue())

		Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/server/info", RequestID: "r2"})).To(Succeed())
		resp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeTrue())
	})

	It("returns RESOURCE_NOT_FOUND for an unmatched route", func() {
		conn, err := net.Dial("unix", socketPath)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/nope", RequestID: "r3"})).To(Succeed())
		resp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeFalse())
	})

	It("answers exactly one INVALID_REQUEST frame for an oversize payload, then closes", func() {
		oversized := ipcserver.New(ipcserver.Options{
			Endpoint:              transport.Options{SocketPath: socketPath + ".sz"},
			AppDataDir:            GinkgoT().TempDir(),
			MaxPayloadBytes:       1024,
			RequireAuthentication: false,
		}, ipclog.New(ipclog.PanicLevel))
		szCtx, szCancel := context.WithCancel(context.Background())
		defer szCancel()
		Expect(oversized.Start(szCtx)).To(Succeed())
		defer oversized.Shutdown(context.Background())

		conn, err := net.Dial("unix", socketPath+".sz")
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], 2048)
		_, err = conn.Write(lenBuf[:])
		Expect(err).ToNot(HaveOccurred())
		_, err = conn.Write(make([]byte, 2048))
		Expect(err).ToNot(HaveOccurred())

		resp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeFalse())
		Expect(string(resp.Error.Code)).To(Equal("IPC_INVALID_REQUEST"))

		_, err = readFrame(conn)
		Expect(err).To(Equal(io.EOF))

		again, err := net.Dial("unix", socketPath+".sz")
		Expect(err).ToNot(HaveOccurred())
		defer again.Close()
		Expect(writeFrame(again, framer.RequestFrame{Method: "GET", Path: "/health", RequestID: "r"})).To(Succeed())
		resp, err = readFrame(again)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeTrue())
	})

	It("writes and removes the descriptor file across Start/Shutdown", func() {
		_, err := os.Stat(filepath.Join(dir, transport.DescriptorFileName))
		Expect(err).ToNot(HaveOccurred())

		cancel()
		Expect(srv.Shutdown(context.Background())).To(Succeed())
		_, err = os.Stat(filepath.Join(dir, transport.DescriptorFileName))
		Expect(os.IsNotExist(err)).To(BeTrue())

		// Re-create for the deferred AfterEach's own Shutdown call, which
		// must remain idempotent against an already-removed descriptor.
		srv = ipcserver.New(ipcserver.Options{Endpoint: transport.Options{SocketPath: socketPath + ".2"}, AppDataDir: dir}, ipclog.New(ipclog.PanicLevel))
		ctx, c := context.WithCancel(context.Background())
		cancel = c
		Expect(srv.Start(ctx)).To(Succeed())
	})
})

var _ = Describe("Server with the handshake gate enabled", func() {
	var (
		srv        *ipcserver.Server
		socketPath string
		cancel     context.CancelFunc
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		socketPath = filepath.Join(dir, "auth.sock")

		srv = ipcserver.New(ipcserver.Options{
			Endpoint:              transport.Options{SocketPath: socketPath},
			AppDataDir:            dir,
			RequireAuthentication: true,
		}, ipclog.New(ipclog.PanicLevel))

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		Expect(srv.Start(ctx)).To(Succeed())
	})

	AfterEach(func() {
		cancel()
		_ = srv.Shutdown(context.Background())
	})

	It("rejects a pre-handshake request without closing, then serves it after the handshake", func() {
		conn, err := net.Dial("unix", socketPath)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/health", RequestID: "r1"})).To(Succeed())
		resp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeFalse())
		Expect(string(resp.Error.Code)).To(Equal("IPC_AUTH_REQUIRED"))

		Expect(writeFrame(conn, framer.RequestFrame{
			Method: "POST", Path: security.HandshakePath,
			Data: map[string]any{"client_pid": os.Getpid()}, RequestID: "hs",
		})).To(Succeed())
		hsResp, err := readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(hsResp.Success).To(BeTrue())

		hsData, ok := hsResp.Data.(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(hsData).To(HaveKeyWithValue("authenticated", true))
		Expect(hsData).To(HaveKeyWithValue("client_type", "internal"))

		Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/health", RequestID: "r2"})).To(Succeed())
		resp, err = readFrame(conn)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Success).To(BeTrue())
	})
})

var _ = Describe("Server-side rate limiting", func() {
	It("admits exactly the burst cap from one peer and rejects the rest", func() {
		dir := GinkgoT().TempDir()
		socketPath := filepath.Join(dir, "rl.sock")

		srv := ipcserver.New(ipcserver.Options{
			Endpoint:              transport.Options{SocketPath: socketPath},
			AppDataDir:            dir,
			RequireAuthentication: false,
			RateLimit: security.RateLimitConfig{
				MaxBurst: 5, BurstWindow: 10 * time.Second,
				MaxPerMinute: 1000, ExemptMultiplier: 3,
				ExemptPrefixes: []string{"/config/"},
			},
		}, ipclog.New(ipclog.PanicLevel))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		Expect(srv.Start(ctx)).To(Succeed())
		defer srv.Shutdown(context.Background())

		conn, err := net.Dial("unix", socketPath)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		admitted, rejected := 0, 0
		for i := 0; i < 10; i++ {
			Expect(writeFrame(conn, framer.RequestFrame{Method: "GET", Path: "/server/info"})).To(Succeed())
			resp, err := readFrame(conn)
			Expect(err).ToNot(HaveOccurred())
			if resp.Success {
				admitted++
			} else {
				Expect(string(resp.Error.Code)).To(Equal("RATE_LIMITED"))
				rejected++
			}
		}
		Expect(admitted).To(Equal(5))
		Expect(rejected).To(Equal(5))
	})
})
