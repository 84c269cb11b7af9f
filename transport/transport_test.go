//go:build linux || darwin

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

package transport_test

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linch-mind/daemon/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Suite")
}

func tempSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("linch-mind-test-%d-%d.sock", os.Getpid(), time.Now().UnixNano()))
}

var _ = Describe("Unix domain socket endpoint", func() {
	var (
		ep   transport.Endpoint
		path string
	)

	BeforeEach(func() {
		path = tempSocketPath()
		var err error
		ep, err = transport.Listen(transport.Options{SocketPath: path})
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		if ep != nil {
			_ = ep.Close()
		}
	})

	It("binds the socket file owner-only", func() {
		info, err := os.Stat(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
	})

	It("reports a descriptor matching the bound path and this process", func() {
		d := ep.Descriptor()
		Expect(d.Type).To(Equal(string(transport.KindUnixSocket)))
		Expect(d.Path).To(Equal(path))
		Expect(d.PID).To(Equal(os.Getpid()))
		Expect(d.Protocol).To(Equal("ipc"))
	})

	It("accepts a connection and exchanges bytes in both directions", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			stream, err := ep.Accept(ctx)
			Expect(err).ToNot(HaveOccurred())
			buf := make([]byte, 5)
			_, err = stream.Read(buf)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(buf)).To(Equal("hello"))
			_, err = stream.Write([]byte("world"))
			Expect(err).ToNot(HaveOccurred())
			_ = stream.Close()
		}()

		conn, err := net.Dial("unix", path)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("hello"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 5)
		_, err = conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf)).To(Equal("world"))

		Eventually(done, time.Second).Should(BeClosed())
	})

	It("removes the socket file on Close", func() {
		Expect(ep.Close()).To(Succeed())
		_, err := os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
		ep = nil
	})

	It("cancels Accept when the context is done", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ep.Accept(ctx)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Endpoint descriptor files", func() {
	It("round-trips through WriteDescriptor/RemoveDescriptor", func() {
		dir := filepath.Join(os.TempDir(), fmt.Sprintf("linch-mind-appdata-%d", time.Now().UnixNano()))
		defer os.RemoveAll(dir)

		d := transport.Descriptor{Type: "unix_socket", Path: "/tmp/x.sock", PID: 123, Protocol: "ipc"}
		Expect(transport.WriteDescriptor(dir, d)).To(Succeed())

		body, err := os.ReadFile(filepath.Join(dir, transport.DescriptorFileName))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`"pid":123`))

		marker, err := os.ReadFile(filepath.Join(dir, transport.LegacyMarkerFileName))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(marker)).To(Equal("0:123"))

		Expect(transport.RemoveDescriptor(dir)).To(Succeed())
		_, err = os.Stat(filepath.Join(dir, transport.DescriptorFileName))
		Expect(os.IsNotExist(err)).To(BeTrue())
		_, err = os.Stat(filepath.Join(dir, transport.LegacyMarkerFileName))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("is idempotent when the files are already gone", func() {
		dir := filepath.Join(os.TempDir(), fmt.Sprintf("linch-mind-appdata-missing-%d", time.Now().UnixNano()))
		Expect(transport.RemoveDescriptor(dir)).To(Succeed())
	})
})

var _ = Describe("Process liveness", func() {
	It("reports the current process as alive", func() {
		Expect(transport.ProcessAlive(int32(os.Getpid()))).To(BeTrue())
	})

	It("reports a PID of zero or less as not alive", func() {
		Expect(transport.ProcessAlive(0)).To(BeFalse())
		Expect(transport.ProcessAlive(-1)).To(BeFalse())
	})
})
