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

package middleware_test

import (
	"testing"
	"time"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/middleware"
	"github.com/linch-mind/daemon/router"
	"github.com/linch-mind/daemon/security"
	"github.com/linch-mind/daemon/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

func okHandler(req *router.Request) *framer.ResponseFrame {
	return framer.NewSuccess("ok", req.RequestID)
}

func silentLog() ipclog.Logger {
	l := ipclog.New(ipclog.PanicLevel)
	return l
}

var _ = Describe("NewErrorTranslator", func() {
	It("recovers a panicking handler into an INTERNAL_ERROR response", func() {
		mw := middleware.NewErrorTranslator(silentLog(), false)
		handler := mw(func(req *router.Request) *framer.ResponseFrame {
			panic("boom")
		})

		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}})
		Expect(resp.Success).To(BeFalse())
		Expect(resp.Error.Code).To(Equal(ipcerr.InternalError))
	})

	It("passes through a non-panicking handler's response unchanged", func() {
		mw := middleware.NewErrorTranslator(silentLog(), false)
		handler := mw(okHandler)
		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}})
		Expect(resp.Data).To(Equal("ok"))
	})
})

var _ = Describe("NewRequestValidator", func() {
	It("rejects a payload larger than the configured limit", func() {
		mw := middleware.NewRequestValidator(10)
		handler := mw(okHandler)
		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}, BytesIn: 20})
		Expect(resp.Success).To(BeFalse())
		Expect(resp.Error.Code).To(Equal(ipcerr.InvalidRequest))
	})

	It("rejects an unsupported method", func() {
		mw := middleware.NewRequestValidator(0)
		handler := mw(okHandler)
		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "TRACE", Path: "/x"}})
		Expect(resp.Success).To(BeFalse())
	})

	It("rejects a path not rooted at /", func() {
		mw := middleware.NewRequestValidator(0)
		handler := mw(okHandler)
		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "x"}})
		Expect(resp.Success).To(BeFalse())
	})

	It("admits a well-formed request", func() {
		mw := middleware.NewRequestValidator(1024)
		handler := mw(okHandler)
		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}, BytesIn: 4})
		Expect(resp.Success).To(BeTrue())
	})
})

var _ = Describe("NewAuthEnforcer", func() {
	It("always admits the handshake path", func() {
		mgr := security.NewManager(security.ManagerOptions{RequireAuthentication: true})
		mw := middleware.NewAuthEnforcer(mgr)
		handler := mw(okHandler)

		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "POST", Path: security.HandshakePath}})
		Expect(resp.Success).To(BeTrue())
	})

	It("rejects an unauthenticated connection on any other path", func() {
		mgr := security.NewManager(security.ManagerOptions{RequireAuthentication: true})
		ctx := mgr.Accept("conn-1", transport.PeerCredential{PID: 99})
		mw := middleware.NewAuthEnforcer(mgr)
		handler := mw(okHandler)

		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/health"}, Security: ctx})
		Expect(resp.Success).To(BeFalse())
		Expect(resp.Error.Code).To(Equal(ipcerr.AuthRequired))
	})

	It("admits every connection when authentication is not required", func() {
		mgr := security.NewManager(security.ManagerOptions{RequireAuthentication: false})
		ctx := mgr.Accept("conn-1", transport.PeerCredential{PID: 99})
		mw := middleware.NewAuthEnforcer(mgr)
		handler := mw(okHandler)

		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/health"}, Security: ctx})
		Expect(resp.Success).To(BeTrue())
	})
})

var _ = Describe("NewFirewall and NewRateLimiter", func() {
	It("rejects a disallowed method before the rate limiter sees it", func() {
		mgr := security.NewManager(security.ManagerOptions{})
		ctx := mgr.Accept("conn-1", transport.PeerCredential{PID: 1})
		mw := middleware.NewFirewall(mgr)
		handler := mw(okHandler)

		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "TRACE", Path: "/health"}, Security: ctx})
		Expect(resp.Success).To(BeFalse())
		Expect(resp.Error.Code).To(Equal(ipcerr.InsufficientPerms))
	})

	It("rejects a request once the burst bucket is exhausted and records it", func() {
		mgr := security.NewManager(security.ManagerOptions{
			RateLimit: security.RateLimitConfig{MaxBurst: 1, BurstWindow: 10 * time.Second, MaxPerMinute: 1000, ExemptMultiplier: 1},
		})
		ctx := mgr.Accept("conn-1", transport.PeerCredential{PID: 1})
		mw := middleware.NewRateLimiter(mgr)
		handler := mw(okHandler)

		req := &router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}, Security: ctx}
		Expect(handler(req).Success).To(BeTrue())
		resp := handler(req)
		Expect(resp.Success).To(BeFalse())
		Expect(resp.Error.Code).To(Equal(ipcerr.RateLimited))
	})
})

var _ = Describe("NewAccessLogger", func() {
	It("invokes the wrapped handler and returns its response unmodified", func() {
		mw := middleware.NewAccessLogger(silentLog())
		handler := mw(okHandler)
		resp := handler(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}, ConnectionID: "c1"})
		Expect(resp.Data).To(Equal("ok"))
	})
})

var _ = Describe("Build", func() {
	It("composes middlewares outermost-first around the final handler", func() {
		var order []string
		trace := func(name string) middleware.Middleware {
			return func(next middleware.HandlerFunc) middleware.HandlerFunc {
				return func(req *router.Request) *framer.ResponseFrame {
					order = append(order, name)
					return next(req)
				}
			}
		}
		p := middleware.Build(okHandler, trace("a"), trace("b"), trace("c"))
		resp := p.Handle(&router.Request{RequestFrame: &framer.RequestFrame{Method: "GET", Path: "/x"}})
		Expect(resp.Data).To(Equal("ok"))
		Expect(order).To(Equal([]string{"a", "b", "c"}))
	})
})
