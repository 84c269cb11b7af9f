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

package middleware

import (
	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/router"
	"github.com/linch-mind/daemon/security"
)

// NewFirewall applies the method allow-list and blocked/sensitive path
// checks ahead of rate limiting, so a request the firewall would reject
// never consumes a slot in the caller's rate-limit bucket.
func NewFirewall(mgr *security.Manager) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *router.Request) *framer.ResponseFrame {
			if err := mgr.CheckFirewall(req.Security, req.Method, req.Path); err != nil {
				return framer.NewError(err, req.RequestID, false)
			}
			return next(req)
		}
	}
}

// NewRateLimiter is the fifth layer, inside the firewall: it admits or rejects a
// request against the caller PID's sliding-window bucket before dispatch,
// then records the accepted request's accounting on ctx.
func NewRateLimiter(mgr *security.Manager) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *router.Request) *framer.ResponseFrame {
			if err := mgr.CheckRateLimit(req.Security, req.Method, req.Path); err != nil {
				return framer.NewError(err, req.RequestID, false)
			}
			mgr.RecordRequest(req.Security)
			return next(req)
		}
	}
}
