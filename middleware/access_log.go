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
	"time"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/router"
)

// NewAccessLogger is the innermost layer, wrapping the router
// dispatch itself so duration_ms measures handler execution exactly.
func NewAccessLogger(log ipclog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *router.Request) *framer.ResponseFrame {
			start := time.Now()
			resp := next(req)
			fields := ipclog.Fields{
				"connection_id": req.ConnectionID,
				"request_id":    req.RequestID,
				"method":        req.Method,
				"path":          req.Path,
				"bytes_in":      req.BytesIn,
				"duration_ms":   time.Since(start).Milliseconds(),
				"success":       resp.Success,
			}
			if !resp.Success && resp.Error != nil {
				fields["error_code"] = resp.Error.Code
				log.Warn("request failed", fields)
				return resp
			}
			log.Info("request handled", fields)
			return resp
		}
	}
}
