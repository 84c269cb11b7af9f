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
	"strings"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/router"
)

var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NewRequestValidator is the second layer: it rejects a frame
// before it ever reaches a handler when the frame itself is malformed - an
// oversized payload, an unsupported method, or a path that is not rooted at
// "/". Payload size is enforced upstream by the framer reader; this layer
// re-checks BytesIn so the same maxPayloadBytes is the single source of
// truth wherever a caller assembled req.BytesIn from the wire.
func NewRequestValidator(maxPayloadBytes uint32) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *router.Request) *framer.ResponseFrame {
			if maxPayloadBytes > 0 && uint32(req.BytesIn) > maxPayloadBytes {
				return framer.NewError(
					ipcerr.Newf(ipcerr.InvalidRequest, "payload of %d bytes exceeds the %d byte limit", req.BytesIn, maxPayloadBytes),
					req.RequestID, false)
			}
			if !allowedMethods[strings.ToUpper(req.Method)] {
				return framer.NewError(
					ipcerr.Newf(ipcerr.InvalidRequest, "unsupported method %q", req.Method),
					req.RequestID, false)
			}
			if !strings.HasPrefix(req.Path, "/") {
				return framer.NewError(
					ipcerr.New(ipcerr.InvalidRequest, "path must start with /"),
					req.RequestID, false)
			}
			return next(req)
		}
	}
}
