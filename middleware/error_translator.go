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
	"fmt"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/router"
)

// NewErrorTranslator is the outermost layer: it catches a
// panicking handler and maps it to a well-formed INTERNAL_ERROR response
// rather than letting it escape and take the connection's goroutine down
// with it. debug controls whether the panic value is attached as detail.
func NewErrorTranslator(log ipclog.Logger, debug bool) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(req *router.Request) (resp *framer.ResponseFrame) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("handler panic", ipclog.Fields{
						"method": req.Method, "path": req.Path, "panic": fmt.Sprint(r),
					})
					ierr := ipcerr.New(ipcerr.InternalError, "internal error")
					if debug {
						ierr = ierr.WithDetails(map[string]any{"panic": fmt.Sprint(r)})
					}
					resp = framer.NewError(ierr, req.RequestID, debug)
				}
			}()
			return next(req)
		}
	}
}
