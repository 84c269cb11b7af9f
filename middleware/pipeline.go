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

// Package middleware composes the ordered chain wrapping the router:
// error translation, payload/method validation, authentication
// enforcement, rate limiting, access logging. The chain is an ordered
// slice of function values composed by indexed reduction at build time,
// so there is no cycle between router and middleware.
package middleware

import (
	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/router"
)

// HandlerFunc is the shape every middleware wraps: the same shape as
// router.Handler, so the innermost layer is simply router.Dispatch.
type HandlerFunc func(*router.Request) *framer.ResponseFrame

// Middleware wraps a HandlerFunc, optionally short-circuiting with its own
// response without calling next. Layers above it still observe whatever
// response it produces.
type Middleware func(next HandlerFunc) HandlerFunc

// Pipeline is the built, ready-to-invoke chain.
type Pipeline struct {
	chain HandlerFunc
}

// Build composes mws around final in the order given - mws[0] is
// outermost, mws[len-1] is innermost, wrapping final. Pass the
// middlewares outermost-first.
func Build(final HandlerFunc, mws ...Middleware) *Pipeline {
	h := final
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return &Pipeline{chain: h}
}

// Handle runs req through the full chain.
func (p *Pipeline) Handle(req *router.Request) *framer.ResponseFrame {
	return p.chain(req)
}
