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

// Package router implements pattern-matched (method, path) dispatch with
// `{name}` path parameter capture. There is no net/http request object
// anywhere in this transport, so dispatch works directly on the decoded
// frame: segment matchers compiled at registration, O(segments) matching,
// prefix-composed sub-routers.
package router

import (
	"fmt"
	"strings"
	"sync"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/security"
)

// Request is what a registered Handler receives: the decoded frame plus
// the SecurityContext of the connection it arrived on. Request is what
// lets the handshake handler reach into the connection's context to
// authenticate it.
type Request struct {
	*framer.RequestFrame
	Security     *security.Context
	ConnectionID string
	BytesIn      int
}

// Handler is a route's business logic. Handlers must not retain Request
// past their return and are expected to be non-blocking at the scheduling
// layer, though bounded synchronous work is permitted.
type Handler func(*Request) *framer.ResponseFrame

type segment struct {
	literal string
	param   bool
	name    string
}

// Route is a registered (method, path pattern, handler) triple.
type Route struct {
	Method   string
	Pattern  string
	segments []segment
	Handler  Handler
}

func compileSegments(pattern string) []segment {
	parts := strings.Split(strings.Trim(pattern, "/"), "/")
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			segs = append(segs, segment{param: true, name: p[1 : len(p)-1]})
		} else {
			segs = append(segs, segment{literal: p})
		}
	}
	return segs
}

// specificity counts literal segments: higher means more specific, used to
// break ties in favor of exact matches over parameterized ones.
func (r *Route) specificity() int {
	n := 0
	for _, s := range r.segments {
		if !s.param {
			n++
		}
	}
	return n
}

func (r *Route) match(path string) (map[string]string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// Trim produces one empty element for "/"; normalize both sides the
	// same way compileSegments does.
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) != len(r.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range r.segments {
		if seg.param {
			params[seg.name] = clean[i]
			continue
		}
		if seg.literal != clean[i] {
			return nil, false
		}
	}
	return params, true
}

// table is the shared, mutex-guarded route set a Router and all of its
// sub-routers register into.
type table struct {
	mu     sync.Mutex
	routes []*Route
}

// Router is a registry of routes, optionally under a path prefix. The
// route table is read-only once the server starts accepting connections:
// Dispatch takes no lock.
type Router struct {
	prefix string
	tbl    *table
	frozen []*Route
}

// New returns an empty, unfrozen Router.
func New() *Router {
	return &Router{tbl: &table{}}
}

// Sub returns a Router scoped under prefix, sharing this Router's
// underlying table. Nested Sub calls concatenate prefixes.
func (r *Router) Sub(prefix string) *Router {
	return &Router{prefix: r.prefix + normalizePrefix(prefix), tbl: r.tbl}
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Handle registers a route. Ambiguous registrations - two patterns for
// the same method whose segments are structurally identical (same
// literal/param shape) - are rejected so startup fails instead of one
// route silently shadowing the other.
func (r *Router) Handle(method, pattern string, h Handler) error {
	full := r.prefix + pattern
	route := &Route{Method: strings.ToUpper(method), Pattern: full, segments: compileSegments(full), Handler: h}

	r.tbl.mu.Lock()
	defer r.tbl.mu.Unlock()

	for _, existing := range r.tbl.routes {
		if existing.Method == route.Method && sameShape(existing.segments, route.segments) {
			return fmt.Errorf("router: ambiguous route registration: %s %s conflicts with %s", route.Method, full, existing.Pattern)
		}
	}
	r.tbl.routes = append(r.tbl.routes, route)
	return nil
}

// MustHandle registers a route, panicking on conflict. Intended for
// startup-time registration of routes known not to conflict.
func (r *Router) MustHandle(method, pattern string, h Handler) {
	if err := r.Handle(method, pattern, h); err != nil {
		panic(err)
	}
}

func sameShape(a, b []segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].param != b[i].param {
			return false
		}
		if !a[i].param && a[i].literal != b[i].literal {
			return false
		}
	}
	return true
}

// Freeze snapshots the route table for lock-free dispatch. Call once,
// after every route (including those registered by external handler
// packages) has been added and before the server starts accepting
// connections.
func (r *Router) Freeze() {
	r.tbl.mu.Lock()
	defer r.tbl.mu.Unlock()
	r.frozen = append([]*Route(nil), r.tbl.routes...)
}

// Dispatch finds the first, most-specific matching route for req's
// (method, path), populates its PathParams, and invokes its handler. A
// miss returns a RESOURCE_NOT_FOUND response carrying {method, path} in
// details.
func (r *Router) Dispatch(req *Request) *framer.ResponseFrame {
	var (
		best       *Route
		bestParams map[string]string
	)
	for _, route := range r.frozen {
		if route.Method != req.Method {
			continue
		}
		params, ok := route.match(req.Path)
		if !ok {
			continue
		}
		if best == nil || route.specificity() > best.specificity() {
			best, bestParams = route, params
		}
	}

	if best == nil {
		return &framer.ResponseFrame{
			Success: false,
			Error: &framer.ResponseError{
				Code:    ipcerr.ResourceNotFound,
				Message: "no matching route",
				Details: map[string]any{"method": req.Method, "path": req.Path},
			},
			Metadata: framer.NewMeta(req.RequestID),
		}
	}

	req.PathParams = bestParams
	return best.Handler(req)
}
