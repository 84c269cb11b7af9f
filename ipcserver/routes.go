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

package ipcserver

import (
	"encoding/json"
	"os"
	"time"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/router"
	"github.com/linch-mind/daemon/security"
	"github.com/linch-mind/daemon/version"
)

var startedAt = time.Now()

// decodeData re-marshals req.Data (already decoded into interface{} by the
// framer) into dst. Used by handlers that need a typed request body rather
// than the raw any the wire format hands them.
func decodeData(data any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (s *Server) registerRoutes() {
	s.router.MustHandle("POST", security.HandshakePath, s.handleHandshake)
	s.router.MustHandle("GET", "/health", s.handleHealth)
	s.router.MustHandle("GET", "/server/info", s.handleServerInfo)
	s.router.MustHandle("GET", "/server/metrics", s.handleMetrics)
	s.router.MustHandle("GET", "/security/events", s.handleSecurityEvents)
}

func (s *Server) handleHandshake(req *router.Request) *framer.ResponseFrame {
	var hs security.HandshakeRequest
	if err := decodeData(req.Data, &hs); err != nil {
		return framer.NewError(ipcerr.New(ipcerr.InvalidRequest, "malformed handshake payload"), req.RequestID, s.opts.Debug)
	}
	resp, err := s.security.Handshake(req.Security, hs)
	if err != nil {
		return framer.NewError(err, req.RequestID, s.opts.Debug)
	}
	return framer.NewSuccess(resp, req.RequestID)
}

// handleHealth must succeed even when every other subsystem is unhealthy:
// it depends on nothing but the clock.
func (s *Server) handleHealth(req *router.Request) *framer.ResponseFrame {
	return framer.NewSuccess(map[string]any{
		"status":           "healthy",
		"timestamp":        time.Now().UTC(),
		"service":          version.ServiceName,
		"protocol_version": version.ProtocolVersion,
	}, req.RequestID)
}

func (s *Server) handleServerInfo(req *router.Request) *framer.ResponseFrame {
	info := version.Get()
	return framer.NewSuccess(map[string]any{
		"pid":              os.Getpid(),
		"platform":         info.Platform,
		"architecture":     info.Architecture,
		"communication":    "Pure IPC",
		"protocol_version": info.ProtocolVersion,
		"uptime_seconds":   int64(time.Since(startedAt).Seconds()),
	}, req.RequestID)
}

func (s *Server) handleMetrics(req *router.Request) *framer.ResponseFrame {
	text, err := s.metrics.Render()
	if err != nil {
		return framer.NewError(ipcerr.Wrap(ipcerr.InternalError, err), req.RequestID, s.opts.Debug)
	}
	return framer.NewSuccess(text, req.RequestID)
}

func (s *Server) handleSecurityEvents(req *router.Request) *framer.ResponseFrame {
	return framer.NewSuccess(s.security.Events(), req.RequestID)
}
