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
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/linch-mind/daemon/framer"
	"github.com/linch-mind/daemon/internal/ipcerr"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/router"
	"github.com/linch-mind/daemon/transport"
)

// countingReader tracks how many bytes have been pulled through it, so a
// single frame's on-wire size can be measured without the framer package
// needing to expose it directly.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// handleConnection owns conn for its entire lifetime: it reads exactly one
// request, dispatches it, writes exactly one response, and repeats - never
// reading ahead, so requests on one connection are answered strictly in
// arrival order.
func (s *Server) handleConnection(ctx context.Context, conn transport.ConnectionStream) {
	defer s.wg.Done()
	defer func() { <-s.sem }()
	defer conn.Close()

	connectionID := uuid.NewString()
	peer := conn.Peer()
	secCtx := s.security.Accept(connectionID, peer)
	defer s.security.Close(secCtx)

	s.conns.Store(connectionID, conn)
	defer s.conns.Delete(connectionID)

	s.metrics.connectionOpened()
	defer s.metrics.connectionClosed()

	s.log.Debug("connection accepted", ipclog.Fields{
		"connection_id": connectionID, "pid": peer.PID, "source": peer.Source,
	})

	cr := &countingReader{r: conn}
	fw := framer.NewFrameWriter(conn)

	for {
		if ctx.Err() != nil {
			s.writeShutdownResponse(fw)
			return
		}
		if s.opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}

		before := cr.n
		reqFrame, err := framer.ReadRequest(cr, s.opts.MaxPayloadBytes)
		if err != nil {
			if ctx.Err() != nil {
				s.writeShutdownResponse(fw)
				return
			}
			if errors.Is(err, framer.ErrPeerClosed) || errors.Is(err, framer.ErrIncompleteFrame) {
				return
			}
			if ierr := ipcerr.Get(err); ierr != nil {
				_ = fw.WriteResponse(framer.NewError(ierr, "", s.opts.Debug))
				// Discard what the peer already sent, so the close reaches
				// it as a clean EOF rather than a connection reset.
				_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
				_, _ = io.Copy(io.Discard, conn)
				return
			}
			s.log.Warn("read request failed", ipclog.Fields{"connection_id": connectionID, "error": err.Error()})
			return
		}

		req := &router.Request{
			RequestFrame: reqFrame,
			Security:     secCtx,
			ConnectionID: connectionID,
			// Payload bytes only: the 4-byte length prefix is not counted,
			// matching the limit the framer applies.
			BytesIn: int(cr.n-before) - 4,
		}

		resp := s.dispatch(req)
		s.metrics.observeRequest(req.Method, req.Path, resp.Success)
		if resp.Error != nil {
			switch resp.Error.Code {
			case ipcerr.RateLimited:
				s.metrics.observeRateLimited()
			case ipcerr.InsufficientPerms:
				s.metrics.observeFirewallRejected()
			}
		}

		if err := fw.WriteResponse(resp); err != nil {
			s.log.Warn("write response failed", ipclog.Fields{"connection_id": connectionID, "error": err.Error()})
			return
		}
	}
}

// dispatch runs req through the middleware chain, bounded by
// Options.RequestTimeout when one is configured. On timeout the handler is
// abandoned - its eventual response goes nowhere - and an
// IPC_REQUEST_TIMEOUT response is synthesized in its place.
func (s *Server) dispatch(req *router.Request) *framer.ResponseFrame {
	if s.opts.RequestTimeout <= 0 {
		return s.pipeline.Handle(req)
	}

	ch := make(chan *framer.ResponseFrame, 1)
	go func() {
		ch <- s.pipeline.Handle(req)
	}()

	timer := time.NewTimer(s.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp
	case <-timer.C:
		s.log.Warn("request timed out", ipclog.Fields{
			"connection_id": req.ConnectionID, "method": req.Method, "path": req.Path,
		})
		return framer.NewError(ipcerr.New(ipcerr.RequestTimeout, ""), req.RequestID, s.opts.Debug)
	}
}

// writeShutdownResponse makes the best-effort SERVICE_UNAVAILABLE write a
// draining connection owes its peer before closing.
func (s *Server) writeShutdownResponse(fw *framer.FrameWriter) {
	_ = fw.WriteResponse(framer.NewError(
		ipcerr.New(ipcerr.ServiceUnavailable, "server shutting down"), "", false))
}
