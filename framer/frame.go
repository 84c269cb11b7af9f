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

// Package framer converts a raw byte stream into discrete, length-prefixed
// JSON request/response frames. It knows nothing about sockets, pipes,
// authentication or routing - it only ever sees an io.Reader/io.Writer pair.
package framer

import (
	"time"

	"github.com/google/uuid"

	"github.com/linch-mind/daemon/internal/ipcerr"
)

// DefaultMaxPayloadBytes is the framer maximum enforced when no
// configuration overrides it.
const DefaultMaxPayloadBytes = 1 << 20 // 1 MiB

// lengthPrefixSize is the width, in bytes, of the big-endian frame length
// prefix that precedes every JSON payload.
const lengthPrefixSize = 4

// RequestFrame is one decoded inbound message. It is immutable once
// returned by ReadRequest; PathParams is populated later by the router and
// is never present on the wire.
type RequestFrame struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	Data        any               `json:"data,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]any    `json:"query_params,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`

	PathParams map[string]string `json:"-"`
}

// ResponseError is the wire shape of a failed response.
type ResponseError struct {
	Code    ipcerr.CodeError `json:"code"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

// ResponseMeta accompanies every response, echoing the request_id the
// client supplied (or a freshly generated one when it supplied none).
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// ResponseFrame is the single well-formed frame written back for every
// request, success or failure.
type ResponseFrame struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    *ResponseError `json:"error,omitempty"`
	Metadata ResponseMeta   `json:"metadata"`
}

// NewMeta stamps a response's metadata, echoing requestID when the request
// carried one and minting a fresh opaque id otherwise.
func NewMeta(requestID string) ResponseMeta {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return ResponseMeta{
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewSuccess builds a successful ResponseFrame carrying data.
func NewSuccess(data any, requestID string) *ResponseFrame {
	return &ResponseFrame{
		Success:  true,
		Data:     data,
		Metadata: NewMeta(requestID),
	}
}

// NewError builds a failed ResponseFrame from an ipcerr.Error. details is
// only attached when debug is true, matching the error-translator's
// production/debug distinction.
func NewError(err ipcerr.Error, requestID string, debug bool) *ResponseFrame {
	re := &ResponseError{
		Code:    err.Code(),
		Message: err.Error(),
	}
	if debug {
		re.Details = err.Details()
	}
	return &ResponseFrame{
		Success:  false,
		Error:    re,
		Metadata: NewMeta(requestID),
	}
}
