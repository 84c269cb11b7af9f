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

package framer

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/linch-mind/daemon/internal/ipcerr"
)

// ErrPeerClosed means the stream ended cleanly between frames: zero bytes
// were read before EOF. Callers must close the connection without writing
// a response.
var ErrPeerClosed = io.EOF

// ErrIncompleteFrame means the stream ended in the middle of a frame (the
// length prefix or payload was cut short). Callers must close the
// connection silently, without writing a response.
var ErrIncompleteFrame = errors.New("framer: incomplete frame")

// ReadRequest reads exactly one frame from r. maxPayloadBytes of 0 selects
// DefaultMaxPayloadBytes.
//
// Three distinct failure shapes are returned, and callers must handle them
// differently:
//   - ErrPeerClosed / ErrIncompleteFrame: close the connection, write nothing.
//   - an *ipcerr.Error with code IPC_INVALID_REQUEST: write exactly one
//     error response, then close the connection.
//   - any other error: treat as a transport failure, close the connection.
func ReadRequest(r io.Reader, maxPayloadBytes uint32) (*RequestFrame, error) {
	if maxPayloadBytes == 0 {
		maxPayloadBytes = DefaultMaxPayloadBytes
	}

	var lenBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrPeerClosed
		}
		return nil, ErrIncompleteFrame
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, ipcerr.New(ipcerr.InvalidRequest, "zero-length frame")
	}
	if length > maxPayloadBytes {
		return nil, ipcerr.New(ipcerr.InvalidRequest, "payload exceeds maximum size").
			WithDetails(map[string]any{"length": length, "max": maxPayloadBytes})
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, ErrIncompleteFrame
	}

	var req RequestFrame
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, ipcerr.New(ipcerr.InvalidRequest, fmt.Sprintf("malformed JSON payload: %v", err))
	}

	return &req, nil
}

// FrameWriter serializes ResponseFrame writes onto a single io.Writer. Its
// mutex exists only to protect the rare case of a shutdown-initiated write
// racing the connection's own handler loop; under normal operation a
// connection has exactly one writer goroutine.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter wraps w for serialized, length-prefixed response writes.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteResponse serializes resp to JSON, prefixes it with its big-endian
// length, and writes the prefix and then the payload while holding the
// writer's lock, so two responses never interleave.
func (fw *FrameWriter) WriteResponse(resp *ResponseFrame) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("framer: marshal response: %w", err)
	}

	var lenBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fw.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = fw.w.Write(payload)
	return err
}
