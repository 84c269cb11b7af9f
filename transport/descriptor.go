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

package transport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DescriptorFileName is the well-known file clients read to discover how
// to connect.
const DescriptorFileName = "daemon.socket"

// LegacyMarkerFileName is the companion file written for older clients
// that only understand the "0:<pid>" IPC-mode marker.
const LegacyMarkerFileName = "daemon.port"

// WriteDescriptor writes the endpoint descriptor and its legacy marker
// under dir, both owner-only. It is the last step of server startup and
// doubles as the readiness signal for clients.
func WriteDescriptor(dir string, d Descriptor) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("transport: create app data dir: %w", err)
	}

	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("transport: marshal descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorFileName), body, 0600); err != nil {
		return fmt.Errorf("transport: write descriptor: %w", err)
	}

	marker := []byte(fmt.Sprintf("0:%d", d.PID))
	if err := os.WriteFile(filepath.Join(dir, LegacyMarkerFileName), marker, 0600); err != nil {
		return fmt.Errorf("transport: write legacy marker: %w", err)
	}
	return nil
}

// ReadDescriptor reads back the descriptor written by WriteDescriptor,
// the counterpart a client CLI uses to discover a running daemon's
// endpoint without already knowing its socket path.
func ReadDescriptor(dir string) (Descriptor, error) {
	var d Descriptor
	body, err := os.ReadFile(filepath.Join(dir, DescriptorFileName))
	if err != nil {
		return d, fmt.Errorf("transport: read descriptor: %w", err)
	}
	if err := json.Unmarshal(body, &d); err != nil {
		return d, fmt.Errorf("transport: unmarshal descriptor: %w", err)
	}
	return d, nil
}

// RemoveDescriptor removes the descriptor and legacy marker files under
// dir. Missing files are not an error: shutdown must be idempotent.
func RemoveDescriptor(dir string) error {
	p1 := filepath.Join(dir, DescriptorFileName)
	p2 := filepath.Join(dir, LegacyMarkerFileName)
	if err := os.Remove(p1); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("transport: remove descriptor: %w", err)
	}
	if err := os.Remove(p2); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("transport: remove legacy marker: %w", err)
	}
	return nil
}
