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

package ipcperm_test

import (
	"testing"

	"github.com/linch-mind/daemon/internal/ipcperm"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ipcperm.Perm
	}{
		{"0600", 0600},
		{"600", 0600},
		{"0700", 0700},
	}

	for _, tc := range tests {
		got, err := ipcperm.Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %o, want %o", tc.in, got, tc.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := ipcperm.Parse(""); err == nil {
		t.Error("expected error for empty permission string")
	}
	if _, err := ipcperm.Parse("999"); err == nil {
		t.Error("expected error for non-octal digits")
	}
}

func TestString(t *testing.T) {
	if got := ipcperm.SocketFile.String(); got != "0600" {
		t.Errorf("SocketFile.String() = %q, want 0600", got)
	}
}

func TestUnmarshalJSON_Number(t *testing.T) {
	var p ipcperm.Perm
	if err := p.UnmarshalJSON([]byte("600")); err != nil {
		t.Fatalf("UnmarshalJSON error: %v", err)
	}
	if p != 0600 {
		t.Errorf("p = %o, want 0600", p)
	}
}

func TestUnmarshalJSON_String(t *testing.T) {
	var p ipcperm.Perm
	if err := p.UnmarshalJSON([]byte(`"0660"`)); err != nil {
		t.Fatalf("UnmarshalJSON error: %v", err)
	}
	if p != 0660 {
		t.Errorf("p = %o, want 0660", p)
	}
}
