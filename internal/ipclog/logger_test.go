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

package ipclog_test

import (
	"testing"

	"github.com/linch-mind/daemon/internal/ipclog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]ipclog.Level{
		"debug":   ipclog.DebugLevel,
		"info":    ipclog.InfoLevel,
		"warn":    ipclog.WarnLevel,
		"warning": ipclog.WarnLevel,
		"error":   ipclog.ErrorLevel,
		"bogus":   ipclog.InfoLevel,
	}

	for in, want := range tests {
		if got := ipclog.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetGetLevel(t *testing.T) {
	l := ipclog.New(ipclog.InfoLevel)
	l.SetLevel(ipclog.DebugLevel)
	if l.GetLevel() != ipclog.DebugLevel {
		t.Errorf("GetLevel() = %v, want DebugLevel", l.GetLevel())
	}
}

func TestWithFieldsDoesNotPanic(t *testing.T) {
	l := ipclog.New(ipclog.DebugLevel)
	child := l.WithFields(ipclog.Fields{"connection_id": "c-1"})
	child.Info("handshake accepted", ipclog.Fields{"pid": 1234})
}

func TestFieldsMergeOverrides(t *testing.T) {
	base := ipclog.Fields{"a": 1, "b": 2}
	merged := base.Merge(ipclog.Fields{"b": 3, "c": 4})

	if merged["b"] != 3 || merged["a"] != 1 || merged["c"] != 4 {
		t.Errorf("Merge() = %v, want a=1 b=3 c=4", merged)
	}
	if base["b"] != 2 {
		t.Error("Merge must not mutate the receiver")
	}
}
