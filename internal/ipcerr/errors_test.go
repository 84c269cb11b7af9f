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

package ipcerr_test

import (
	"errors"
	"testing"

	"github.com/linch-mind/daemon/internal/ipcerr"
)

func TestNew_DefaultMessage(t *testing.T) {
	e := ipcerr.New(ipcerr.ResourceNotFound, "")
	if e.Error() != "resource not found" {
		t.Errorf("Error() = %q, want %q", e.Error(), "resource not found")
	}
	if e.Code() != ipcerr.ResourceNotFound {
		t.Errorf("Code() = %v, want %v", e.Code(), ipcerr.ResourceNotFound)
	}
}

func TestIsCode_HasCode(t *testing.T) {
	root := ipcerr.New(ipcerr.InternalError, "db down")
	wrapped := ipcerr.New(ipcerr.ServiceUnavailable, "handler failed", root)

	if !wrapped.IsCode(ipcerr.ServiceUnavailable) {
		t.Error("IsCode should match the error's own code")
	}
	if wrapped.IsCode(ipcerr.InternalError) {
		t.Error("IsCode must not match a parent's code")
	}
	if !wrapped.HasCode(ipcerr.InternalError) {
		t.Error("HasCode should walk into parents")
	}
}

func TestWrap_Nil(t *testing.T) {
	if ipcerr.Wrap(ipcerr.InternalError, nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrap_PreservesExistingCode(t *testing.T) {
	orig := ipcerr.New(ipcerr.AuthFailed, "bad pid")
	wrapped := ipcerr.Wrap(ipcerr.InternalError, orig)

	if wrapped.Code() != ipcerr.AuthFailed {
		t.Errorf("Wrap should not reclassify an existing ipcerr.Error, got %v", wrapped.Code())
	}
}

func TestDetails_RoundTrip(t *testing.T) {
	e := ipcerr.New(ipcerr.ResourceNotFound, "no route")
	withDet := e.WithDetails(map[string]any{"method": "GET", "path": "/nope"})

	if withDet.Details()["path"] != "/nope" {
		t.Errorf("Details()[path] = %v, want /nope", withDet.Details()["path"])
	}
	if e.Details() != nil {
		t.Error("WithDetails must not mutate the receiver")
	}
}

func TestErrorsIs_Compatibility(t *testing.T) {
	cause := errors.New("socket closed")
	wrapped := ipcerr.Wrap(ipcerr.ConnectionFailed, cause)

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should see through the Unwrap chain to the cause")
	}
}

func TestGet_NonIpcError(t *testing.T) {
	if ipcerr.Get(errors.New("plain")) != nil {
		t.Error("Get on a plain error should return nil")
	}
}
