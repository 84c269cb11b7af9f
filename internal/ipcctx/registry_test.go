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

package ipcctx_test

import (
	"context"
	"testing"
	"time"

	"github.com/linch-mind/daemon/internal/ipcctx"
)

func TestStoreLoadDelete(t *testing.T) {
	r := ipcctx.New[string](context.Background())

	r.Store("conn-1", 42)
	v, ok := r.Load("conn-1")
	if !ok || v.(int) != 42 {
		t.Fatalf("Load() = %v, %v; want 42, true", v, ok)
	}

	r.Delete("conn-1")
	if _, ok = r.Load("conn-1"); ok {
		t.Fatal("expected key to be gone after Delete")
	}
}

func TestLoadOrStore(t *testing.T) {
	r := ipcctx.New[int32](context.Background())

	v, loaded := r.LoadOrStore(7, "first")
	if loaded || v.(string) != "first" {
		t.Fatalf("LoadOrStore() = %v, %v; want first, false", v, loaded)
	}

	v, loaded = r.LoadOrStore(7, "second")
	if !loaded || v.(string) != "first" {
		t.Fatalf("LoadOrStore() = %v, %v; want existing first, true", v, loaded)
	}
}

func TestStoreNilDeletes(t *testing.T) {
	r := ipcctx.New[string](context.Background())
	r.Store("k", 1)
	r.Store("k", nil)

	if _, ok := r.Load("k"); ok {
		t.Fatal("storing nil should delete the key")
	}
}

func TestWalkStopsEarly(t *testing.T) {
	r := ipcctx.New[int](context.Background())
	for i := 0; i < 5; i++ {
		r.Store(i, i)
	}

	seen := 0
	r.Walk(func(_ int, _ any) bool {
		seen++
		return seen < 2
	})

	if seen != 2 {
		t.Fatalf("Walk should have stopped after 2 callbacks, saw %d", seen)
	}
}

func TestStoreNoopAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := ipcctx.New[string](ctx)
	r.Store("a", 1)
	cancel()

	// give the cancellation time to be observed by Err()
	time.Sleep(time.Millisecond)
	r.Store("b", 2)

	if r.Len() != 0 {
		t.Fatalf("registry should have been cleaned on cancellation, Len()=%d", r.Len())
	}
}

func TestLoadAndDelete(t *testing.T) {
	r := ipcctx.New[string](context.Background())
	r.Store("x", "y")

	v, loaded := r.LoadAndDelete("x")
	if !loaded || v.(string) != "y" {
		t.Fatalf("LoadAndDelete() = %v, %v; want y, true", v, loaded)
	}
	if _, ok := r.Load("x"); ok {
		t.Fatal("key should be gone after LoadAndDelete")
	}
}
