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

// Package ipcctx provides a generic, concurrency-safe key/value registry
// bound to a context.Context, used both for the live-connection table and
// for the per-PID rate-limit bucket table: both need atomic Load/Store and
// a bulk-walk for pruning, and neither wants a bespoke sync.Map wrapper of
// its own.
package ipcctx

import "context"

// FuncWalk is called for each (key, value) pair during Walk. Returning
// false stops iteration early.
type FuncWalk[T comparable] func(key T, val any) bool

// Registry is a concurrency-safe map bound to a parent context: once the
// context is done, Store and LoadOrStore no longer add entries and each
// call to either of them empties the map.
type Registry[T comparable] interface {
	context.Context

	// Load returns the value stored for key, if any.
	Load(key T) (val any, ok bool)
	// Store sets key to val. A nil val deletes the key.
	Store(key T, val any)
	// LoadOrStore returns the existing value for key if present, otherwise
	// stores and returns val. loaded is true if the value was already there.
	LoadOrStore(key T, val any) (actual any, loaded bool)
	// Delete removes key.
	Delete(key T)
	// LoadAndDelete atomically removes and returns a key's value.
	LoadAndDelete(key T) (val any, loaded bool)
	// Len returns the number of entries currently stored.
	Len() int
	// Walk calls fct for every entry; stops early if fct returns false.
	Walk(fct FuncWalk[T])
	// Clean removes every entry.
	Clean()
}

// New returns a Registry bound to parent: when parent is canceled, Store
// becomes a no-op and the registry is cleared.
func New[T comparable](parent context.Context) Registry[T] {
	if parent == nil {
		parent = context.Background()
	}
	return &registry[T]{Context: parent}
}
