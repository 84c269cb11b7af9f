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

package ipcctx

import (
	"context"
	"sync"
)

type registry[T comparable] struct {
	context.Context
	m sync.Map
}

func (r *registry[T]) Load(key T) (val any, ok bool) {
	return r.m.Load(key)
}

func (r *registry[T]) Store(key T, val any) {
	if r.Err() != nil {
		r.Clean()
		return
	}
	if val == nil {
		r.m.Delete(key)
		return
	}
	r.m.Store(key, val)
}

func (r *registry[T]) LoadOrStore(key T, val any) (actual any, loaded bool) {
	if r.Err() != nil {
		r.Clean()
		return val, false
	}
	return r.m.LoadOrStore(key, val)
}

func (r *registry[T]) Delete(key T) {
	r.m.Delete(key)
}

func (r *registry[T]) LoadAndDelete(key T) (val any, loaded bool) {
	return r.m.LoadAndDelete(key)
}

func (r *registry[T]) Len() int {
	n := 0
	r.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (r *registry[T]) Walk(fct FuncWalk[T]) {
	r.m.Range(func(key, val any) bool {
		k, ok := key.(T)
		if !ok {
			return true
		}
		return fct(k, val)
	})
}

func (r *registry[T]) Clean() {
	r.m.Range(func(key, _ any) bool {
		r.m.Delete(key)
		return true
	})
}
