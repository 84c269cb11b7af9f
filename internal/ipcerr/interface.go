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

package ipcerr

import "errors"

// Error extends the standard error with a wire-stable code, optional
// structured details and a parent chain, so a handler deep in the call
// stack can raise IPC-specific context that the error-translator middleware
// turns into a well-formed response frame without re-classifying anything.
type Error interface {
	error

	// Code returns the taxonomy code of this error.
	Code() CodeError
	// IsCode reports whether this error's own code equals c.
	IsCode(c CodeError) bool
	// HasCode reports whether this error or any parent has code c.
	HasCode(c CodeError) bool

	// Details returns the structured detail payload attached to this error,
	// or nil if none was set. It is marshaled verbatim into the response
	// frame's error.details field.
	Details() map[string]any
	// WithDetails returns a copy of the error carrying the given details.
	WithDetails(details map[string]any) Error

	// Add appends parent errors to this error's chain.
	Add(parent ...error)
	// GetParent returns the parent chain, optionally including this error
	// itself as the first element.
	GetParent(withSelf bool) []error

	// Unwrap exposes the parent chain for errors.Is / errors.As.
	Unwrap() []error
}

// Is reports whether e is (or wraps) an ipcerr.Error.
func Is(e error) bool {
	var target Error
	return errors.As(e, &target)
}

// Get returns e as an Error if it is one, nil otherwise.
func Get(e error) Error {
	var target Error
	if errors.As(e, &target) {
		return target
	}
	return nil
}

// HasCode reports whether e (or a parent, if e is an Error) carries code c.
func HasCode(e error, c CodeError) bool {
	if err := Get(e); err != nil {
		return err.HasCode(c)
	}
	return false
}
