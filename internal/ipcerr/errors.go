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

import "fmt"

type ers struct {
	code CodeError
	msg  string
	det  map[string]any
	par  []error
}

// New creates an Error with the given code and message.
func New(code CodeError, message string, parent ...error) Error {
	if message == "" {
		message = defaultMessage(code)
	}
	return &ers{
		code: code,
		msg:  message,
		par:  append([]error{}, parent...),
	}
}

// Newf creates an Error with a formatted message.
func Newf(code CodeError, pattern string, args ...any) Error {
	return New(code, fmt.Sprintf(pattern, args...))
}

// Wrap attaches a taxonomy code to an arbitrary error, preserving it as a
// parent so Unwrap / errors.Is keeps working against the original cause.
func Wrap(code CodeError, cause error) Error {
	if cause == nil {
		return nil
	}
	if e := Get(cause); e != nil {
		return e
	}
	return New(code, cause.Error(), cause)
}

func (e *ers) Error() string {
	return e.msg
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) IsCode(c CodeError) bool {
	return e.code == c
}

func (e *ers) HasCode(c CodeError) bool {
	if e.code == c {
		return true
	}
	for _, p := range e.par {
		if HasCode(p, c) {
			return true
		}
	}
	return false
}

func (e *ers) Details() map[string]any {
	return e.det
}

func (e *ers) WithDetails(details map[string]any) Error {
	return &ers{
		code: e.code,
		msg:  e.msg,
		det:  details,
		par:  e.par,
	}
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.par = append(e.par, p)
		}
	}
}

func (e *ers) GetParent(withSelf bool) []error {
	out := make([]error, 0, len(e.par)+1)
	if withSelf {
		out = append(out, e)
	}
	return append(out, e.par...)
}

func (e *ers) Unwrap() []error {
	return e.par
}
