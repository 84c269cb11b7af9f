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

package ipclog

// Logger is the structured-logging surface every layer of the daemon logs
// through. It is intentionally narrow (no io.WriteCloser, no per-backend
// option structs) since this daemon only ever writes to one place at a
// time.
type Logger interface {
	// SetLevel changes the minimum level that will be emitted.
	SetLevel(lvl Level)
	// GetLevel returns the current minimum level.
	GetLevel() Level

	// WithFields returns a child Logger that always includes fields, in
	// addition to (and overriding, on key collision) this logger's own.
	WithFields(fields Fields) Logger

	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
}

// mergeFields flattens the variadic Fields slice most call sites pass, so
// Debug("msg") and Debug("msg", Fields{...}) both work without an overload.
func mergeFields(fields []Fields) Fields {
	if len(fields) == 0 {
		return nil
	}
	out := fields[0].Clone()
	for _, f := range fields[1:] {
		out = out.Merge(f)
	}
	return out
}
