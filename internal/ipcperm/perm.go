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

// Package ipcperm wraps a Unix file-mode bitmask: sockets owner-only
// (0600), parent directory 0700. A dedicated type keeps octal literals
// out of the transport code and gives config loading a single parse
// point.
package ipcperm

import (
	"fmt"
	"strconv"
)

// Perm is a POSIX permission bitmask, e.g. 0600.
type Perm uint32

// Default permissions for the endpoint socket and its directory.
const (
	SocketFile Perm = 0600
	SocketDir  Perm = 0700
)

// Parse accepts an octal string ("0600", "600") and returns the Perm it
// encodes.
func Parse(s string) (Perm, error) {
	if s == "" {
		return 0, fmt.Errorf("ipcperm: empty permission string")
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("ipcperm: invalid octal permission %q: %w", s, err)
	}
	return Perm(v), nil
}

func (p Perm) String() string {
	return fmt.Sprintf("%04o", uint32(p))
}

// UnmarshalJSON accepts both a JSON number (0600 parsed as decimal 600,
// matching the wire convention used by the config surface: operators write
// the octal digits as if typing `chmod`) and a quoted octal string.
func (p *Perm) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		v, err := Parse(s[1 : len(s)-1])
		if err != nil {
			return err
		}
		*p = v
		return nil
	}

	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("ipcperm: invalid permission literal %q: %w", s, err)
	}
	*p = FromDigits(v)
	return nil
}

// FromDigits reinterprets a base-10 literal whose digits were intended as
// octal (e.g. the number 600 typed into a config file as if to `chmod`) as
// the mode it represents.
func FromDigits(v uint64) Perm {
	var mode uint32
	shift := uint(0)
	for v > 0 {
		mode |= uint32(v%10) << shift
		v /= 10
		shift += 3
	}
	return Perm(mode)
}

func (p Perm) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", p.String())), nil
}
