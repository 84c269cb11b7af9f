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

// Package version carries the build-time and protocol identity the daemon
// reports through `/health` and `/server/info`, and through `--version` on
// the CLI: package-level build variables, Get assembling them into an
// Info, and a one-line header.
package version

import (
	"fmt"
	"runtime"
)

// ProtocolVersion is the wire-protocol version reported by /health and
// /server/info. It changes only when the framed request/response envelope
// or the handshake contract changes in an incompatible way.
const ProtocolVersion = "2.0"

// ServiceName identifies this daemon in health/info responses and log
// entries.
const ServiceName = "linch-mind-daemon"

// Build-time values, overridden via -ldflags "-X" at release build time.
// Left at their zero values they describe a development build.
var (
	Release = "dev"
	Build   = "unknown"
	Date    = "unknown"
)

// Info is the immutable snapshot returned by Get.
type Info struct {
	Service         string `json:"service"`
	Release         string `json:"release"`
	Build           string `json:"build"`
	Date            string `json:"date"`
	ProtocolVersion string `json:"protocol_version"`
	Platform        string `json:"platform"`
	Architecture    string `json:"architecture"`
	GoVersion       string `json:"go_version"`
}

// Get returns the current build/protocol identity.
func Get() Info {
	return Info{
		Service:         ServiceName,
		Release:         Release,
		Build:           Build,
		Date:            Date,
		ProtocolVersion: ProtocolVersion,
		Platform:        runtime.GOOS,
		Architecture:    runtime.GOARCH,
		GoVersion:       runtime.Version(),
	}
}

// String renders a one-line header suitable for `--version` output and
// startup log lines.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (build %s, %s) protocol/%s %s/%s %s",
		i.Service, i.Release, i.Build, i.Date, i.ProtocolVersion,
		i.Platform, i.Architecture, i.GoVersion)
}
