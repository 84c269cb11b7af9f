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

package config

import (
	"github.com/linch-mind/daemon/internal/ipcdur"
	"github.com/linch-mind/daemon/ipcserver"
	"github.com/linch-mind/daemon/security"
	"github.com/linch-mind/daemon/transport"
)

// ServerOptions translates the loaded Options into the ipcserver.Options
// the daemon's top-level component is built from, so cmd/linch-mind-daemon
// never has to know the individual packages' field shapes.
func (o Options) ServerOptions() ipcserver.Options {
	appDataDir := o.AppDataDir
	if appDataDir == "" {
		appDataDir = DefaultAppDataDir()
	}
	return ipcserver.Options{
		Endpoint: transport.Options{
			SocketPath:     o.SocketPath,
			PipeName:       o.PipeName,
			PipePoolSize:   o.PipePoolSize,
			SocketFileMode: uint32(o.SocketFileMode),
			SocketDirMode:  uint32(o.SocketDirMode),
		},
		AppDataDir:      appDataDir,
		MaxConnections:  o.MaxConnections,
		MaxPayloadBytes: o.MaxPayloadBytes,
		IdleTimeout:     o.ConnectionTimeout.Std(),
		RequestTimeout:  ipcdur.FromMillis(o.RequestTimeoutMS).Std(),
		ShutdownGrace:   o.ShutdownGrace.Std(),
		Debug:           o.Debug,

		RequireAuthentication: o.RequireAuthentication,
		RateLimit: security.RateLimitConfig{
			MaxBurst:         o.RateLimitMaxBurst,
			BurstWindow:      o.RateLimitBurstWindow.Std(),
			MaxPerMinute:     o.RateLimitMaxPerMinute,
			ExemptMultiplier: o.RateLimitExemptMultiplier,
			ExemptPrefixes:   o.RateLimitExemptPrefixes,
		},
		Firewall: security.FirewallConfig{
			BlockedPaths:   o.FirewallBlockedPaths,
			SensitivePaths: o.FirewallSensitivePaths,
			DevMode:        o.FirewallDevMode,
		},
	}
}
