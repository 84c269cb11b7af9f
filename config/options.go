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
	"runtime"

	"github.com/linch-mind/daemon/internal/ipcdur"
	"github.com/linch-mind/daemon/internal/ipcperm"
)

// Options is the daemon's recognized configuration surface. Fields
// are tagged for mapstructure so viper.Unmarshal can decode them directly
// from flags, environment and config file alike.
type Options struct {
	SocketPath     string      `mapstructure:"socket_path"`
	PipeName       string      `mapstructure:"pipe_name"`
	PipePoolSize   int         `mapstructure:"pipe_pool_size"`
	SocketFileMode ipcperm.Perm `mapstructure:"socket_file_mode"`
	SocketDirMode  ipcperm.Perm `mapstructure:"socket_dir_mode"`
	AppDataDir     string      `mapstructure:"app_data_dir"`

	MaxConnections    int             `mapstructure:"max_connections"`
	MaxPayloadBytes   uint32          `mapstructure:"max_payload_bytes"`
	ConnectionTimeout ipcdur.Duration `mapstructure:"connection_timeout_seconds"`
	RequestTimeoutMS  int64           `mapstructure:"request_timeout_ms"`
	ShutdownGrace     ipcdur.Duration `mapstructure:"shutdown_grace_seconds"`

	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`

	RequireAuthentication bool `mapstructure:"require_authentication"`

	RateLimitMaxBurst         int             `mapstructure:"rate_limit_max_burst"`
	RateLimitBurstWindow      ipcdur.Duration `mapstructure:"rate_limit_burst_window_seconds"`
	RateLimitMaxPerMinute     int             `mapstructure:"rate_limit_max_per_minute"`
	RateLimitExemptMultiplier int             `mapstructure:"rate_limit_exempt_multiplier"`
	RateLimitExemptPrefixes   []string        `mapstructure:"rate_limit_exempt_prefixes"`

	FirewallBlockedPaths   []string `mapstructure:"firewall_blocked_paths"`
	FirewallSensitivePaths []string `mapstructure:"firewall_sensitive_paths"`
	FirewallDevMode        bool     `mapstructure:"firewall_dev_mode"`
}

// restartRequiredKeys names the mapstructure keys that identify the socket
// or pipe itself; these cannot change under a live endpoint, so Reload
// refuses to apply them.
var restartRequiredKeys = map[string]bool{
	"socket_path":      true,
	"pipe_name":        true,
	"pipe_pool_size":   true,
	"socket_file_mode": true,
	"socket_dir_mode":  true,
	"app_data_dir":     true,
}

// Defaults returns the shipped configuration defaults, matching the
// transport and security packages' own zero-value fallbacks so a daemon run
// with no config file behaves identically to one with every default
// spelled out explicitly.
func Defaults() Options {
	return Options{
		PipePoolSize:      10,
		SocketFileMode:    ipcperm.SocketFile,
		SocketDirMode:     ipcperm.SocketDir,
		MaxConnections:    100,
		MaxPayloadBytes:   1 << 20,
		ConnectionTimeout: ipcdur.FromSeconds(30),
		RequestTimeoutMS:  defaultRequestTimeoutMS(),
		ShutdownGrace:     ipcdur.FromSeconds(5),

		LogLevel: "info",

		RequireAuthentication: true,

		RateLimitMaxBurst:         500,
		RateLimitBurstWindow:      ipcdur.FromSeconds(10),
		RateLimitMaxPerMinute:     2000,
		RateLimitExemptMultiplier: 3,
		RateLimitExemptPrefixes:   []string{"/config/", "/connectors/"},
	}
}

// defaultRequestTimeoutMS bounds per-request dispatch only on the named
// pipe platform, where forced cancellation is the only way to recycle a
// wedged instance; elsewhere handlers stay unbounded by default.
func defaultRequestTimeoutMS() int64 {
	if runtime.GOOS == "windows" {
		return 3000
	}
	return 0
}

func setDefaults(v settable) {
	d := Defaults()
	v.SetDefault("pipe_pool_size", d.PipePoolSize)
	v.SetDefault("socket_file_mode", d.SocketFileMode.String())
	v.SetDefault("socket_dir_mode", d.SocketDirMode.String())
	v.SetDefault("max_connections", d.MaxConnections)
	v.SetDefault("max_payload_bytes", d.MaxPayloadBytes)
	v.SetDefault("connection_timeout_seconds", int64(d.ConnectionTimeout.Std().Seconds()))
	v.SetDefault("request_timeout_ms", d.RequestTimeoutMS)
	v.SetDefault("shutdown_grace_seconds", int64(d.ShutdownGrace.Std().Seconds()))
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("require_authentication", d.RequireAuthentication)
	v.SetDefault("rate_limit_max_burst", d.RateLimitMaxBurst)
	v.SetDefault("rate_limit_burst_window_seconds", int64(d.RateLimitBurstWindow.Std().Seconds()))
	v.SetDefault("rate_limit_max_per_minute", d.RateLimitMaxPerMinute)
	v.SetDefault("rate_limit_exempt_multiplier", d.RateLimitExemptMultiplier)
	v.SetDefault("rate_limit_exempt_prefixes", d.RateLimitExemptPrefixes)
}

// settable is the narrow slice of *viper.Viper that setDefaults needs,
// kept separate so it can be exercised with a fake in tests without
// dragging viper's full surface along.
type settable interface {
	SetDefault(key string, value any)
}
