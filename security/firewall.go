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

package security

import (
	"strings"

	"github.com/linch-mind/daemon/internal/ipcerr"
)

// FirewallConfig carries the method allow-list and path deny lists
// checked before every dispatch.
type FirewallConfig struct {
	// AllowedMethods is the method allow-list. A nil/empty set selects
	// DefaultAllowedMethods.
	AllowedMethods map[string]bool
	// BlockedPaths are path prefixes rejected outright.
	BlockedPaths []string
	// SensitivePaths are path prefixes allowed only when DevMode is true.
	SensitivePaths []string
	// DevMode enables the explicit development flag that unlocks
	// SensitivePaths.
	DevMode bool
}

// DefaultAllowedMethods is the HTTP-shaped method allow-list.
var DefaultAllowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// DefaultFirewallConfig returns a permissive default: every standard
// method allowed, nothing blocked or sensitive.
func DefaultFirewallConfig() FirewallConfig {
	return FirewallConfig{AllowedMethods: DefaultAllowedMethods}
}

// Firewall enforces the method allow-list and path deny lists ahead of
// routing.
type Firewall struct {
	cfg FirewallConfig
}

// NewFirewall builds a Firewall from cfg, substituting
// DefaultAllowedMethods when cfg carries none.
func NewFirewall(cfg FirewallConfig) *Firewall {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = DefaultAllowedMethods
	}
	return &Firewall{cfg: cfg}
}

// Check rejects methods outside the allow-list, paths in the blocklist,
// and sensitive paths unless DevMode is set.
func (f *Firewall) Check(method, path string) ipcerr.Error {
	if !f.cfg.AllowedMethods[method] {
		return ipcerr.New(ipcerr.InsufficientPerms, "method not permitted").
			WithDetails(map[string]any{"method": method})
	}
	for _, blocked := range f.cfg.BlockedPaths {
		if strings.HasPrefix(path, blocked) {
			return ipcerr.New(ipcerr.InsufficientPerms, "path is blocked").
				WithDetails(map[string]any{"path": path})
		}
	}
	if !f.cfg.DevMode {
		for _, sensitive := range f.cfg.SensitivePaths {
			if strings.HasPrefix(path, sensitive) {
				return ipcerr.New(ipcerr.InsufficientPerms, "path requires development mode").
					WithDetails(map[string]any{"path": path})
			}
		}
	}
	return nil
}
