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
	"sync"
	"time"

	"github.com/linch-mind/daemon/internal/ipcctx"
)

// RateLimitConfig carries the tunable rate-limit thresholds. Every field
// is configurable; the shipped defaults are deliberately permissive for a
// single-user local daemon.
type RateLimitConfig struct {
	// MaxBurst is the cap within BurstWindow (default 500 within 10s).
	MaxBurst int
	// BurstWindow is the rolling burst window (default 10s).
	BurstWindow time.Duration
	// MaxPerMinute is the cap within any trailing 60s window (default 2000).
	MaxPerMinute int
	// ExemptMultiplier scales both caps for paths under ExemptPrefixes
	// (default x3).
	ExemptMultiplier int
	// ExemptPrefixes receives the multiplier; defaults include
	// configuration and lifecycle routes.
	ExemptPrefixes []string
}

// DefaultRateLimitConfig returns the shipped defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxBurst:         500,
		BurstWindow:      10 * time.Second,
		MaxPerMinute:     2000,
		ExemptMultiplier: 3,
		ExemptPrefixes:   []string{"/config/", "/connectors/"},
	}
}

func (c RateLimitConfig) isExempt(path string) bool {
	for _, prefix := range c.ExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// bucket is the per-PID rolling counter. Both the
// burst and minute windows are tracked as fixed-size per-second ring
// slots with a running total, so admission is an O(1) operation bounded
// by a small constant rotation, not a scan of a growing timestamp queue.
type bucket struct {
	mu sync.Mutex

	burstSlots   []int
	burstSec     []int64
	burstTotal   int
	burstWindow  int

	minuteSlots [60]int
	minuteSec   [60]int64
	minuteTotal int

	lastSeen time.Time
}

func newBucket(burstWindowSeconds int) *bucket {
	if burstWindowSeconds <= 0 {
		burstWindowSeconds = 10
	}
	return &bucket{
		burstSlots:  make([]int, burstWindowSeconds),
		burstSec:    make([]int64, burstWindowSeconds),
		burstWindow: burstWindowSeconds,
	}
}

// rotate clears any slot whose recorded second has aged out of its
// window, subtracting its count from the running total as it goes.
func (b *bucket) rotate(nowSec int64) {
	for i := range b.burstSlots {
		if nowSec-b.burstSec[i] >= int64(b.burstWindow) && b.burstSec[i] != nowSec {
			b.burstTotal -= b.burstSlots[i]
			b.burstSlots[i] = 0
			b.burstSec[i] = nowSec
		}
	}
	for i := range b.minuteSlots {
		if nowSec-b.minuteSec[i] >= 60 && b.minuteSec[i] != nowSec {
			b.minuteTotal -= b.minuteSlots[i]
			b.minuteSlots[i] = 0
			b.minuteSec[i] = nowSec
		}
	}
}

// admit reports whether a request is allowed and, if so, consumes a token
// from both windows. Tokens are consumed on successful admission only.
func (b *bucket) admit(now time.Time, burstCap, minuteCap int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	nowSec := now.Unix()
	b.rotate(nowSec)

	if b.burstTotal >= burstCap || b.minuteTotal >= minuteCap {
		return false
	}

	bi := int(nowSec) % b.burstWindow
	if b.burstSec[bi] != nowSec {
		b.burstTotal -= b.burstSlots[bi]
		b.burstSlots[bi] = 0
		b.burstSec[bi] = nowSec
	}
	b.burstSlots[bi]++
	b.burstTotal++

	mi := int(nowSec % 60)
	if b.minuteSec[mi] != nowSec {
		b.minuteTotal -= b.minuteSlots[mi]
		b.minuteSlots[mi] = 0
		b.minuteSec[mi] = nowSec
	}
	b.minuteSlots[mi]++
	b.minuteTotal++

	b.lastSeen = now
	return true
}

func (b *bucket) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastSeen)
}

// RateLimiter enforces per-PID burst and minute caps. It is keyed by PID
// rather than connection id so a misbehaving process cannot shard its
// load across reconnects.
type RateLimiter struct {
	cfg     RateLimitConfig
	buckets ipcctx.Registry[int32]
}

// NewRateLimiter builds a rate limiter, filling any unset threshold from
// DefaultRateLimitConfig so a partial operator override keeps the shipped
// defaults for everything it does not name.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	d := DefaultRateLimitConfig()
	if cfg.MaxBurst <= 0 {
		cfg.MaxBurst = d.MaxBurst
	}
	if cfg.BurstWindow <= 0 {
		cfg.BurstWindow = d.BurstWindow
	}
	if cfg.MaxPerMinute <= 0 {
		cfg.MaxPerMinute = d.MaxPerMinute
	}
	if cfg.ExemptMultiplier <= 0 {
		cfg.ExemptMultiplier = d.ExemptMultiplier
	}
	if cfg.ExemptPrefixes == nil {
		cfg.ExemptPrefixes = d.ExemptPrefixes
	}
	return &RateLimiter{
		cfg:     cfg,
		buckets: ipcctx.New[int32](nil),
	}
}

// Admit reports whether a request from pid to path is allowed under the
// current thresholds, consuming a token on success.
func (rl *RateLimiter) Admit(pid int32, path string) bool {
	burstCap, minuteCap := rl.cfg.MaxBurst, rl.cfg.MaxPerMinute
	if rl.cfg.isExempt(path) {
		burstCap *= rl.cfg.ExemptMultiplier
		minuteCap *= rl.cfg.ExemptMultiplier
	}

	val, _ := rl.buckets.LoadOrStore(pid, newBucket(int(rl.cfg.BurstWindow.Seconds())))
	b, _ := val.(*bucket)
	return b.admit(time.Now(), burstCap, minuteCap)
}

// Prune removes buckets idle beyond the longest configured window,
// keeping the per-PID table from growing unbounded across the lifetime of
// a long-running daemon.
func (rl *RateLimiter) Prune() {
	now := time.Now()
	longest := 60 * time.Second
	if rl.cfg.BurstWindow > longest {
		longest = rl.cfg.BurstWindow
	}
	rl.buckets.Walk(func(pid int32, val any) bool {
		if b, ok := val.(*bucket); ok && b.idleSince(now) > longest {
			rl.buckets.Delete(pid)
		}
		return true
	})
}
