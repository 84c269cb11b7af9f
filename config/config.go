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

// Package config is the daemon's own configuration surface: a
// spf13/viper-backed loader with environment (LINCH_MIND_* prefix) >
// config file > defaults precedence (no command-line flag is bound into
// it), fsnotify-driven hot reload, and
// before/after lifecycle hooks around Start/Reload/Stop.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/linch-mind/daemon/internal/ipcdur"
	"github.com/linch-mind/daemon/internal/ipclog"
	"github.com/linch-mind/daemon/internal/ipcperm"
)

// FuncEvent is a lifecycle hook. Returning an error from a Before hook
// aborts the lifecycle step it guards; After hooks are best-effort and
// only logged on error.
type FuncEvent func() error

// Config owns the loaded Options and the lifecycle hooks around
// Start/Reload/Stop.
type Config interface {
	// Values returns a snapshot of the currently loaded Options.
	Values() Options

	// Start reads the config file (if any) and begins watching it for
	// changes, invoking Reload on every change.
	Start() error
	// Reload re-reads the config source and applies every option except
	// those that require a restart; a rejected change is logged,
	// not silently ignored.
	Reload() error
	// Stop runs the stop_before and stop_after hooks. It does not end the
	// file watch begun by Start.
	Stop() error

	RegisterFuncStartBefore(fct FuncEvent)
	RegisterFuncStartAfter(fct FuncEvent)
	RegisterFuncReloadBefore(fct FuncEvent)
	RegisterFuncReloadAfter(fct FuncEvent)
	RegisterFuncStopBefore(fct FuncEvent)
	RegisterFuncStopAfter(fct FuncEvent)
}

type configModel struct {
	mu     sync.RWMutex
	v      *viper.Viper
	log    ipclog.Logger
	values Options

	startBefore, startAfter   []FuncEvent
	reloadBefore, reloadAfter []FuncEvent
	stopBefore, stopAfter     []FuncEvent
}

// New builds a Config reading from configPath if non-empty, otherwise
// searching the platform's standard config directories for
// "daemon.{yaml,yml,json}" under "linch-mind/".
func New(log ipclog.Logger, configPath string) Config {
	v := viper.New()
	v.SetEnvPrefix("LINCH_MIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("daemon")
		v.SetConfigType("yaml")
		for _, dir := range configSearchDirs() {
			v.AddConfigPath(dir)
		}
	}

	return &configModel{v: v, log: log, values: Defaults()}
}

func (c *configModel) Values() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values
}

func (c *configModel) runHooks(hooks []FuncEvent, stage string) error {
	for _, fct := range hooks {
		if fct == nil {
			continue
		}
		if err := fct(); err != nil {
			if c.log != nil {
				c.log.Error("config hook failed", ipclog.Fields{"stage": stage, "error": err.Error()})
			}
			return fmt.Errorf("config: %s hook: %w", stage, err)
		}
	}
	return nil
}

func (c *configModel) Start() error {
	if err := c.runHooks(c.startBefore, "start_before"); err != nil {
		return err
	}

	if err := c.load(); err != nil {
		return err
	}

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		if err := c.Reload(); err != nil && c.log != nil {
			c.log.Error("config reload failed", ipclog.Fields{"error": err.Error()})
		}
	})
	c.v.WatchConfig()

	return c.runHooks(c.startAfter, "start_after")
}

// decodeHook teaches mapstructure the two config-surface value types viper
// cannot decode on its own: ipcdur.Duration (a bare number is a count of
// seconds, a string is a Go duration like "30s") and ipcperm.Perm (a bare
// number is chmod-style octal digits, a string is parsed as octal).
func decodeHook() viper.DecoderConfigOption {
	durType := reflect.TypeOf(ipcdur.Duration(0))
	permType := reflect.TypeOf(ipcperm.Perm(0))

	hook := func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		switch to {
		case durType:
			switch v := data.(type) {
			case string:
				// Environment variables arrive as strings: a bare integer
				// is a count of seconds, anything else a Go duration.
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					return ipcdur.FromSeconds(n), nil
				}
				parsed, err := time.ParseDuration(v)
				if err != nil {
					return nil, fmt.Errorf("config: invalid duration %q: %w", v, err)
				}
				return ipcdur.Duration(parsed), nil
			case int:
				return ipcdur.FromSeconds(int64(v)), nil
			case int64:
				return ipcdur.FromSeconds(v), nil
			case float64:
				return ipcdur.Duration(time.Duration(v * float64(time.Second))), nil
			}
		case permType:
			switch v := data.(type) {
			case string:
				return ipcperm.Parse(v)
			case int:
				return ipcperm.FromDigits(uint64(v)), nil
			case int64:
				return ipcperm.FromDigits(uint64(v)), nil
			case float64:
				return ipcperm.FromDigits(uint64(v)), nil
			}
		}
		return data, nil
	}

	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		hook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

func (c *configModel) load() error {
	if err := c.v.ReadInConfig(); err != nil {
		// A missing file, whether searched for or named explicitly, leaves
		// the environment and defaults in force.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: read: %w", err)
		}
	}

	var next Options
	if err := c.v.Unmarshal(&next, decodeHook()); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}

	c.mu.Lock()
	c.values = next
	c.mu.Unlock()
	return nil
}

// Reload re-reads the config source, keeping the prior value of every
// restart-required key and logging a warning for each one that the
// new source tried to change.
func (c *configModel) Reload() error {
	if err := c.runHooks(c.reloadBefore, "reload_before"); err != nil {
		return err
	}

	c.mu.RLock()
	previous := c.values
	c.mu.RUnlock()

	if err := c.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("config: reload read: %w", err)
		}
	}

	var next Options
	if err := c.v.Unmarshal(&next, decodeHook()); err != nil {
		return fmt.Errorf("config: reload unmarshal: %w", err)
	}

	merged, changed := mergeRestartRequired(previous, next)
	for _, key := range changed {
		if c.log != nil {
			c.log.Warn("config option requires a restart, ignoring live change", ipclog.Fields{"key": key})
		}
	}

	c.mu.Lock()
	c.values = merged
	c.mu.Unlock()

	return c.runHooks(c.reloadAfter, "reload_after")
}

func (c *configModel) Stop() error {
	if err := c.runHooks(c.stopBefore, "stop_before"); err != nil {
		return err
	}
	return c.runHooks(c.stopAfter, "stop_after")
}

func (c *configModel) RegisterFuncStartBefore(fct FuncEvent)   { c.startBefore = append(c.startBefore, fct) }
func (c *configModel) RegisterFuncStartAfter(fct FuncEvent)    { c.startAfter = append(c.startAfter, fct) }
func (c *configModel) RegisterFuncReloadBefore(fct FuncEvent)  { c.reloadBefore = append(c.reloadBefore, fct) }
func (c *configModel) RegisterFuncReloadAfter(fct FuncEvent)   { c.reloadAfter = append(c.reloadAfter, fct) }
func (c *configModel) RegisterFuncStopBefore(fct FuncEvent)    { c.stopBefore = append(c.stopBefore, fct) }
func (c *configModel) RegisterFuncStopAfter(fct FuncEvent)     { c.stopAfter = append(c.stopAfter, fct) }
