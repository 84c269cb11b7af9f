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
	"os"
	"path/filepath"
	"strings"
)

const (
	// ConfigDirEnv overrides the default config search directory entirely.
	ConfigDirEnv = "LINCH_MIND_CONFIG_DIR"
	// DataDirEnv overrides the application data directory the endpoint
	// descriptor files are written under.
	DataDirEnv = "LINCH_MIND_DATA_DIR"
	appDirName = "linch-mind"
)

// DefaultAppDataDir returns the user's application data directory for the
// daemon: the endpoint descriptor and legacy marker files live here. An
// env override wins; otherwise the platform's per-user config
// root (%AppData% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME or ~/.config elsewhere) with a temp-dir fallback for
// environments with no resolvable home.
func DefaultAppDataDir() string {
	if override := strings.TrimSpace(os.Getenv(DataDirEnv)); override != "" {
		return override
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName)
}

// configSearchDirs returns, in priority order, the directories viper should
// search for daemon.yaml: an explicit override, XDG_CONFIG_HOME, then the
// cross-platform os.UserConfigDir fallback (%AppData% on Windows, ~/Library
// on macOS, ~/.config elsewhere).
func configSearchDirs() []string {
	var dirs []string

	if override := strings.TrimSpace(os.Getenv(ConfigDirEnv)); override != "" {
		dirs = append(dirs, override)
	}

	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, appDirName))
	}

	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, appDirName))
	}

	return dirs
}

// mergeRestartRequired returns next with every restart-required field
// (restartRequiredKeys) replaced by its value in previous, plus the list of
// keys a reload attempted to change and was refused.
func mergeRestartRequired(previous, next Options) (Options, []string) {
	merged := next
	var changed []string

	if previous.SocketPath != next.SocketPath {
		merged.SocketPath = previous.SocketPath
		changed = append(changed, "socket_path")
	}
	if previous.PipeName != next.PipeName {
		merged.PipeName = previous.PipeName
		changed = append(changed, "pipe_name")
	}
	if previous.PipePoolSize != next.PipePoolSize {
		merged.PipePoolSize = previous.PipePoolSize
		changed = append(changed, "pipe_pool_size")
	}
	if previous.SocketFileMode != next.SocketFileMode {
		merged.SocketFileMode = previous.SocketFileMode
		changed = append(changed, "socket_file_mode")
	}
	if previous.SocketDirMode != next.SocketDirMode {
		merged.SocketDirMode = previous.SocketDirMode
		changed = append(changed, "socket_dir_mode")
	}
	if previous.AppDataDir != next.AppDataDir {
		merged.AppDataDir = previous.AppDataDir
		changed = append(changed, "app_data_dir")
	}

	return merged, changed
}
