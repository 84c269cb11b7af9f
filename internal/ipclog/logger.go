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

import (
	"os"

	"github.com/sirupsen/logrus"
)

type logger struct {
	l      *logrus.Logger
	fields Fields
}

// New builds a Logger writing JSON-formatted entries to stderr at the
// given level - the daemon's default, matching a long-running background
// process that is never read interactively.
func New(lvl Level) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(lvl.Logrus())
	return &logger{l: l}
}

// NewText builds a Logger using logrus's human-readable text formatter,
// suited to a foreground/interactive run (e.g. `linch-mind-daemon serve
// --foreground`).
func NewText(lvl Level) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(lvl.Logrus())
	return &logger{l: l}
}

func (g *logger) SetLevel(lvl Level) {
	g.l.SetLevel(lvl.Logrus())
}

func (g *logger) GetLevel() Level {
	switch g.l.GetLevel() {
	case logrus.PanicLevel:
		return PanicLevel
	case logrus.FatalLevel:
		return FatalLevel
	case logrus.ErrorLevel:
		return ErrorLevel
	case logrus.WarnLevel:
		return WarnLevel
	case logrus.DebugLevel:
		return DebugLevel
	default:
		return InfoLevel
	}
}

func (g *logger) WithFields(fields Fields) Logger {
	return &logger{l: g.l, fields: g.fields.Merge(fields)}
}

func (g *logger) entry(fields []Fields) *logrus.Entry {
	merged := g.fields.Merge(mergeFields(fields))
	if merged == nil {
		return logrus.NewEntry(g.l)
	}
	return g.l.WithFields(merged.logrus())
}

func (g *logger) Debug(msg string, fields ...Fields) { g.entry(fields).Debug(msg) }
func (g *logger) Info(msg string, fields ...Fields)   { g.entry(fields).Info(msg) }
func (g *logger) Warn(msg string, fields ...Fields)   { g.entry(fields).Warn(msg) }
func (g *logger) Error(msg string, fields ...Fields)  { g.entry(fields).Error(msg) }
