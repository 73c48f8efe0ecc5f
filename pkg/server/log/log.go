/* Copyright 2026 Inkvault Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log provides interfaces to write structured logs
package log

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LevelDebug represents debug log level
	LevelDebug = "debug"
	// LevelInfo represents info log level
	LevelInfo = "info"
	// LevelWarn represents warn log level
	LevelWarn = "warn"
	// LevelError represents error log level
	LevelError = "error"
)

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger = newLogger(zapcore.Lock(os.Stderr))
)

// Fields represents a set of information to be included in the log
type Fields map[string]interface{}

// Entry represents a log entry
type Entry struct {
	Fields Fields
}

// Options configures the log output
type Options struct {
	// File, if set, receives the logs in addition to stderr and is rotated
	// when it grows past MaxSizeMB
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func newLogger(w zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level)

	return zap.New(core)
}

// Init sets up the log output
func Init(o Options) {
	var w io.Writer = os.Stderr
	if o.File != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			Compress:   true,
		})
	}

	SetOutput(w)
}

// SetOutput replaces the log destination
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	logger = newLogger(zapcore.Lock(zapcore.AddSync(w)))
}

// Sync flushes buffered logs
func Sync() {
	mu.RLock()
	defer mu.RUnlock()

	_ = logger.Sync()
}

func parseLevel(l string) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel sets the global log level
func SetLevel(l string) {
	level.SetLevel(parseLevel(l))
}

// shouldLog returns true if the given level is enabled
func shouldLog(l string) bool {
	return level.Enabled(parseLevel(l))
}

// WithFields creates a log entry with the given fields
func WithFields(fields Fields) Entry {
	return Entry{Fields: fields}
}

func (e Entry) zapFields() []zap.Field {
	ret := make([]zap.Field, 0, len(e.Fields))
	for k, v := range e.Fields {
		switch v := v.(type) {
		case error:
			ret = append(ret, zap.String(k, v.Error()))
		default:
			ret = append(ret, zap.Any(k, v))
		}
	}

	return ret
}

func (e Entry) write(l string, msg string, extra ...zap.Field) {
	if !shouldLog(l) {
		return
	}

	mu.RLock()
	lg := logger
	mu.RUnlock()

	fields := append(e.zapFields(), extra...)
	switch l {
	case LevelDebug:
		lg.Debug(msg, fields...)
	case LevelWarn:
		lg.Warn(msg, fields...)
	case LevelError:
		lg.Error(msg, fields...)
	default:
		lg.Info(msg, fields...)
	}
}

// Debug logs the given entry at a debug level
func (e Entry) Debug(msg string) {
	e.write(LevelDebug, msg)
}

// Info logs the given entry at an info level
func (e Entry) Info(msg string) {
	e.write(LevelInfo, msg)
}

// Warn logs the given entry at a warning level
func (e Entry) Warn(msg string) {
	e.write(LevelWarn, msg)
}

// Error logs the given entry at an error level
func (e Entry) Error(msg string) {
	e.write(LevelError, msg)
}

// ErrorWrap logs the given entry with the error attached
func (e Entry) ErrorWrap(err error, msg string) {
	e.write(LevelError, msg, zap.String("error", errString(err)))
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

// Debug logs a debug message without additional fields
func Debug(msg string) {
	WithFields(Fields{}).Debug(msg)
}

// Info logs an info message without additional fields
func Info(msg string) {
	WithFields(Fields{}).Info(msg)
}

// Warn logs a warning message without additional fields
func Warn(msg string) {
	WithFields(Fields{}).Warn(msg)
}

// Error logs an error message without additional fields
func Error(msg string) {
	WithFields(Fields{}).Error(msg)
}

// ErrorWrap logs an error message with the given error attached
func ErrorWrap(err error, msg string) {
	WithFields(Fields{}).ErrorWrap(err, msg)
}
