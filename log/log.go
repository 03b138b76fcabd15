// Package log is a logrus facade that writes daily log files when logs.write is enabled.
// Every call is a no-op until Setup enables it.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/reelix-cli/reelix/filesystem"
	"github.com/reelix-cli/reelix/key"
	"github.com/reelix-cli/reelix/where"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var enabled atomic.Bool

// Setup opens today's log file and applies formatter and level from the config.
func Setup() error {
	if !viper.GetBool(key.LogsWrite) {
		enabled.Store(false)
		return nil
	}

	path := filepath.Join(where.Logs(), time.Now().Format("2006-01-02")+".log")
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	Configure(f, viper.GetBool(key.LogsJson), viper.GetString(key.LogsLevel))
	return nil
}

// Configure points the logger at w and enables it. Unknown levels fall back to info.
func Configure(w io.Writer, json bool, level string) {
	logrus.SetOutput(w)

	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
	enabled.Store(true)
}

// Disable silences the facade.
func Disable() {
	enabled.Store(false)
}

// Enabled reports whether log lines are written.
func Enabled() bool {
	return enabled.Load()
}

// With returns an entry carrying the given fields. The entry writes even when
// the facade is disabled, so callers should guard with Enabled for hot paths.
func With(fields logrus.Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

func emit(level logrus.Level, args ...any) {
	if enabled.Load() {
		logrus.StandardLogger().Log(level, args...)
	}
}

func emitf(level logrus.Level, format string, args ...any) {
	if enabled.Load() {
		logrus.StandardLogger().Logf(level, format, args...)
	}
}

func Error(args ...any)                 { emit(logrus.ErrorLevel, args...) }
func Errorf(format string, args ...any) { emitf(logrus.ErrorLevel, format, args...) }
func Warn(args ...any)                  { emit(logrus.WarnLevel, args...) }
func Warnf(format string, args ...any)  { emitf(logrus.WarnLevel, format, args...) }
func Info(args ...any)                  { emit(logrus.InfoLevel, args...) }
func Infof(format string, args ...any)  { emitf(logrus.InfoLevel, format, args...) }
func Debug(args ...any)                 { emit(logrus.DebugLevel, args...) }
func Debugf(format string, args ...any) { emitf(logrus.DebugLevel, format, args...) }
func Trace(args ...any)                 { emit(logrus.TraceLevel, args...) }
func Tracef(format string, args ...any) { emitf(logrus.TraceLevel, format, args...) }
