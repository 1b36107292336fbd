package debug

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (device, bucket, uploaded keys)
	LevelLive    = 2 // Live info (camera started/stopped, frames captured)
	LevelVerbose = 3 // Verbose (formats, sizes, request details)
	LevelTrace   = 4 // Trace (GPIO, very low level)
)

var (
	mu     sync.RWMutex
	level  int
	logger *logrus.Entry
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (device, bucket, uploaded keys)
// 2 = live info (camera lifecycle, captures)
// 3 = verbose (pixel formats, payload sizes)
// 4 = trace (GPIO, very low level)
func Init(debugLevel int) {
	mu.Lock()
	defer mu.Unlock()
	level = debugLevel
	logger = nil
	if level > LevelOff {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetLevel(logrus.TraceLevel) // gating is done by level, not by logrus
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000000",
		})
		logger = l.WithField("app", "SnapGo")
	}
}

// SetOutput redirects all debug output to w (e.g. a tee into the web broadcaster).
func SetOutput(w io.Writer) {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		logger.Logger.SetOutput(w)
	}
}

// Level returns the current debug level.
func Level() int {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return Level() >= minLevel
}

// entry returns the logger if the current level allows minLevel output.
func entry(minLevel int) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	if level >= minLevel && logger != nil {
		return logger
	}
	return nil
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if l := entry(LevelInfo); l != nil {
		l.Infof(format, args...)
	}
}

// Summary prints an important summary (level 1).
func Summary(title string) {
	if l := entry(LevelInfo); l != nil {
		l.Info("═══════════════════════════════════════")
		l.Infof("  %s", title)
		l.Info("═══════════════════════════════════════")
	}
}

// Upload prints a finished upload (level 1).
func Upload(bucket, key string, size int) {
	if l := entry(LevelInfo); l != nil {
		l.WithFields(logrus.Fields{"bucket": bucket, "key": key, "bytes": size}).Info("File uploaded")
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if l := entry(LevelLive); l != nil {
		l.WithField("tag", "live").Infof(format, args...)
	}
}

// Frame prints a captured frame (level 2).
func Frame(width, height, encodedLen int) {
	if l := entry(LevelLive); l != nil {
		l.WithField("tag", "live").Infof("Frame captured: %dx%d (%d bytes encoded)", width, height, encodedLen)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if l := entry(LevelVerbose); l != nil {
		l.Debugf(format, args...)
	}
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if l := entry(LevelVerbose); l != nil {
		l.Debugf("%s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if l := entry(LevelVerbose); l != nil {
		l.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		l.Debugf("  %s", name)
		l.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if l := entry(LevelVerbose); l != nil {
		l.Debugf("Step %d: %s", num, description)
	}
}

// Value prints a named value in formatted form (level 1).
func Value(name string, value interface{}) {
	if l := entry(LevelInfo); l != nil {
		l.Infof("  %s = %v", name, value)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message (trace, GPIO).
func Trace(format string, args ...interface{}) {
	if l := entry(LevelTrace); l != nil {
		l.Tracef(format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if l := entry(LevelTrace); l != nil {
		l.WithFields(logrus.Fields{"pin": pin, "value": value}).Tracef("GPIO %s", operation)
	}
}

// --- General functions ---

// Error prints a debug error (level 1+).
func Error(err error) {
	if l := entry(LevelInfo); l != nil {
		l.WithError(err).Error("error")
	}
}

// Errorf prints a formatted error with context (level 1+).
func Errorf(format string, args ...interface{}) {
	if l := entry(LevelInfo); l != nil {
		l.Errorf(format, args...)
	}
}
