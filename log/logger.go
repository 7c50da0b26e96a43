// Package log provides the category based logger used across understudy.
package log

import (
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger wraps logrus and adds a category to each entry. Categories name
// the component and operation emitting the entry ("Connection:dispatch",
// "Page:goto") and can be filtered with a regexp.
type Logger struct {
	*logrus.Logger

	mu             sync.Mutex
	lastLogCall    int64
	debugOverride  bool
	categoryFilter *regexp.Regexp
}

// New returns a logger writing through the given logrus instance.
// debugOverride forces debug entries through even if the logrus level is
// higher. categoryFilter, when non-nil, drops entries whose category does
// not match.
func New(logger *logrus.Logger, debugOverride bool, categoryFilter *regexp.Regexp) *Logger {
	return &Logger{
		Logger:         logger,
		debugOverride:  debugOverride,
		categoryFilter: categoryFilter,
	}
}

// NewNullLogger returns a logger that discards everything. Useful in tests.
func NewNullLogger() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, false, nil)
}

func (l *Logger) Tracef(category string, msg string, args ...any) {
	l.Logf(logrus.TraceLevel, category, msg, args...)
}

func (l *Logger) Debugf(category string, msg string, args ...any) {
	l.Logf(logrus.DebugLevel, category, msg, args...)
}

func (l *Logger) Infof(category string, msg string, args ...any) {
	l.Logf(logrus.InfoLevel, category, msg, args...)
}

func (l *Logger) Warnf(category string, msg string, args ...any) {
	l.Logf(logrus.WarnLevel, category, msg, args...)
}

func (l *Logger) Errorf(category string, msg string, args ...any) {
	l.Logf(logrus.ErrorLevel, category, msg, args...)
}

// Logf logs an entry under the given category.
func (l *Logger) Logf(level logrus.Level, category string, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.categoryFilter != nil && !l.categoryFilter.MatchString(category) {
		return
	}

	now := time.Now().UnixMilli()
	elapsed := now - l.lastLogCall
	if l.lastLogCall == 0 {
		elapsed = 0
	}
	defer func() {
		l.lastLogCall = now
	}()

	if l.Logger == nil {
		magenta := color.New(color.FgMagenta).SprintFunc()
		fmt.Printf("%s [%d]: %s - %s ms\n", //nolint:forbidigo
			magenta(category), goRoutineID(), fmt.Sprintf(msg, args...), magenta(elapsed))
		return
	}

	entry := l.WithFields(logrus.Fields{
		"category":  category,
		"elapsed":   fmt.Sprintf("%d ms", elapsed),
		"goroutine": goRoutineID(),
	})
	if l.GetLevel() < level && l.debugOverride {
		entry.Printf(msg, args...)
		return
	}
	entry.Logf(level, msg, args...)
}

// DebugMode returns true if the logger level is set to Debug or higher, or
// the debug override is on.
func (l *Logger) DebugMode() bool {
	return l.debugOverride || l.Logger.GetLevel() >= logrus.DebugLevel
}

// SetLevel sets the logger level from a level string ("debug", "info", ...).
func (l *Logger) SetLevel(level string) error {
	pl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(pl)
	return nil
}

// SetCategoryFilter compiles and installs a category filter regexp.
func (l *Logger) SetCategoryFilter(pattern string) error {
	if pattern == "" {
		return nil
	}
	filter, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid category filter %q: %w", pattern, err)
	}
	l.mu.Lock()
	l.categoryFilter = filter
	l.mu.Unlock()
	return nil
}

// ConsoleLogger returns a logger for interactive debugging sessions.
func ConsoleLogger() *Logger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	return New(log, true, nil)
}

func goRoutineID() int {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, err := strconv.Atoi(idField)
	if err != nil {
		return -1
	}
	return id
}
