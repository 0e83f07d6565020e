package logging

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"coverletter-service/internal/logging/types"
)

// adapterSet is shared by a logger and every logger derived from it
type adapterSet struct {
	mu       sync.RWMutex
	adapters map[string]types.LogAdapter
	level    LogLevel
}

// MultiLogger fans every entry out to all registered adapters
type MultiLogger struct {
	set     *adapterSet
	context context.Context
	fields  map[string]interface{}
}

// NewMultiLogger creates a logger with no adapters at info level
func NewMultiLogger() *MultiLogger {
	return &MultiLogger{
		set: &adapterSet{
			adapters: make(map[string]types.LogAdapter),
			level:    InfoLevel,
		},
		context: context.Background(),
		fields:  make(map[string]interface{}),
	}
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.Log(DebugLevel, message, fields...)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.Log(InfoLevel, message, fields...)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.Log(WarnLevel, message, fields...)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.Log(ErrorLevel, message, fields...)
}

// Fatal logs, flushes adapters and exits the process
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.Log(FatalLevel, message, fields...)
	l.Close()
	os.Exit(1)
}

// Log writes a message at the given level to every adapter
func (l *MultiLogger) Log(level LogLevel, message string, fields ...map[string]interface{}) {
	l.set.mu.RLock()
	defer l.set.mu.RUnlock()

	if level < l.set.level {
		return
	}

	entry := &types.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   l.context,
		Fields:    l.mergeFields(fields...),
	}

	for name, adapter := range l.set.adapters {
		if err := adapter.Write(entry); err != nil {
			// stderr, never back into the logger
			fmt.Fprintf(os.Stderr, "logging adapter %s error: %v\n", name, err)
		}
	}
}

func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return &MultiLogger{set: l.set, context: ctx, fields: l.mergeFields()}
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	return &MultiLogger{set: l.set, context: l.context, fields: l.mergeFields(fields)}
}

func (l *MultiLogger) SetLevel(level LogLevel) {
	l.set.mu.Lock()
	defer l.set.mu.Unlock()
	l.set.level = level
}

func (l *MultiLogger) GetLevel() LogLevel {
	l.set.mu.RLock()
	defer l.set.mu.RUnlock()
	return l.set.level
}

// AddAdapter registers an adapter; names must be unique
func (l *MultiLogger) AddAdapter(adapter types.LogAdapter) error {
	l.set.mu.Lock()
	defer l.set.mu.Unlock()

	name := adapter.Name()
	if _, exists := l.set.adapters[name]; exists {
		return fmt.Errorf("adapter %s already exists", name)
	}

	l.set.adapters[name] = adapter
	return nil
}

// RemoveAdapter closes and unregisters an adapter
func (l *MultiLogger) RemoveAdapter(adapterName string) error {
	l.set.mu.Lock()
	defer l.set.mu.Unlock()

	adapter, exists := l.set.adapters[adapterName]
	if !exists {
		return fmt.Errorf("adapter %s not found", adapterName)
	}

	if err := adapter.Close(); err != nil {
		return fmt.Errorf("failed to close adapter %s: %w", adapterName, err)
	}

	delete(l.set.adapters, adapterName)
	return nil
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.set.mu.Lock()
	defer l.set.mu.Unlock()

	var failures []string
	for name, adapter := range l.set.adapters {
		if err := adapter.Close(); err != nil {
			failures = append(failures, fmt.Sprintf("adapter %s: %v", name, err))
		}
	}

	if len(failures) > 0 {
		sort.Strings(failures)
		return fmt.Errorf("failed to close adapters: %s", strings.Join(failures, ", "))
	}

	return nil
}

// mergeFields returns a fresh map of the logger's fields overlaid with extra
func (l *MultiLogger) mergeFields(extra ...map[string]interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}

	for _, fieldMap := range extra {
		for k, v := range fieldMap {
			fields[k] = v
		}
	}

	return fields
}

// ParseLogLevel parses a string log level into LogLevel
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}
