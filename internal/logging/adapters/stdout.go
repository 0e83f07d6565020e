package adapters

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"coverletter-service/internal/logging/types"
)

// StdoutAdapter writes entries to stdout as json lines or text
type StdoutAdapter struct {
	name      string
	format    string
	colorized bool
	out       io.Writer
	mu        sync.Mutex
}

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format    string `yaml:"format"` // json or text
	Colorized bool   `yaml:"colorized"`
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	return NewWriterAdapter(name, config, os.Stdout)
}

// NewWriterAdapter is a StdoutAdapter bound to an arbitrary writer
func NewWriterAdapter(name string, config StdoutConfig, out io.Writer) *StdoutAdapter {
	return &StdoutAdapter{
		name:      name,
		format:    config.Format,
		colorized: config.Colorized,
		out:       out,
	}
}

func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.format, a.colorized)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = fmt.Fprintln(a.out, line)
	return err
}

func (a *StdoutAdapter) Close() error  { return nil }
func (a *StdoutAdapter) Health() error { return nil }
func (a *StdoutAdapter) Name() string  { return a.name }

// formatEntry renders an entry in the requested format; unknown formats use json
func formatEntry(entry *types.LogEntry, format string, colorized bool) (string, error) {
	if strings.ToLower(format) == "text" {
		return formatText(entry, colorized), nil
	}
	return formatJSON(entry)
}

func formatJSON(entry *types.LogEntry) (string, error) {
	record := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		record[k] = v
	}
	record["level"] = entry.Level.String()
	record["message"] = entry.Message
	record["time"] = entry.Timestamp.Format(time.RFC3339)

	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatText(entry *types.LogEntry, colorized bool) string {
	level := strings.ToUpper(entry.Level.String())
	if colorized {
		level = colorizeLevel(level)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", entry.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"), level, entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	return b.String()
}

func colorizeLevel(level string) string {
	const reset = "\033[0m"
	colors := map[string]string{
		"DEBUG": "\033[90m",
		"INFO":  "\033[34m",
		"WARN":  "\033[33m",
		"ERROR": "\033[31m",
		"FATAL": "\033[31m",
	}
	if c, ok := colors[level]; ok {
		return c + level + reset
	}
	return level
}
