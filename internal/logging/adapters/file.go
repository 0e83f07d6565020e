package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coverletter-service/internal/logging/types"
)

// FileAdapter appends entries to a file and rotates it by size
type FileAdapter struct {
	name        string
	config      FileConfig
	currentFile *os.File
	currentSize int64
	mu          sync.Mutex
}

// FileConfig represents configuration for the file adapter
type FileConfig struct {
	FilePath   string `yaml:"file_path"`
	Format     string `yaml:"format"`      // json or text
	MaxSize    int64  `yaml:"max_size"`    // bytes, 0 = never rotate
	MaxBackups int    `yaml:"max_backups"` // rotated files kept as path.1 .. path.N
}

// NewFileAdapter opens (creating parent dirs) the log file in append mode
func NewFileAdapter(name string, config FileConfig) (*FileAdapter, error) {
	if config.MaxBackups <= 0 {
		config.MaxBackups = 5
	}
	if config.Format == "" {
		config.Format = "json"
	}

	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	adapter := &FileAdapter{name: name, config: config}
	if err := adapter.openFile(); err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return adapter, nil
}

func (a *FileAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.config.Format, false)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentFile == nil {
		return fmt.Errorf("log file %s is closed", a.config.FilePath)
	}

	if a.config.MaxSize > 0 && a.currentSize+int64(len(line)+1) > a.config.MaxSize && a.currentSize > 0 {
		if err := a.rotate(); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	n, err := a.currentFile.WriteString(line + "\n")
	a.currentSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write to log file: %w", err)
	}
	return nil
}

func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentFile == nil {
		return nil
	}
	err := a.currentFile.Close()
	a.currentFile = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

func (a *FileAdapter) Health() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.currentFile == nil {
		return fmt.Errorf("log file %s is closed", a.config.FilePath)
	}
	_, err := a.currentFile.Stat()
	return err
}

func (a *FileAdapter) Name() string { return a.name }

func (a *FileAdapter) openFile() error {
	file, err := os.OpenFile(a.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	a.currentFile = file
	a.currentSize = info.Size()
	return nil
}

// rotate shifts path.N-1 -> path.N ... path -> path.1 and reopens path
func (a *FileAdapter) rotate() error {
	if err := a.currentFile.Close(); err != nil {
		return err
	}
	a.currentFile = nil

	base := a.config.FilePath
	os.Remove(fmt.Sprintf("%s.%d", base, a.config.MaxBackups))
	for i := a.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", base, i), fmt.Sprintf("%s.%d", base, i+1))
	}
	if err := os.Rename(base, base+".1"); err != nil && !os.IsNotExist(err) {
		return err
	}

	return a.openFile()
}
