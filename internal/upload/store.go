package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotPDF is returned for uploads that are neither labelled nor shaped like a PDF
	ErrNotPDF = errors.New("only PDF files are allowed")

	// ErrTooLarge is returned for uploads above the configured size limit
	ErrTooLarge = errors.New("uploaded file is too large")
)

var pdfMagic = []byte("%PDF-")

const maxNameLength = 100

// Store stages uploads as uniquely named files under one directory
type Store struct {
	dir      string
	maxBytes int64
}

// File is a staged upload. Callers must defer Remove.
type File struct {
	Path         string
	OriginalName string
	Size         int64
}

// Remove deletes the staged file. Removing twice is not an error.
func (f *File) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove staged upload: %w", err)
	}
	return nil
}

// NewStore creates a store rooted at dir. maxBytes <= 0 disables the size check.
func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

// EnsureDir creates the upload directory if needed
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// Dir returns the upload directory
func (s *Store) Dir() string {
	return s.dir
}

// Save stages a multipart upload
func (s *Store) Save(fh *multipart.FileHeader) (*File, error) {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, fh.Size, s.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return s.save(fh.Filename, fh.Header.Get("Content-Type"), src)
}

// SaveBytes stages an in-memory document, such as one received over gRPC
func (s *Store) SaveBytes(name string, data []byte) (*File, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), s.maxBytes)
	}
	return s.save(name, "", bytes.NewReader(data))
}

func (s *Store) save(originalName, contentType string, src io.Reader) (*File, error) {
	header := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(src, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	header = header[:n]

	if !isPDF(contentType, header) {
		return nil, ErrNotPDF
	}

	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, UniqueName(originalName))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	file := &File{Path: path, OriginalName: originalName}

	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(header), src))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		file.Remove()
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	file.Size = written
	return file, nil
}

func isPDF(contentType string, header []byte) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	if strings.EqualFold(strings.TrimSpace(mediaType), "application/pdf") {
		return true
	}
	return bytes.HasPrefix(header, pdfMagic)
}

// UniqueName builds <unix-millis>-<uuid8>-<sanitized name>
func UniqueName(originalName string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), id, sanitizeName(originalName))
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "upload.pdf"
	}
	if len(cleaned) > maxNameLength {
		cleaned = cleaned[len(cleaned)-maxNameLength:]
	}
	return cleaned
}
