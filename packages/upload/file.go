package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultContentType is used when no content type is declared
const DefaultContentType = "text/plain"

// ErrReleased is returned when the spool backing a File has been removed
var ErrReleased = errors.New("uploaded file has been released")

// File is an uploaded file spooled into a temporary file it owns.
// The spool is removed when the reference count drops to zero.
type File struct {
	originalFilename string
	contentType      string
	path             string
	size             int64

	mu       sync.Mutex
	refs     int
	released bool
}

type options struct {
	contentType string
	dir         string
	now         func() time.Time
}

// Option configures a File at construction
type Option func(*options)

// WithContentType sets the declared content type
func WithContentType(contentType string) Option {
	return func(o *options) {
		if contentType != "" {
			o.contentType = contentType
		}
	}
}

// WithDir sets the directory spool files are created in
func WithDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.dir = dir
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Open spools the file at path. The original filename is the base name of path.
func Open(path string, opts ...Option) (*File, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", path, err)
	}
	defer src.Close()

	return New(src, filepath.Base(path), opts...)
}

// New spools everything read from r under the given original filename.
// The returned File holds one reference.
func New(r io.Reader, originalFilename string, opts ...Option) (*File, error) {
	o := options{
		contentType: DefaultContentType,
		dir:         os.TempDir(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	spool, err := createSpool(o.dir, originalFilename, o.now())
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	n, err := io.Copy(spool, r)
	if err != nil {
		spool.Close()
		os.Remove(spool.Name())
		return nil, fmt.Errorf("failed to spool %s: %w", originalFilename, err)
	}
	if err := spool.Close(); err != nil {
		os.Remove(spool.Name())
		return nil, fmt.Errorf("failed to spool %s: %w", originalFilename, err)
	}

	return &File{
		originalFilename: originalFilename,
		contentType:      o.contentType,
		path:             spool.Name(),
		size:             n,
		refs:             1,
	}, nil
}

// createSpool names the spool after the original file so it stays recognizable:
// foo.txt becomes foo2026-<uuid>.txt
func createSpool(dir, originalFilename string, now time.Time) (*os.File, error) {
	stem, ext := "upload", ""
	if originalFilename != "" {
		base := filepath.Base(originalFilename)
		ext = filepath.Ext(base)
		if s := strings.TrimSuffix(base, ext); s != "" && s != "." && s != string(filepath.Separator) {
			stem = s
		}
	}
	name := fmt.Sprintf("%s%d-%s%s", stem, now.Year(), uuid.NewString(), ext)
	return os.OpenFile(filepath.Join(dir, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
}

func (f *File) OriginalFilename() string {
	return f.originalFilename
}

func (f *File) ContentType() string {
	return f.contentType
}

// Path returns the spool location. It no longer exists after release.
func (f *File) Path() string {
	return f.path
}

// Size returns the number of spooled bytes
func (f *File) Size() int64 {
	return f.size
}

// Released reports whether the spool has been removed
func (f *File) Released() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// Open returns a reader over the spooled content
func (f *File) Open() (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return nil, fmt.Errorf("%s: %w", f.originalFilename, ErrReleased)
	}
	return os.Open(f.path)
}

// Content reads the whole spooled content
func (f *File) Content() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	buf.Grow(int(f.size))
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo copies the spooled content to w
func (f *File) WriteTo(w io.Writer) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return io.Copy(w, rc)
}

// Retain adds a reference. Every Retain must be paired with a Close.
func (f *File) Retain() *File {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.released {
		f.refs++
	}
	return f
}

// Close drops a reference and removes the spool when none remain.
// Closing a released File returns ErrReleased.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return fmt.Errorf("%s: %w", f.originalFilename, ErrReleased)
	}

	f.refs--
	if f.refs > 0 {
		return nil
	}

	f.released = true
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove spool %s: %w", f.path, err)
	}
	return nil
}
