// Package source abstracts where file content is read from.
package source

import (
	"io/fs"
	"os"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// Sizer is implemented by sources that can report a file's size without
// reading it.
type Sizer interface {
	Size(path string) (int64, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Size implements Sizer.
func (f *FilesystemSource) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// BillySource reads files from a billy filesystem, such as an in-memory
// filesystem or a chroot below a repository root.
type BillySource struct {
	fs billy.Filesystem
}

// NewBilly creates a source backed by fs.
func NewBilly(fs billy.Filesystem) *BillySource {
	return &BillySource{fs: fs}
}

// Read implements ContentSource.
func (b *BillySource) Read(path string) ([]byte, error) {
	return util.ReadFile(b.fs, path)
}

// Size implements Sizer.
func (b *BillySource) Size(path string) (int64, error) {
	info, err := b.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// MapSource serves content from memory.
// It is safe for concurrent use by multiple goroutines.
type MapSource struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMap creates a source holding a copy of files.
func NewMap(files map[string][]byte) *MapSource {
	m := &MapSource{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[path] = content
	}
	return m
}

// Put adds or replaces a file.
func (m *MapSource) Put(path string, content []byte) {
	m.mu.Lock()
	m.files[path] = content
	m.mu.Unlock()
}

// Read implements ContentSource.
func (m *MapSource) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return content, nil
}
