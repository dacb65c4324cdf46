package copier

import (
	"io"
	"os"
)

// Source is a handle opened for reading.
type Source interface {
	io.Reader
	io.Closer
	Fd() uintptr
	Stat() (os.FileInfo, error)
}

// Destination is a handle opened for writing.
type Destination interface {
	io.Writer
	io.Closer
	Fd() uintptr
	Sync() error
}

// FileSystem opens the two handles a copy needs.
type FileSystem interface {
	OpenSource(path string) (Source, error)
	CreateDestination(path string, perm os.FileMode) (Destination, error)
	Stat(path string) (os.FileInfo, error)
}

// Compile-time check that OSFileSystem implements FileSystem.
var _ FileSystem = OSFileSystem{}

// OSFileSystem opens real files through the os package.
type OSFileSystem struct{}

// OpenSource opens path read-only.
func (OSFileSystem) OpenSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateDestination opens path write-only, creating it with perm or truncating it.
func (OSFileSystem) CreateDestination(path string, perm os.FileMode) (Destination, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Stat returns the file info of path, following symlinks.
func (OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}
