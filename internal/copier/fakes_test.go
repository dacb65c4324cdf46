package copier

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"
)

var (
	errRead  = errors.New("input/output error")
	errWrite = errors.New("no space left on device")
	errClose = errors.New("bad file descriptor")
	errSync  = errors.New("sync failed")
)

type fakeInfo struct {
	size int64
	mode os.FileMode
}

func (i fakeInfo) Name() string       { return "fake" }
func (i fakeInfo) Size() int64        { return i.size }
func (i fakeInfo) Mode() os.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() interface{}   { return nil }

type fakeSource struct {
	r        *bytes.Reader
	size     int64
	readErr  error // returned instead of io.EOF once the data is drained
	statErr  error
	closeErr error
	fd       uintptr
	closed   int
}

func newFakeSource(data []byte, fd uintptr) *fakeSource {
	return &fakeSource{r: bytes.NewReader(data), size: int64(len(data)), fd: fd}
}

func (s *fakeSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err == io.EOF && s.readErr != nil {
		return n, s.readErr
	}
	return n, err
}

func (s *fakeSource) Close() error {
	s.closed++
	return s.closeErr
}

func (s *fakeSource) Fd() uintptr { return s.fd }

func (s *fakeSource) Stat() (os.FileInfo, error) {
	if s.statErr != nil {
		return nil, s.statErr
	}
	return fakeInfo{size: s.size}, nil
}

type fakeDestination struct {
	buf       bytes.Buffer
	writes    []int
	failWrite int // 1-based write that fails; 0 never fails
	syncErr   error
	closeErr  error
	fd        uintptr
	synced    int
	closed    int
}

func (d *fakeDestination) Write(p []byte) (int, error) {
	if d.failWrite > 0 && len(d.writes)+1 == d.failWrite {
		return 0, errWrite
	}
	d.writes = append(d.writes, len(p))
	return d.buf.Write(p)
}

func (d *fakeDestination) Close() error {
	d.closed++
	return d.closeErr
}

func (d *fakeDestination) Fd() uintptr { return d.fd }

func (d *fakeDestination) Sync() error {
	d.synced++
	return d.syncErr
}

type fakeFS struct {
	src       *fakeSource
	dst       *fakeDestination
	openErr   error
	createErr error
	created   []string
	perm      os.FileMode
	existing  map[string]int64 // sizes of files already present
}

func (f *fakeFS) OpenSource(path string) (Source, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.src, nil
}

func (f *fakeFS) CreateDestination(path string, perm os.FileMode) (Destination, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, path)
	f.perm = perm
	return f.dst, nil
}

func (f *fakeFS) Stat(path string) (os.FileInfo, error) {
	size, ok := f.existing[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeInfo{size: size}, nil
}

type fakeSpace struct {
	err  error
	dir  string
	need uint64
}

func (s *fakeSpace) EnsureFree(dir string, need uint64) error {
	s.dir = dir
	s.need = need
	return s.err
}

type recordingObserver struct {
	results []Result
	errs    []error
}

func (o *recordingObserver) ObserveCopy(res Result, err error) {
	o.results = append(o.results, res)
	o.errs = append(o.errs, err)
}
