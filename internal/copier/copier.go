package copier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// BufferSize is the size of every read issued against the source.
	BufferSize = 1024
	// DestinationMode is the permission a newly created destination gets (before umask).
	DestinationMode os.FileMode = 0664
)

// SpaceChecker verifies that a directory's filesystem can hold need more bytes.
type SpaceChecker interface {
	EnsureFree(dir string, need uint64) error
}

// Observer is notified once per finished copy, successful or not.
type Observer interface {
	ObserveCopy(res Result, err error)
}

// Options configures a Runner. Zero values give the plain copy.
type Options struct {
	FS             FileSystem   // defaults to OSFileSystem
	Space          SpaceChecker // optional free-space preflight
	Observer       Observer     // optional
	Sync           bool         // fsync the destination before closing it
	SequentialHint bool         // fadvise the source for sequential reads
}

// Result describes a copy.
type Result struct {
	Source      string
	Destination string
	Bytes       int64
	Chunks      int
	Duration    time.Duration
}

// Runner copies one file to another through a fixed-size buffer.
type Runner struct {
	fs       FileSystem
	space    SpaceChecker
	observer Observer
	sync     bool
	seqHint  bool
	log      *logrus.Logger
}

// NewRunner creates a new copy runner. A nil log discards all entries.
func NewRunner(opts Options, log *logrus.Logger) *Runner {
	fs := opts.FS
	if fs == nil {
		fs = OSFileSystem{}
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Runner{
		fs:       fs,
		space:    opts.Space,
		observer: opts.Observer,
		sync:     opts.Sync,
		seqHint:  opts.SequentialHint,
		log:      log,
	}
}

// Run validates the positional arguments and copies args[0] to args[1].
func (r *Runner) Run(args []string) (Result, error) {
	if len(args) != 2 {
		return Result{}, NewUsageError(fmt.Errorf("expected 2 arguments, got %d", len(args)))
	}
	return r.Copy(args[0], args[1])
}

// Copy writes the content of src to dst. Every returned error is an *Error.
// Handles opened by Copy are always closed before it returns.
func (r *Runner) Copy(src, dst string) (res Result, err error) {
	start := time.Now()
	res = Result{Source: src, Destination: dst}
	log := r.log.WithFields(logrus.Fields{
		"src": src,
		"dst": dst,
	})

	defer func() {
		res.Duration = time.Since(start)
		if r.observer != nil {
			r.observer.ObserveCopy(res, err)
		}
		if err != nil {
			log.WithError(err).Debug("Copy failed")
			return
		}
		log.WithFields(logrus.Fields{
			"bytes":    res.Bytes,
			"chunks":   res.Chunks,
			"duration": res.Duration.String(),
		}).Info("File copied")
	}()

	in, err := r.fs.OpenSource(src)
	if err != nil {
		return res, sourceReadError(src, err)
	}

	if r.seqHint {
		if err := adviseSequential(in); err != nil {
			log.WithError(err).Debug("Sequential read hint not applied")
		}
	}

	if r.space != nil {
		if err := r.preflight(in, src, dst); err != nil {
			r.release(log, in)
			return res, err
		}
	}

	out, err := r.fs.CreateDestination(dst, DestinationMode)
	if err != nil {
		r.release(log, in)
		return res, destinationWriteError(dst, err)
	}

	log.WithFields(logrus.Fields{
		"src_fd": in.Fd(),
		"dst_fd": out.Fd(),
	}).Debug("Handles opened")

	buf := make([]byte, BufferSize)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				r.release(log, in, out)
				return res, destinationWriteError(dst, werr)
			}
			res.Bytes += int64(n)
			res.Chunks++
		}
		if rerr == io.EOF || (n == 0 && rerr == nil) {
			break
		}
		if rerr != nil {
			r.release(log, in, out)
			return res, sourceReadError(src, rerr)
		}
	}

	if r.sync {
		if err := out.Sync(); err != nil {
			r.release(log, in, out)
			return res, destinationWriteError(dst, err)
		}
	}

	srcFd := in.Fd()
	if err := in.Close(); err != nil {
		r.release(log, out)
		return res, closeError(srcFd, err)
	}

	dstFd := out.Fd()
	if err := out.Close(); err != nil {
		return res, closeError(dstFd, err)
	}

	return res, nil
}

// preflight fails with a destination error when dst's filesystem cannot hold src.
// An existing regular dst is truncated before writing, so its size counts as free.
func (r *Runner) preflight(in Source, src, dst string) error {
	info, err := in.Stat()
	if err != nil {
		return sourceReadError(src, fmt.Errorf("failed to stat source: %w", err))
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	need := uint64(info.Size())
	if existing, err := r.fs.Stat(dst); err == nil && existing.Mode().IsRegular() {
		reclaimed := uint64(existing.Size())
		if reclaimed >= need {
			return nil
		}
		need -= reclaimed
	}

	if err := r.space.EnsureFree(filepath.Dir(dst), need); err != nil {
		return destinationWriteError(dst, err)
	}
	return nil
}

// release closes handles on an error path. Close failures here are only logged.
func (r *Runner) release(log *logrus.Entry, handles ...io.Closer) {
	for _, h := range handles {
		if err := h.Close(); err != nil {
			log.WithError(err).Debug("Ignoring close failure during cleanup")
		}
	}
}
