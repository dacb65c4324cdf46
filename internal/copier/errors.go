package copier

import (
	"errors"
	"fmt"
)

// Kind classifies a copy failure. Each kind maps to one process exit status.
type Kind int

const (
	// KindUsage is a wrong number of path arguments.
	KindUsage Kind = iota + 1
	// KindSourceRead covers opening or reading the source.
	KindSourceRead
	// KindDestinationWrite covers opening, writing or syncing the destination.
	KindDestinationWrite
	// KindClose is a failed close of either handle.
	KindClose
)

// Exit statuses returned by the cp command.
const (
	ExitOK               = 0
	ExitUsage            = 97
	ExitSourceRead       = 98
	ExitDestinationWrite = 99
	ExitClose            = 100
)

// UsageMessage is printed when the argument count is wrong.
const UsageMessage = "Usage: cp file_from file_to"

// ExitCode returns the process exit status for k.
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return ExitUsage
	case KindSourceRead:
		return ExitSourceRead
	case KindDestinationWrite:
		return ExitDestinationWrite
	case KindClose:
		return ExitClose
	default:
		return 1
	}
}

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindSourceRead:
		return "source_read"
	case KindDestinationWrite:
		return "destination_write"
	case KindClose:
		return "close"
	default:
		return "unknown"
	}
}

// Error is returned by Runner.Copy for every fatal condition.
type Error struct {
	Kind Kind
	Path string  // source or destination path, unset for KindClose and KindUsage
	Fd   uintptr // descriptor that failed to close, only for KindClose
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindUsage:
		if e.Err != nil {
			return fmt.Sprintf("usage: %v", e.Err)
		}
		return "usage: wrong number of arguments"
	case KindSourceRead:
		return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
	case KindDestinationWrite:
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
	case KindClose:
		return fmt.Sprintf("failed to close fd %d: %v", e.Fd, e.Err)
	default:
		return fmt.Sprintf("copy failed: %v", e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Diagnostic renders the single line written to standard error.
func (e *Error) Diagnostic() string {
	switch e.Kind {
	case KindUsage:
		return UsageMessage
	case KindSourceRead:
		return fmt.Sprintf("Error: Can't read from file %s", e.Path)
	case KindDestinationWrite:
		return fmt.Sprintf("Error: Can't write to %s", e.Path)
	case KindClose:
		return fmt.Sprintf("Error: Can't close fd %d", e.Fd)
	default:
		return fmt.Sprintf("Error: %v", e.Err)
	}
}

// ExitCode returns the process exit status for e.
func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// NewUsageError reports a wrong argument count or an unparseable command line.
func NewUsageError(cause error) *Error {
	return &Error{Kind: KindUsage, Err: cause}
}

func sourceReadError(path string, err error) *Error {
	return &Error{Kind: KindSourceRead, Path: path, Err: err}
}

func destinationWriteError(path string, err error) *Error {
	return &Error{Kind: KindDestinationWrite, Path: path, Err: err}
}

func closeError(fd uintptr, err error) *Error {
	return &Error{Kind: KindClose, Fd: fd, Err: err}
}

// ExitCode maps any error to an exit status. Errors that are not *Error exit 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.ExitCode()
	}
	return 1
}
