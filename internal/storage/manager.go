package storage

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/sirupsen/logrus"
)

// ErrInsufficientSpace is returned when a filesystem cannot hold a copy.
var ErrInsufficientSpace = errors.New("insufficient free space")

// UsageFunc reports usage of the filesystem that contains path.
type UsageFunc func(path string) (*disk.UsageStat, error)

// SpaceManager defines the interface for destination capacity checks.
type SpaceManager interface {
	EnsureFree(dir string, need uint64) error
	Free(dir string) (uint64, error)
}

// Compile-time check that Manager implements SpaceManager.
var _ SpaceManager = (*Manager)(nil)

// Manager inspects the filesystems a copy writes to
type Manager struct {
	usage UsageFunc
	log   *logrus.Logger
}

// NewManager creates a new storage manager backed by gopsutil
func NewManager(log *logrus.Logger) *Manager {
	return NewManagerWithUsage(disk.Usage, log)
}

// NewManagerWithUsage creates a storage manager with a custom usage source
func NewManagerWithUsage(usage UsageFunc, log *logrus.Logger) *Manager {
	return &Manager{
		usage: usage,
		log:   log,
	}
}

// Free returns the bytes available to unprivileged users on dir's filesystem
func (m *Manager) Free(dir string) (uint64, error) {
	stat, err := m.usage(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage for %s: %w", dir, err)
	}
	return stat.Free, nil
}

// EnsureFree returns ErrInsufficientSpace when dir's filesystem has fewer than need bytes free
func (m *Manager) EnsureFree(dir string, need uint64) error {
	free, err := m.Free(dir)
	if err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"dir":  dir,
		"need": need,
		"free": free,
	}).Debug("Checked free space")

	if free < need {
		return fmt.Errorf("%w: %s has %d bytes free, need %d", ErrInsufficientSpace, dir, free, need)
	}
	return nil
}
