package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/musicjacker/backend/pkg/logger"
	"github.com/pkg/errors"
)

// localDriver keeps artifacts under one base directory on the local
// filesystem, with modification-time based expiry.
type localDriver struct {
	baseDir string
	ttl     time.Duration
	logger  logger.Logger
}

func NewLocalDriver(baseDir string, ttl time.Duration, log logger.Logger) (Driver, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.Wrap(err, "storage.NewLocalDriver.Abs")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(err, "storage.NewLocalDriver.MkdirAll")
	}
	return &localDriver{baseDir: abs, ttl: ttl, logger: log}, nil
}

func (d *localDriver) Base() string {
	return d.baseDir
}

// PathFor resolves key beneath the base dir and rejects traversal attempts.
func (d *localDriver) PathFor(key string) (string, error) {
	if key == "" || strings.Contains(key, "\x00") {
		return "", ErrInvalidKey
	}
	resolved := filepath.Join(d.baseDir, filepath.Clean("/"+key))
	if resolved != d.baseDir && !strings.HasPrefix(resolved, d.baseDir+string(os.PathSeparator)) {
		return "", ErrInvalidKey
	}
	return resolved, nil
}

func (d *localDriver) Save(key string, data []byte) (string, error) {
	path, err := d.PathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "storage.localDriver.Save.MkdirAll")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "storage.localDriver.Save.WriteFile")
	}
	return path, nil
}

func (d *localDriver) Exists(key string) bool {
	path, err := d.PathFor(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete is idempotent: a missing entry is not an error.
func (d *localDriver) Delete(key string) error {
	path, err := d.PathFor(key)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "storage.localDriver.Delete")
	}
	return nil
}

// Sweep removes top-level entries whose last modification is older than the
// configured TTL and returns how many were removed.
func (d *localDriver) Sweep() (int, error) {
	entries, err := os.ReadDir(d.baseDir)
	if err != nil {
		return 0, errors.Wrap(err, "storage.localDriver.Sweep.ReadDir")
	}
	now := time.Now()
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= d.ttl {
			continue
		}
		if err := os.RemoveAll(filepath.Join(d.baseDir, entry.Name())); err != nil {
			d.logger.Warnf("sweep: failed to remove %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
