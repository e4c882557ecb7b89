package storage

import "github.com/pkg/errors"

// ErrInvalidKey is returned for keys that would resolve outside the
// configured base directory.
var ErrInvalidKey = errors.New("storage: key escapes base directory")

// Driver maps logical keys to stored artifacts. Keys may contain one level
// of nesting ("<session>/<filename>"); anything resolving outside the base
// is rejected.
type Driver interface {
	Save(key string, data []byte) (string, error)
	Exists(key string) bool
	Delete(key string) error
	Sweep() (int, error)
	PathFor(key string) (string, error)
	Base() string
}
