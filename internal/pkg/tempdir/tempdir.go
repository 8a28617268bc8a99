package tempdir

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

const defaultDirPerm = 0o755

// Handle is one scoped scratch directory. Release it through the Service that created it.
type Handle struct {
	path string
	once sync.Once
	err  error
}

// Path returns the directory path.
func (h *Handle) Path() string { return h.path }

// Service creates per-request scratch directories under a root directory.
type Service struct {
	root string
}

func NewService(root string) *Service {
	return &Service{root: root}
}

// Root returns the parent directory of all scoped directories.
func (s *Service) Root() string { return s.root }

// CreateScoped creates a fresh directory under the root.
func (s *Service) CreateScoped(prefix string) (*Handle, error) {
	if err := os.MkdirAll(s.root, defaultDirPerm); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "-")
	if prefix == "" {
		prefix = "scoped"
	}
	path, err := os.MkdirTemp(s.root, prefix+"-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Handle{path: path}, nil
}

// Release removes the directory and everything below it.
// Only the first call does any work; later calls return the first result.
func (s *Service) Release(h *Handle) error {
	if h == nil {
		return errors.New("release: nil handle")
	}
	h.once.Do(func() {
		if err := os.RemoveAll(h.path); err != nil {
			h.err = fmt.Errorf("remove temp dir %s: %w", h.path, err)
		}
	})
	return h.err
}
