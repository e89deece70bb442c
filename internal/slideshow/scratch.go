package slideshow

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scratch is a uniquely named, request-scoped working directory.
// Release removes it; calling Release more than once is safe.
type Scratch struct {
	dir  string
	once sync.Once
	err  error
}

// NewScratch creates a fresh directory under parent (os.TempDir() when empty).
func NewScratch(parent string) (*Scratch, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return nil, fmt.Errorf("create scratch parent: %w", err)
	}
	dir := filepath.Join(parent, fmt.Sprintf("slideshow-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8]))
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string { return s.dir }

// Path joins name onto the scratch directory.
func (s *Scratch) Path(name string) string { return filepath.Join(s.dir, name) }

// Release removes the directory and everything in it.
func (s *Scratch) Release() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		s.err = os.RemoveAll(s.dir)
	})
	return s.err
}
