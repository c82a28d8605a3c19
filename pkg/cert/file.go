package cert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists one certificate file per printer identity under a
// base directory. Writes go through a temporary file and rename so a
// concurrent reader never sees a partial certificate.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create certificate dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Get(uuid string) []byte {
	cert, err := os.ReadFile(s.path(uuid))
	if err != nil {
		return nil
	}
	return cert
}

func (s *FileStore) Put(uuid string, cert []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "cert-*")
	if err != nil {
		return fmt.Errorf("failed to stage certificate: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(cert); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.Rename(name, s.path(uuid)); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to store certificate: %w", err)
	}
	return nil
}

func (s *FileStore) Remove(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(uuid)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove certificate: %w", err)
	}
	return nil
}

// path maps an identity to a file name, replacing separators so an
// identity can never escape the store directory.
func (s *FileStore) path(uuid string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(uuid)
	return filepath.Join(s.dir, name+".crt")
}
