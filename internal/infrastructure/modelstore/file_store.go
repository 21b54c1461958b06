package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"NewsClassifier/internal/domain"
	"NewsClassifier/internal/ports"
)

// DefaultFileName is the snapshot file inside the model directory.
const DefaultFileName = "classifier.json"

// FileStore keeps the snapshot on local disk, replacing it via temp file + rename.
type FileStore struct {
	dir  string
	name string
}

var _ ports.ModelStore = (*FileStore)(nil)

// NewFileStore stores the snapshot as dir/classifier.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, name: DefaultFileName}
}

// Path is the snapshot location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Save writes payload to a temp file in the same directory, syncs it and renames it over
// the previous snapshot. A failure leaves the previous snapshot untouched.
func (s *FileStore) Save(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, s.name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	committed = true

	if dir, err := os.Open(s.dir); err == nil {
		_ = dir.Sync()
		_ = dir.Close()
	}
	return nil
}

// Load reads the snapshot, returning domain.ErrNoSavedModel if it does not exist.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.Path(), domain.ErrNoSavedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return payload, nil
}
