package statestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/snapshot"
)

// FileStore keeps the state in a single JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never see a partial document.
func (s *FileStore) Save(ctx context.Context, state snapshot.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encodeState(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (snapshot.State, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.State{}, err
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snapshot.State{}, snapshot.ErrNotFound
	}
	if err != nil {
		return snapshot.State{}, fmt.Errorf("read state: %w", err)
	}
	return decodeState(b)
}
