package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wisekey/langcenter/internal/config"
)

// FileStorage keeps the record in a JSON document on disk. Writes go to a
// temporary file that is renamed over the target, so readers see either
// the old document or the new one.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Save(_ context.Context, rec Record) error {
	// Both values are stored as strings so the user bytes come back unchanged.
	doc := map[string]string{config.StorageKey.AccessToken: rec.AccessToken}
	if len(rec.User) > 0 {
		doc[config.StorageKey.User] = string(rec.User)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *FileStorage) Load(_ context.Context) (Record, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read session file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		// An unreadable document is reported as a partial record so the
		// store purges it.
		return Record{User: data}, nil
	}

	var rec Record
	if raw, ok := doc[config.StorageKey.AccessToken]; ok {
		_ = json.Unmarshal(raw, &rec.AccessToken)
	}
	if raw, ok := doc[config.StorageKey.User]; ok && string(raw) != "null" {
		var user string
		if json.Unmarshal(raw, &user) == nil {
			rec.User = []byte(user)
		} else {
			rec.User = raw
		}
	}
	return rec, nil
}

func (f *FileStorage) Remove(_ context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
