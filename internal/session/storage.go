package session

import (
	"context"
	"sync"
)

// Record is the raw durable form of a session: the two storage keys.
type Record struct {
	AccessToken string
	User        []byte
}

// Empty reports whether neither key is present.
func (r Record) Empty() bool {
	return r.AccessToken == "" && len(r.User) == 0
}

// Complete reports whether both keys are present.
func (r Record) Complete() bool {
	return r.AccessToken != "" && len(r.User) > 0
}

// Storage persists a Record. Save writes both keys in one step, Load reads
// whatever is present and Remove deletes both. A missing record is not an
// error: Load returns the zero Record.
type Storage interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, error)
	Remove(ctx context.Context) error
}

// MemoryStorage keeps the record in process memory only.
type MemoryStorage struct {
	mu  sync.Mutex
	rec Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = Record{AccessToken: rec.AccessToken, User: append([]byte(nil), rec.User...)}
	return nil
}

func (m *MemoryStorage) Load(_ context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Record{AccessToken: m.rec.AccessToken, User: append([]byte(nil), m.rec.User...)}, nil
}

func (m *MemoryStorage) Remove(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = Record{}
	return nil
}
