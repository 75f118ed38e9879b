package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is what the operator needs to recover a broadcast transfer: once a
// hash is recorded, resubmitting must derive a fresh nonce.
type Entry struct {
	TxHash    string    `json:"tx_hash"`
	ChainID   uint64    `json:"chain_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ValueWei  string    `json:"value_wei"`
	Nonce     uint64    `json:"nonce"`
	State     string    `json:"state"`
	Block     uint64    `json:"block,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	path    string
	mu      sync.Mutex
	loaded  bool
	entries []Entry
	now     func() time.Time
}

type state struct {
	Entries []Entry `json:"entries"`
}

func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Entries returns every recorded transfer, oldest first.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Record inserts e or updates the entry with the same hash.
func (s *Store) Record(e Entry) error {
	if e.TxHash == "" {
		return fmt.Errorf("journal entry without tx hash")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	now := s.now().UTC()
	e.UpdatedAt = now
	for i := range s.entries {
		if s.entries[i].TxHash == e.TxHash {
			e.CreatedAt = s.entries[i].CreatedAt
			s.entries[i] = e
			return s.save()
		}
	}
	e.CreatedAt = now
	s.entries = append(s.entries, e)
	return s.save()
}

func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return err
	}
	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("journal decode: %w", err)
	}
	s.entries = st.Entries
	s.loaded = true
	return nil
}

func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(state{Entries: s.entries}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("journal rename: %w", err)
	}
	return nil
}
