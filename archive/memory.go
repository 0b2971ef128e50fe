package archive

import (
	"context"

	"github.com/veriphys/go-pbt/core/iterable"
)

// MemoryStore is an in-memory Store, suitable for tests and single process
// deployments.
type MemoryStore struct {
	cap     *AdminCapability
	entries map[string]Status
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory archive and issues its admin
// capability. The capability is returned exactly once - the store keeps no
// other way to mint one.
func NewMemoryStore() (*MemoryStore, *AdminCapability) {
	cap := &AdminCapability{}
	return &MemoryStore{cap: cap, entries: map[string]Status{}}, cap
}

func (s *MemoryStore) AddEntry(ctx context.Context, cap *AdminCapability, key []byte) error {
	if cap == nil || cap != s.cap {
		return NewUnauthorizedError()
	}
	if _, ok := s.entries[string(key)]; ok {
		return NewDuplicateEntryError(key)
	}
	s.entries[string(key)] = NotMinted
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key []byte) (bool, error) {
	_, ok := s.entries[string(key)]
	return ok, nil
}

func (s *MemoryStore) GetStatus(ctx context.Context, key []byte) (Status, error) {
	status, ok := s.entries[string(key)]
	if !ok {
		return 0, NewMissingEntryError(key)
	}
	return status, nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, key []byte, status Status) error {
	if _, ok := s.entries[string(key)]; !ok {
		return NewMissingEntryError(key)
	}
	s.entries[string(key)] = status
	return nil
}

func (s *MemoryStore) RemoveEntry(ctx context.Context, key []byte) error {
	if _, ok := s.entries[string(key)]; !ok {
		return NewMissingEntryError(key)
	}
	delete(s.entries, string(key))
	return nil
}

func (s *MemoryStore) Entries(ctx context.Context) (iterable.Iterator[Entry], error) {
	keys := iterable.FromMap(s.entries)
	return iterable.NewIterator(func() (Entry, error) {
		k, status, err := keys.Next()
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: []byte(k), Status: status}, nil
	}), nil
}
