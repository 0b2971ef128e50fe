package archive

import (
	"context"
	"errors"
	"io"

	"github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	"github.com/multiformats/go-multibase"

	"github.com/veriphys/go-pbt/core/iterable"
)

var storePrefix = datastore.NewKey("/archive")

// DatastoreStore is a Store persisted in any go-datastore backend. Entries
// live under the /archive prefix, named by the multibase encoding of the raw
// chip key, each holding a single status byte.
type DatastoreStore struct {
	cap *AdminCapability
	ds  datastore.Datastore
}

var _ Store = (*DatastoreStore)(nil)

// NewDatastoreStore creates an archive over the given datastore and issues
// its admin capability.
func NewDatastoreStore(ds datastore.Datastore) (*DatastoreStore, *AdminCapability) {
	cap := &AdminCapability{}
	return &DatastoreStore{cap: cap, ds: ds}, cap
}

func (s *DatastoreStore) key(key []byte) datastore.Key {
	return storePrefix.ChildString(keyString(key))
}

func (s *DatastoreStore) AddEntry(ctx context.Context, cap *AdminCapability, key []byte) error {
	if cap == nil || cap != s.cap {
		return NewUnauthorizedError()
	}
	exists, err := s.ds.Has(ctx, s.key(key))
	if err != nil {
		return err
	}
	if exists {
		return NewDuplicateEntryError(key)
	}
	return s.ds.Put(ctx, s.key(key), []byte{byte(NotMinted)})
}

func (s *DatastoreStore) Exists(ctx context.Context, key []byte) (bool, error) {
	return s.ds.Has(ctx, s.key(key))
}

func (s *DatastoreStore) GetStatus(ctx context.Context, key []byte) (Status, error) {
	value, err := s.ds.Get(ctx, s.key(key))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return 0, NewMissingEntryError(key)
		}
		return 0, err
	}
	return statusFromByte(key, value)
}

func (s *DatastoreStore) SetStatus(ctx context.Context, key []byte, status Status) error {
	exists, err := s.ds.Has(ctx, s.key(key))
	if err != nil {
		return err
	}
	if !exists {
		return NewMissingEntryError(key)
	}
	return s.ds.Put(ctx, s.key(key), []byte{byte(status)})
}

func (s *DatastoreStore) RemoveEntry(ctx context.Context, key []byte) error {
	exists, err := s.ds.Has(ctx, s.key(key))
	if err != nil {
		return err
	}
	if !exists {
		return NewMissingEntryError(key)
	}
	return s.ds.Delete(ctx, s.key(key))
}

func (s *DatastoreStore) Entries(ctx context.Context) (iterable.Iterator[Entry], error) {
	results, err := s.ds.Query(ctx, dsq.Query{Prefix: storePrefix.String()})
	if err != nil {
		return nil, err
	}
	next := results.Next()
	return iterable.NewIterator(func() (Entry, error) {
		res, ok := <-next
		if !ok {
			return Entry{}, io.EOF
		}
		if res.Error != nil {
			return Entry{}, res.Error
		}
		_, key, err := multibase.Decode(datastore.NewKey(res.Entry.Key).Name())
		if err != nil {
			return Entry{}, err
		}
		status, err := statusFromByte(key, res.Entry.Value)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: key, Status: status}, nil
	}), nil
}
