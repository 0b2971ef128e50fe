// Package archive tracks, per chip public key, whether a token has been
// minted for it. Entries are provisioned by the holder of the store's admin
// capability before any mint for that key can succeed. The store performs no
// concurrency control of its own: callers are expected to serialize access
// through an external transaction discipline.
package archive

import (
	"context"

	"github.com/veriphys/go-pbt/core/iterable"
)

// Status is the mint state of an archived chip key.
type Status uint8

const (
	NotMinted Status = 0
	Minted    Status = 1
)

func (s Status) String() string {
	switch s {
	case NotMinted:
		return "not-minted"
	case Minted:
		return "minted"
	}
	return "invalid"
}

// statusFromByte decodes the persisted one byte form of a status. A stored
// value outside the enum is an InvalidStatusError, which is deliberately
// distinct from a missing entry.
func statusFromByte(key []byte, b []byte) (Status, error) {
	if len(b) != 1 || b[0] > byte(Minted) {
		return 0, NewInvalidStatusError(key, b)
	}
	return Status(b[0]), nil
}

// AdminCapability is an unforgeable possession value gating archive
// provisioning. Exactly one is issued per store, at construction; AddEntry
// succeeds only when presented with that value. Authorization is by
// possession, never by an identity lookup.
type AdminCapability struct {
	_ [0]func()
}

// Entry is one archived chip key and its mint status.
type Entry struct {
	Key    []byte
	Status Status
}

// Store is the keyed archive: raw chip public key bytes to mint status. Keys
// compare by exact byte equality.
type Store interface {
	// AddEntry provisions a chip key as NotMinted. It fails with
	// DuplicateEntryError if the key is already archived and with
	// UnauthorizedError if cap is not this store's issued capability.
	AddEntry(ctx context.Context, cap *AdminCapability, key []byte) error
	// Exists reports whether the chip key is archived.
	Exists(ctx context.Context, key []byte) (bool, error)
	// GetStatus returns the mint status of an archived chip key. It fails
	// with MissingEntryError if the key is absent.
	GetStatus(ctx context.Context, key []byte) (Status, error)
	// SetStatus updates the mint status of an archived chip key. It fails
	// with MissingEntryError if the key is absent.
	SetStatus(ctx context.Context, key []byte, status Status) error
	// RemoveEntry deletes an archived chip key. It fails with
	// MissingEntryError if the key is absent.
	RemoveEntry(ctx context.Context, key []byte) error
	// Entries iterates all archived entries in unspecified order.
	Entries(ctx context.Context) (iterable.Iterator[Entry], error)
}
