package pbt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/veriphys/go-pbt/archive"
	"github.com/veriphys/go-pbt/beacon"
	"github.com/veriphys/go-pbt/chip"
	tdm "github.com/veriphys/go-pbt/pbt/datamodel"
)

// Registry orchestrates the token lifecycle over a mint archive. Every
// mutating operation runs the same prelude in a fixed order - archive
// precondition, freshness, beacon signature, chip signature - and touches
// state only once every check has passed. A failed call leaves archive and
// token state unchanged.
//
// The registry itself holds no locks: operations referencing the same
// archive entry or token are expected to be serialized by an external
// transaction layer.
type Registry struct {
	store    archive.Store
	verifier beacon.Verifier
	clock    func() time.Time
}

// NewRegistry creates a registry over the given archive store. By default
// beacon signatures are checked against the default beacon network, with
// verified rounds cached.
func NewRegistry(store archive.Store, opts ...Option) (*Registry, error) {
	cfg := regConfig{
		clock:     time.Now,
		cacheSize: beacon.DefaultCacheSize,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	verifier := cfg.verifier
	if verifier == nil {
		verifier = beacon.NewVerifier()
	}
	if cfg.cacheSize > 0 {
		cached, err := beacon.NewCachingVerifier(verifier, cfg.cacheSize)
		if err != nil {
			return nil, err
		}
		verifier = cached
	}
	return &Registry{store: store, verifier: verifier, clock: cfg.clock}, nil
}

func (r *Registry) nowMillis() uint64 {
	return uint64(r.clock().UnixMilli())
}

// verifyBundle runs the freshness, beacon signature and chip signature
// checks, in that order, for a claim by sender against the given chip key.
func (r *Registry) verifyBundle(bundle SignatureBundle, key chip.PublicKey, sender Address) error {
	fresh, err := beacon.IsWithinTTL(bundle.Round, r.nowMillis())
	if err != nil {
		return err
	}
	if !fresh {
		return NewSignatureExpiredError(bundle.Round, r.nowMillis())
	}
	if !r.verifier.VerifyBeacon(bundle.Round, bundle.BeaconSignature, bundle.PrevBeaconSignature) {
		return NewInvalidSignatureError("beacon", bundle.Round)
	}
	if !key.Verify(bundle.ChipSignature, bundle.BeaconSignature, sender) {
		return NewInvalidSignatureError("chip", bundle.Round)
	}
	return nil
}

// AdminAddToArchive provisions a chip key in the archive as NotMinted. The
// key is parsed and stored in compressed form so archive lookups compare a
// single canonical encoding. Requires the archive's admin capability.
func (r *Registry) AdminAddToArchive(ctx context.Context, cap *archive.AdminCapability, chipKey []byte) error {
	key, err := chip.ParseKey(chipKey)
	if err != nil {
		return err
	}
	return r.store.AddEntry(ctx, cap, key.Bytes())
}

// Mint creates a token bound to the given chip key, owned by caller. The
// chip key must be archived and NotMinted, the beacon round fresh and its
// signature valid, and the chip signature must cover caller and the beacon
// signature. On success the archive entry moves to Minted.
func (r *Registry) Mint(ctx context.Context, bundle SignatureBundle, chipKey []byte, caller Address, meta Metadata) (*Token, error) {
	if err := meta.validate(); err != nil {
		return nil, err
	}
	key, err := chip.ParseKey(chipKey)
	if err != nil {
		return nil, err
	}
	status, err := r.store.GetStatus(ctx, key.Bytes())
	if err != nil {
		return nil, err
	}
	if status == archive.Minted {
		return nil, NewArtifactAlreadyMintedError(key.Bytes())
	}
	if err := r.verifyBundle(bundle, key, caller); err != nil {
		return nil, err
	}
	token, err := newToken(tdm.TokenModel{
		ChipKey:         key.Bytes(),
		Owner:           caller,
		Round:           int64(bundle.Round),
		BeaconSignature: bundle.BeaconSignature,
		Metadata:        meta.model(),
	})
	if err != nil {
		return nil, err
	}
	if err := r.store.SetStatus(ctx, key.Bytes(), archive.Minted); err != nil {
		return nil, err
	}
	return token, nil
}

// TransferOwnership reassigns exclusive ownership of a token to receiver.
// Transfers to the current owner are rejected before any cryptography is
// evaluated. The chip signature must cover caller, proving the physical
// artifact was present for this transfer.
func (r *Registry) TransferOwnership(ctx context.Context, bundle SignatureBundle, token *Token, caller Address, receiver Address) error {
	if caller.Equal(receiver) {
		return NewTransferNotAllowedError(receiver)
	}
	key, err := chip.ParseKey(token.chipKey)
	if err != nil {
		return fmt.Errorf("parsing bound chip key: %w", err)
	}
	if err := r.verifyBundle(bundle, key, caller); err != nil {
		return err
	}
	token.owner = Address(bytes.Clone(receiver))
	return nil
}

// UpdateChipKey rebinds a token to a different archived chip key, moving the
// Minted marker from the old key to the new one. The new key must be
// archived and must not already back a minted token. The chip signature is
// checked against the new key, with the token's owner as sender.
func (r *Registry) UpdateChipKey(ctx context.Context, bundle SignatureBundle, newChipKey []byte, token *Token) error {
	key, err := chip.ParseKey(newChipKey)
	if err != nil {
		return err
	}
	exists, err := r.store.Exists(ctx, key.Bytes())
	if err != nil {
		return err
	}
	if !exists {
		return NewUnknownArtifactError(key.Bytes())
	}
	status, err := r.store.GetStatus(ctx, key.Bytes())
	if err != nil {
		return err
	}
	if status == archive.Minted {
		return NewArtifactAlreadyMintedError(key.Bytes())
	}
	if err := r.verifyBundle(bundle, key, token.owner); err != nil {
		return err
	}
	if err := r.store.RemoveEntry(ctx, token.chipKey); err != nil {
		return err
	}
	token.chipKey = key.Bytes()
	return r.store.SetStatus(ctx, key.Bytes(), archive.Minted)
}
