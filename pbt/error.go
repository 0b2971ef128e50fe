package pbt

import (
	"fmt"

	"github.com/multiformats/go-multibase"

	"github.com/veriphys/go-pbt/core/result/failure"
)

func keyString(key []byte) string {
	s, _ := multibase.Encode(multibase.Base58BTC, key)
	return s
}

// InvalidSignatureError indicates that cryptographic verification of the
// beacon signature or the chip signature failed.
type InvalidSignatureError struct {
	failure.NamedWithStackTrace
	subject string
	round   uint64
}

func NewInvalidSignatureError(subject string, round uint64) InvalidSignatureError {
	return InvalidSignatureError{failure.NamedWithCurrentStackTrace("InvalidSignature"), subject, round}
}

func (ise InvalidSignatureError) Error() string {
	return fmt.Sprintf("%s signature for round %d failed verification", ise.subject, ise.round)
}

// SignatureExpiredError indicates the referenced beacon round is older than
// the freshness window allows.
type SignatureExpiredError struct {
	failure.NamedWithStackTrace
	round     uint64
	nowMillis uint64
}

func NewSignatureExpiredError(round uint64, nowMillis uint64) SignatureExpiredError {
	return SignatureExpiredError{failure.NamedWithCurrentStackTrace("SignatureExpired"), round, nowMillis}
}

func (see SignatureExpiredError) Round() uint64 {
	return see.round
}

func (see SignatureExpiredError) Error() string {
	return fmt.Sprintf("beacon round %d is outside the freshness window at %d", see.round, see.nowMillis)
}

// ArtifactAlreadyMintedError indicates the chip key already has a live
// minted token.
type ArtifactAlreadyMintedError struct {
	failure.NamedWithStackTrace
	key []byte
}

func NewArtifactAlreadyMintedError(key []byte) ArtifactAlreadyMintedError {
	return ArtifactAlreadyMintedError{failure.NamedWithCurrentStackTrace("ArtifactAlreadyMinted"), key}
}

func (aame ArtifactAlreadyMintedError) Key() []byte {
	return aame.key
}

func (aame ArtifactAlreadyMintedError) Error() string {
	return fmt.Sprintf("a token has already been minted for chip key %s", keyString(aame.key))
}

// UnknownArtifactError indicates the referenced chip key has never been
// provisioned in the archive.
type UnknownArtifactError struct {
	failure.NamedWithStackTrace
	key []byte
}

func NewUnknownArtifactError(key []byte) UnknownArtifactError {
	return UnknownArtifactError{failure.NamedWithCurrentStackTrace("UnknownArtifact"), key}
}

func (uae UnknownArtifactError) Key() []byte {
	return uae.key
}

func (uae UnknownArtifactError) Error() string {
	return fmt.Sprintf("chip key %s is not archived", keyString(uae.key))
}

// TransferNotAllowedError indicates an attempted transfer to self.
type TransferNotAllowedError struct {
	failure.NamedWithStackTrace
	address Address
}

func NewTransferNotAllowedError(address Address) TransferNotAllowedError {
	return TransferNotAllowedError{failure.NamedWithCurrentStackTrace("TransferNotAllowed"), address}
}

func (tnae TransferNotAllowedError) Error() string {
	return fmt.Sprintf("cannot transfer token to its current owner %s", tnae.address)
}

// MalformedMetadataError indicates attribute keys and values of unequal
// length.
type MalformedMetadataError struct {
	failure.NamedWithStackTrace
	keys   int
	values int
}

func NewMalformedMetadataError(keys int, values int) MalformedMetadataError {
	return MalformedMetadataError{failure.NamedWithCurrentStackTrace("MalformedMetadata"), keys, values}
}

func (mme MalformedMetadataError) Error() string {
	return fmt.Sprintf("metadata has %d attribute keys but %d values", mme.keys, mme.values)
}
