// Package pbt implements the physical-backed token protocol: binding the
// chip embedded in a physical artifact to a digital ownership record. Every
// state changing operation requires a signature bundle proving the chip was
// alive during a recent randomness beacon round and signed for the claiming
// sender, so authenticity and freshness are both established before any
// mutation.
package pbt

import (
	"bytes"

	"github.com/multiformats/go-multibase"
)

// Address identifies the account invoking or receiving an operation. It is
// opaque to the protocol; equality is exact byte equality.
type Address []byte

func (a Address) Equal(other Address) bool {
	return bytes.Equal(a, other)
}

func (a Address) String() string {
	s, _ := multibase.Encode(multibase.Base58BTC, a)
	return s
}

// SignatureBundle carries the per-call proof material: the chip's signature
// over the sender and current beacon output, and the beacon output itself
// with the previous round's signature it chains from. Bundles are never
// persisted; the freshness check bounds the window in which one can be
// replayed.
type SignatureBundle struct {
	// ChipSignature is the chip's DER encoded ECDSA signature over
	// sender ‖ BeaconSignature.
	ChipSignature []byte
	// BeaconSignature is the beacon's BLS signature for Round.
	BeaconSignature []byte
	// PrevBeaconSignature is the beacon signature of Round - 1, which
	// Round's signature is chained to.
	PrevBeaconSignature []byte
	// Round is the beacon round number.
	Round uint64
}
