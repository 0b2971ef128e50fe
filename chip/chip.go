// Package chip implements verification of signatures produced by the
// secp256k1 key embedded in a physical artifact's chip. A chip proves
// liveness by signing the concatenation of the claiming sender's address and
// the current beacon round signature - a message that cannot be predicted
// before the round is published nor replayed by a different sender.
package chip

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
)

// Code is the multicodec code tagging a secp256k1 public key.
const Code = uint64(multicodec.Secp256k1Pub)

// KeySize is the size of a compressed SEC1 encoded public key.
const KeySize = 33

var tagSize = varint.UvarintSize(Code)
var size = tagSize + KeySize

// PublicKey is the public half of a chip's embedded secp256k1 key. Its
// compressed encoding is the chip's identity in the mint archive.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// ParseKey parses a raw SEC1 encoded (compressed or uncompressed) secp256k1
// public key.
func ParseKey(b []byte) (PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parsing chip public key: %s", err)
	}
	return PublicKey{key: k}, nil
}

// DecodeKey decodes a multicodec tagged compressed public key, the inverse of
// Encode.
func DecodeKey(b []byte) (PublicKey, error) {
	if len(b) != size {
		return PublicKey{}, fmt.Errorf("invalid length: %d wanted: %d", len(b), size)
	}
	code, err := varint.ReadUvarint(bytes.NewReader(b))
	if err != nil {
		return PublicKey{}, fmt.Errorf("reading public key codec: %s", err)
	}
	if code != Code {
		return PublicKey{}, fmt.Errorf("invalid public key codec: %d", code)
	}
	return ParseKey(b[tagSize:])
}

// FromString decodes a multibase encoded, multicodec tagged public key, the
// inverse of String.
func FromString(s string) (PublicKey, error) {
	_, b, err := multibase.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decoding multibase string: %s", err)
	}
	return DecodeKey(b)
}

// Bytes returns the compressed SEC1 encoding - the form archive entries are
// keyed by.
func (k PublicKey) Bytes() []byte {
	return k.key.SerializeCompressed()
}

// Encode returns the multicodec tagged compressed encoding.
func (k PublicKey) Encode() []byte {
	b := make([]byte, size)
	varint.PutUvarint(b, Code)
	copy(b[tagSize:], k.key.SerializeCompressed())
	return b
}

func (k PublicKey) String() string {
	s, _ := multibase.Encode(multibase.Base58BTC, k.Encode())
	return s
}

// Message builds the exact byte sequence a chip signs: the sender's address
// bytes followed by the beacon round signature.
func Message(sender []byte, beaconSig []byte) []byte {
	msg := make([]byte, 0, len(sender)+len(beaconSig))
	msg = append(msg, sender...)
	return append(msg, beaconSig...)
}

// Verify reports whether sig is a valid DER encoded ECDSA signature by this
// chip over SHA-256 of Message(sender, beaconSig).
func (k PublicKey) Verify(sig []byte, beaconSig []byte, sender []byte) bool {
	if k.key == nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(Message(sender, beaconSig))
	return parsed.Verify(digest[:], k.key)
}
