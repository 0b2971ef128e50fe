// Package signer emulates the signing half of a physical chip. It exists for
// tests and provisioning tooling - the registry itself only ever verifies.
package signer

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"

	"github.com/veriphys/go-pbt/chip"
)

// Code is the multicodec code tagging a secp256k1 private key.
const Code = uint64(multicodec.Secp256k1Priv)

// KeySize is the size of a secp256k1 private scalar.
const KeySize = 32

var tagSize = varint.UvarintSize(Code)
var size = tagSize + KeySize

type ChipSigner struct {
	priv *secp256k1.PrivateKey
}

// Generate creates a signer with a fresh random key.
func Generate() (*ChipSigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating secp256k1 key: %s", err)
	}
	return &ChipSigner{priv: priv}, nil
}

// FromBytes creates a signer from a raw 32 byte private scalar.
func FromBytes(b []byte) (*ChipSigner, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), KeySize)
	}
	return &ChipSigner{priv: secp256k1.PrivKeyFromBytes(b)}, nil
}

// Decode decodes a multicodec tagged private key, the inverse of Encode.
func Decode(b []byte) (*ChipSigner, error) {
	if len(b) != size {
		return nil, fmt.Errorf("invalid length: %d wanted: %d", len(b), size)
	}
	code, err := varint.ReadUvarint(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("reading private key codec: %s", err)
	}
	if code != Code {
		return nil, fmt.Errorf("invalid private key codec: %d", code)
	}
	return FromBytes(b[tagSize:])
}

// Parse decodes a multibase encoded, multicodec tagged private key, the
// inverse of String.
func Parse(s string) (*ChipSigner, error) {
	_, b, err := multibase.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decoding multibase string: %s", err)
	}
	return Decode(b)
}

// Sign produces the DER encoded ECDSA signature a genuine chip would emit for
// a claim by sender during the round that published beaconSig.
func (s *ChipSigner) Sign(beaconSig []byte, sender []byte) []byte {
	digest := sha256.Sum256(chip.Message(sender, beaconSig))
	return ecdsa.Sign(s.priv, digest[:]).Serialize()
}

// PublicKey returns the verifying half of the chip key.
func (s *ChipSigner) PublicKey() chip.PublicKey {
	k, _ := chip.ParseKey(s.priv.PubKey().SerializeCompressed())
	return k
}

// Encode returns the multicodec tagged private key bytes.
func (s *ChipSigner) Encode() []byte {
	b := make([]byte, size)
	varint.PutUvarint(b, Code)
	copy(b[tagSize:], s.priv.Serialize())
	return b
}

func (s *ChipSigner) String() string {
	str, _ := multibase.Encode(multibase.Base58BTC, s.Encode())
	return str
}
