package fixtures

import (
	"crypto/sha256"

	"github.com/veriphys/go-pbt/chip/signer"
	"github.com/veriphys/go-pbt/pbt"
	"github.com/veriphys/go-pbt/testing/helpers"
)

func address(name string) pbt.Address {
	h := sha256.Sum256([]byte("go-pbt/fixtures/address/" + name))
	return pbt.Address(h[:])
}

func chipSigner(name string) *signer.ChipSigner {
	seed := sha256.Sum256([]byte("go-pbt/fixtures/chip/" + name))
	return helpers.Must(signer.FromBytes(seed[:]))
}

var Alice = address("alice")
var Bob = address("bob")
var Mallory = address("mallory")

// AliceChip and BobChip are deterministic chip emulators for artifacts owned
// by the respective fixtures.
var AliceChip = chipSigner("alice")
var BobChip = chipSigner("bob")

// StrayChip is a chip key no archive fixture provisions.
var StrayChip = chipSigner("stray")
