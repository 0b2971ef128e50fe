package beacon

import (
	"encoding/hex"
	"fmt"

	"github.com/drand/kyber"
	bls12381 "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/sign"
	"github.com/drand/kyber/sign/bls"
)

// DefaultPublicKeyHex is the 48 byte BLS12-381 G1 public key of the default
// (League of Entropy mainnet) beacon network.
const DefaultPublicKeyHex = "868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31"

// PublicKeySize is the size of a compressed G1 public key.
const PublicKeySize = 48

// SignatureSize is the size of a compressed G2 round signature.
const SignatureSize = 96

var suite = bls12381.NewBLS12381Suite()

var defaultPublicKey kyber.Point

func init() {
	b, err := hex.DecodeString(DefaultPublicKeyHex)
	if err != nil {
		panic(fmt.Errorf("decoding default beacon public key: %w", err))
	}
	p := suite.G1().Point()
	if err := p.UnmarshalBinary(b); err != nil {
		panic(fmt.Errorf("unmarshaling default beacon public key: %w", err))
	}
	defaultPublicKey = p
}

// Verifier verifies that a round signature is the beacon's canonical output
// for that round.
type Verifier interface {
	// VerifyBeacon reports whether sig is a valid signature for the round,
	// chained to the previous round's signature.
	VerifyBeacon(round uint64, sig []byte, prevSig []byte) bool
}

// Scheme returns the signature scheme beacon networks sign rounds with:
// BLS12-381 with public keys on G1 and signatures on G2 (the minimal public
// key variant).
func Scheme() sign.Scheme {
	return bls.NewSchemeOnG2(suite)
}

type verifier struct {
	scheme sign.Scheme
	pub    kyber.Point
}

// NewVerifier creates a Verifier for the default beacon network.
func NewVerifier() Verifier {
	return &verifier{scheme: Scheme(), pub: defaultPublicKey}
}

// NewVerifierFromKey creates a Verifier for a beacon network with the given
// compressed G1 public key.
func NewVerifierFromKey(publicKey []byte) (Verifier, error) {
	if len(publicKey) != PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: %d wanted: %d", len(publicKey), PublicKeySize)
	}
	p := suite.G1().Point()
	if err := p.UnmarshalBinary(publicKey); err != nil {
		return nil, fmt.Errorf("unmarshaling beacon public key: %s", err)
	}
	return &verifier{scheme: Scheme(), pub: p}, nil
}

func (v *verifier) VerifyBeacon(round uint64, sig []byte, prevSig []byte) bool {
	if round == 0 {
		return false
	}
	return v.scheme.Verify(v.pub, RoundDigest(prevSig, round), sig) == nil
}
