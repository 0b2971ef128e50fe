package fixtures

import (
	"crypto/sha256"
	"fmt"

	"github.com/drand/kyber"
	"github.com/drand/kyber/sign"
	"github.com/drand/kyber/util/random"

	"github.com/veriphys/go-pbt/beacon"
	"github.com/veriphys/go-pbt/chip/signer"
	"github.com/veriphys/go-pbt/pbt"
	"github.com/veriphys/go-pbt/testing/helpers"
)

// Beacon is a synthetic drand network: a generated BLS keypair producing a
// chain of round signatures that verify against its public key. It lets
// lifecycle tests exercise real pairing verification without talking to an
// actual beacon.
type Beacon struct {
	scheme      sign.Scheme
	priv        kyber.Scalar
	PublicKey   []byte
	genesisSeed []byte
	sigs        map[uint64][]byte
}

func NewBeacon() *Beacon {
	scheme := beacon.Scheme()
	priv, pub := scheme.NewKeyPair(random.New())
	pk := helpers.Must(pub.MarshalBinary())
	seed := sha256.Sum256(pk)
	return &Beacon{
		scheme:      scheme,
		priv:        priv,
		PublicKey:   pk,
		genesisSeed: seed[:],
		sigs:        map[uint64][]byte{},
	}
}

// Round returns the signature for a round and the previous round's signature
// it chains from. Round 1 chains from the network's genesis seed.
func (b *Beacon) Round(round uint64) (sig []byte, prevSig []byte) {
	if round == 0 {
		panic("beacon rounds start at 1")
	}
	prevSig = b.genesisSeed
	for r := uint64(1); r <= round; r++ {
		s, ok := b.sigs[r]
		if !ok {
			var err error
			s, err = b.scheme.Sign(b.priv, beacon.RoundDigest(prevSig, r))
			if err != nil {
				panic(fmt.Errorf("signing beacon round %d: %w", r, err))
			}
			b.sigs[r] = s
		}
		if r == round {
			return s, prevSig
		}
		prevSig = s
	}
	panic("unreachable")
}

// Verifier returns a beacon verifier trusting this network's public key.
func (b *Beacon) Verifier() beacon.Verifier {
	return helpers.Must(beacon.NewVerifierFromKey(b.PublicKey))
}

// SignatureBundle assembles the proof material a caller would submit: this
// network's output for the round and the chip's signature over the caller
// and that output.
func (b *Beacon) SignatureBundle(round uint64, chipSigner *signer.ChipSigner, sender pbt.Address) pbt.SignatureBundle {
	sig, prevSig := b.Round(round)
	return pbt.SignatureBundle{
		ChipSignature:       chipSigner.Sign(sig, sender),
		BeaconSignature:     sig,
		PrevBeaconSignature: prevSig,
		Round:               round,
	}
}
