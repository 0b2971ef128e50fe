package signer_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veriphys/go-pbt/chip/signer"
)

func TestGenerate(t *testing.T) {
	s, err := signer.Generate()
	require.NoError(t, err)
	require.Len(t, s.PublicKey().Bytes(), 33)
}

func TestFromBytesDeterministic(t *testing.T) {
	seed := sha256.Sum256([]byte("determinism"))
	a, err := signer.FromBytes(seed[:])
	require.NoError(t, err)
	b, err := signer.FromBytes(seed[:])
	require.NoError(t, err)
	require.Equal(t, a.PublicKey().Bytes(), b.PublicKey().Bytes())

	_, err = signer.FromBytes(seed[:16])
	require.Error(t, err)
}

func TestEncodeRoundtrip(t *testing.T) {
	s, err := signer.Generate()
	require.NoError(t, err)

	decoded, err := signer.Decode(s.Encode())
	require.NoError(t, err)
	require.Equal(t, s.PublicKey().Bytes(), decoded.PublicKey().Bytes())

	parsed, err := signer.Parse(s.String())
	require.NoError(t, err)
	require.Equal(t, s.PublicKey().Bytes(), parsed.PublicKey().Bytes())
}

func TestSignaturesVerify(t *testing.T) {
	s, err := signer.Generate()
	require.NoError(t, err)

	beaconSig := []byte("not really a beacon signature")
	sender := []byte("sender address")
	require.True(t, s.PublicKey().Verify(s.Sign(beaconSig, sender), beaconSig, sender))
}
