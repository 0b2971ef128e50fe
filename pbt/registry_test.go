package pbt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veriphys/go-pbt/archive"
	"github.com/veriphys/go-pbt/beacon"
	"github.com/veriphys/go-pbt/chip/signer"
	"github.com/veriphys/go-pbt/pbt"
	"github.com/veriphys/go-pbt/testing/fixtures"
	"github.com/veriphys/go-pbt/testing/helpers"
)

const testRound = uint64(42)

// clockAt pins a registry clock to the given offset past a round's time, so
// freshness checks are deterministic.
func clockAt(round uint64, offsetMillis uint64) func() time.Time {
	ms := helpers.Must(beacon.TimeOfRound(round)) + offsetMillis
	return func() time.Time {
		return time.UnixMilli(int64(ms))
	}
}

type env struct {
	network  *fixtures.Beacon
	store    archive.Store
	cap      *archive.AdminCapability
	registry *pbt.Registry
}

func newEnv(t *testing.T, opts ...pbt.Option) *env {
	t.Helper()
	network := fixtures.NewBeacon()
	store, cap := archive.NewMemoryStore()
	opts = append([]pbt.Option{
		pbt.WithBeaconVerifier(network.Verifier()),
		pbt.WithClock(clockAt(testRound, 0)),
	}, opts...)
	registry := helpers.Must(pbt.NewRegistry(store, opts...))
	return &env{network: network, store: store, cap: cap, registry: registry}
}

func (e *env) provision(t *testing.T, chipSigner *signer.ChipSigner) []byte {
	t.Helper()
	key := chipSigner.PublicKey().Bytes()
	require.NoError(t, e.registry.AdminAddToArchive(context.Background(), e.cap, key))
	return key
}

func (e *env) mint(t *testing.T, chipSigner *signer.ChipSigner, owner pbt.Address) *pbt.Token {
	t.Helper()
	bundle := e.network.SignatureBundle(testRound, chipSigner, owner)
	token, err := e.registry.Mint(context.Background(), bundle, chipSigner.PublicKey().Bytes(), owner, metadata())
	require.NoError(t, err)
	return token
}

func metadata() pbt.Metadata {
	return pbt.Metadata{
		Name:            "Runner No. 7",
		Description:     "Limited edition sneaker",
		URL:             "ipfs://bafyfoo/runner-7.json",
		AttributeKeys:   []string{"size", "colorway"},
		AttributeValues: []string{"42", "obsidian"},
	}
}

func TestMint(t *testing.T) {
	ctx := context.Background()

	t.Run("archived key mints once", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)

		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)
		require.NotNil(t, token.ID())
		require.Equal(t, key, token.ChipKey())
		require.Equal(t, fixtures.Alice, token.Owner())
		require.Equal(t, metadata(), token.Metadata())

		status, err := e.store.GetStatus(ctx, key)
		require.NoError(t, err)
		require.Equal(t, archive.Minted, status)
	})

	t.Run("unarchived key cannot mint even with valid signatures", func(t *testing.T) {
		e := newEnv(t)
		bundle := e.network.SignatureBundle(testRound, fixtures.StrayChip, fixtures.Alice)

		_, err := e.registry.Mint(ctx, bundle, fixtures.StrayChip.PublicKey().Bytes(), fixtures.Alice, metadata())
		var mee archive.MissingEntryError
		require.ErrorAs(t, err, &mee)
	})

	t.Run("second mint for the same chip is rejected", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)
		e.mint(t, fixtures.AliceChip, fixtures.Alice)

		// a fresh, fully valid bundle from another party changes nothing
		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Bob)
		_, err := e.registry.Mint(ctx, bundle, key, fixtures.Bob, metadata())
		var aame pbt.ArtifactAlreadyMintedError
		require.ErrorAs(t, err, &aame)
		require.Equal(t, key, aame.Key())
	})

	t.Run("chip signature is bound to the caller", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)

		// Mallory replays Alice's bundle under her own address
		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		_, err := e.registry.Mint(ctx, bundle, key, fixtures.Mallory, metadata())
		var ise pbt.InvalidSignatureError
		require.ErrorAs(t, err, &ise)
		require.Equal(t, "InvalidSignature", ise.Name())

		// the archive entry stays mintable
		status, serr := e.store.GetStatus(ctx, key)
		require.NoError(t, serr)
		require.Equal(t, archive.NotMinted, status)
	})

	t.Run("wrong chip signs for the archived key", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)

		bundle := e.network.SignatureBundle(testRound, fixtures.BobChip, fixtures.Alice)
		_, err := e.registry.Mint(ctx, bundle, key, fixtures.Alice, metadata())
		var ise pbt.InvalidSignatureError
		require.ErrorAs(t, err, &ise)
	})

	t.Run("tampered beacon signature is rejected", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)

		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		bundle.BeaconSignature[0] ^= 0xff
		_, err := e.registry.Mint(ctx, bundle, key, fixtures.Alice, metadata())
		var ise pbt.InvalidSignatureError
		require.ErrorAs(t, err, &ise)
	})

	t.Run("stale round is rejected before signature checks", func(t *testing.T) {
		e := newEnv(t, pbt.WithClock(clockAt(testRound, beacon.TTLMillis+1)))
		key := e.provision(t, fixtures.AliceChip)

		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		_, err := e.registry.Mint(ctx, bundle, key, fixtures.Alice, metadata())
		var see pbt.SignatureExpiredError
		require.ErrorAs(t, err, &see)
		require.Equal(t, testRound, see.Round())
	})

	t.Run("round at the freshness boundary is accepted", func(t *testing.T) {
		e := newEnv(t, pbt.WithClock(clockAt(testRound, beacon.TTLMillis)))
		e.provision(t, fixtures.AliceChip)
		e.mint(t, fixtures.AliceChip, fixtures.Alice)
	})

	t.Run("round 0 is rejected", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)

		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		bundle.Round = 0
		_, err := e.registry.Mint(ctx, bundle, key, fixtures.Alice, metadata())
		var ire beacon.InvalidRoundError
		require.ErrorAs(t, err, &ire)
	})

	t.Run("malformed metadata is rejected before anything else", func(t *testing.T) {
		e := newEnv(t)
		key := e.provision(t, fixtures.AliceChip)

		meta := metadata()
		meta.AttributeValues = meta.AttributeValues[:1]
		_, err := e.registry.Mint(ctx, pbt.SignatureBundle{}, key, fixtures.Alice, meta)
		var mme pbt.MalformedMetadataError
		require.ErrorAs(t, err, &mme)
	})

	t.Run("garbage chip key is rejected", func(t *testing.T) {
		e := newEnv(t)
		bad := make([]byte, 33)
		bad[0] = 0x05
		_, err := e.registry.Mint(ctx, pbt.SignatureBundle{}, bad, fixtures.Alice, metadata())
		require.Error(t, err)
	})

	t.Run("identical mint records yield identical identities", func(t *testing.T) {
		a := newEnv(t)
		a.provision(t, fixtures.AliceChip)
		first := a.mint(t, fixtures.AliceChip, fixtures.Alice)

		b := newEnv(t)
		b.network = a.network
		b.registry = helpers.Must(pbt.NewRegistry(b.store,
			pbt.WithBeaconVerifier(a.network.Verifier()),
			pbt.WithClock(clockAt(testRound, 0)),
		))
		b.provision(t, fixtures.AliceChip)
		second := b.mint(t, fixtures.AliceChip, fixtures.Alice)

		require.Equal(t, first.ID().String(), second.ID().String())
	})
}

func TestTransferOwnership(t *testing.T) {
	ctx := context.Background()

	t.Run("owner transfers with chip present", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)
		id := token.ID()

		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		require.NoError(t, e.registry.TransferOwnership(ctx, bundle, token, fixtures.Alice, fixtures.Bob))
		require.Equal(t, fixtures.Bob, token.Owner())

		// identity and chip binding survive the transfer
		require.Equal(t, id.String(), token.ID().String())
		require.Equal(t, fixtures.AliceChip.PublicKey().Bytes(), token.ChipKey())
	})

	t.Run("transfer to current owner is rejected before crypto", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		// a completely empty bundle never reaches verification
		err := e.registry.TransferOwnership(ctx, pbt.SignatureBundle{}, token, fixtures.Alice, fixtures.Alice)
		var tnae pbt.TransferNotAllowedError
		require.ErrorAs(t, err, &tnae)
		require.Equal(t, fixtures.Alice, token.Owner())
	})

	t.Run("chip signature must cover the caller", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		err := e.registry.TransferOwnership(ctx, bundle, token, fixtures.Mallory, fixtures.Bob)
		var ise pbt.InvalidSignatureError
		require.ErrorAs(t, err, &ise)
		require.Equal(t, fixtures.Alice, token.Owner())
	})

	t.Run("stale round blocks the transfer", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		staleRound := testRound - 10
		bundle := e.network.SignatureBundle(staleRound, fixtures.AliceChip, fixtures.Alice)
		err := e.registry.TransferOwnership(ctx, bundle, token, fixtures.Alice, fixtures.Bob)
		var see pbt.SignatureExpiredError
		require.ErrorAs(t, err, &see)
	})

	t.Run("transfer chains through successive owners", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		bundle := e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Alice)
		require.NoError(t, e.registry.TransferOwnership(ctx, bundle, token, fixtures.Alice, fixtures.Bob))

		bundle = e.network.SignatureBundle(testRound, fixtures.AliceChip, fixtures.Bob)
		require.NoError(t, e.registry.TransferOwnership(ctx, bundle, token, fixtures.Bob, fixtures.Mallory))
		require.Equal(t, fixtures.Mallory, token.Owner())
	})
}

func TestUpdateChipKey(t *testing.T) {
	ctx := context.Background()

	t.Run("rebind moves the minted marker", func(t *testing.T) {
		e := newEnv(t)
		oldKey := e.provision(t, fixtures.AliceChip)
		newKey := e.provision(t, fixtures.BobChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)
		id := token.ID()

		bundle := e.network.SignatureBundle(testRound, fixtures.BobChip, fixtures.Alice)
		require.NoError(t, e.registry.UpdateChipKey(ctx, bundle, newKey, token))

		require.Equal(t, newKey, token.ChipKey())
		require.Equal(t, id.String(), token.ID().String())

		// old entry is gone, new entry carries the minted marker
		exists, err := e.store.Exists(ctx, oldKey)
		require.NoError(t, err)
		require.False(t, exists)
		status, err := e.store.GetStatus(ctx, newKey)
		require.NoError(t, err)
		require.Equal(t, archive.Minted, status)
	})

	t.Run("rebind onto an unarchived key is rejected", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		stray := fixtures.StrayChip.PublicKey().Bytes()
		bundle := e.network.SignatureBundle(testRound, fixtures.StrayChip, fixtures.Alice)
		err := e.registry.UpdateChipKey(ctx, bundle, stray, token)
		var uae pbt.UnknownArtifactError
		require.ErrorAs(t, err, &uae)
		require.Equal(t, stray, uae.Key())
	})

	t.Run("rebind onto a minted key is rejected", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		mintedKey := e.provision(t, fixtures.BobChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)
		e.mint(t, fixtures.BobChip, fixtures.Bob)

		bundle := e.network.SignatureBundle(testRound, fixtures.BobChip, fixtures.Alice)
		err := e.registry.UpdateChipKey(ctx, bundle, mintedKey, token)
		var aame pbt.ArtifactAlreadyMintedError
		require.ErrorAs(t, err, &aame)
		require.Equal(t, fixtures.AliceChip.PublicKey().Bytes(), token.ChipKey())
	})

	t.Run("new chip must sign for the token owner", func(t *testing.T) {
		e := newEnv(t)
		oldKey := e.provision(t, fixtures.AliceChip)
		newKey := e.provision(t, fixtures.BobChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		// chip signs for Mallory, not the owner
		bundle := e.network.SignatureBundle(testRound, fixtures.BobChip, fixtures.Mallory)
		err := e.registry.UpdateChipKey(ctx, bundle, newKey, token)
		var ise pbt.InvalidSignatureError
		require.ErrorAs(t, err, &ise)

		// archive unchanged on failure
		status, serr := e.store.GetStatus(ctx, oldKey)
		require.NoError(t, serr)
		require.Equal(t, archive.Minted, status)
		status, serr = e.store.GetStatus(ctx, newKey)
		require.NoError(t, serr)
		require.Equal(t, archive.NotMinted, status)
	})

	t.Run("old key becomes mintable again after rebind", func(t *testing.T) {
		e := newEnv(t)
		e.provision(t, fixtures.AliceChip)
		newKey := e.provision(t, fixtures.BobChip)
		token := e.mint(t, fixtures.AliceChip, fixtures.Alice)

		bundle := e.network.SignatureBundle(testRound, fixtures.BobChip, fixtures.Alice)
		require.NoError(t, e.registry.UpdateChipKey(ctx, bundle, newKey, token))

		// re-provision the released key and mint a fresh token with it
		e.provision(t, fixtures.AliceChip)
		e.mint(t, fixtures.AliceChip, fixtures.Mallory)
	})
}

func TestAdminAddToArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects malformed keys", func(t *testing.T) {
		e := newEnv(t)
		bad := make([]byte, 33)
		bad[0] = 0x05
		require.Error(t, e.registry.AdminAddToArchive(ctx, e.cap, bad))
		require.Error(t, e.registry.AdminAddToArchive(ctx, e.cap, nil))
	})

	t.Run("rejects a foreign capability", func(t *testing.T) {
		e := newEnv(t)
		_, foreignCap := archive.NewMemoryStore()
		err := e.registry.AdminAddToArchive(ctx, foreignCap, fixtures.AliceChip.PublicKey().Bytes())
		var ue archive.UnauthorizedError
		require.ErrorAs(t, err, &ue)
	})
}
