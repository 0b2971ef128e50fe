// Package snapshot exports the mint archive and live tokens as a CAR (content
// addressable archive) and imports them back, for audit and backup. Every
// entry and token becomes a dag-cbor block; the root block links them all, so
// a snapshot is integrity checked end to end by its root CID.
package snapshot

import (
	"bufio"
	"context"
	"fmt"
	"io"

	cbor "github.com/ipfs/go-ipld-cbor"
	"github.com/ipld/go-car/util"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/schema"

	"github.com/veriphys/go-pbt/archive"
	"github.com/veriphys/go-pbt/core/ipld"
	cborcodec "github.com/veriphys/go-pbt/core/ipld/codec/cbor"
	"github.com/veriphys/go-pbt/core/iterable"
	"github.com/veriphys/go-pbt/pbt"
	tdm "github.com/veriphys/go-pbt/pbt/datamodel"
	sdm "github.com/veriphys/go-pbt/snapshot/datamodel"
)

// ContentType is the value the HTTP Content-Type header should have for CARs.
// See https://www.iana.org/assignments/media-types/application/vnd.ipld.car
const ContentType = "application/vnd.ipld.car"

func init() {
	cbor.RegisterCborType(carHeader{})
}

type carHeader struct {
	Roots   []ipld.Link
	Version uint64
}

func decode(b []byte, bind any, typ schema.Type) error {
	return cborcodec.Decode(b, bind, typ)
}

// Snapshot is the materialized content of an exported archive.
type Snapshot struct {
	Entries []archive.Entry
	Tokens  []*pbt.Token
}

// Export encodes the archive's entries and the given tokens as a CARv1
// stream. Blocks are written bottom up: leaves first, root last.
func Export(ctx context.Context, store archive.Store, tokens []*pbt.Token) (io.Reader, error) {
	it, err := store.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("iterating archive entries: %w", err)
	}
	entries, err := iterable.Collect(it)
	if err != nil {
		return nil, fmt.Errorf("collecting archive entries: %w", err)
	}

	var blocks []ipld.Block
	root := sdm.SnapshotModel{}

	for _, e := range entries {
		mdl := sdm.EntryModel{ChipKey: e.Key, Status: int64(e.Status)}
		blk, err := ipld.EncodeBlock(&mdl, sdm.EntryType())
		if err != nil {
			return nil, fmt.Errorf("encoding archive entry: %w", err)
		}
		blocks = append(blocks, blk)
		root.Entries = append(root.Entries, blk.Link())
	}

	for _, t := range tokens {
		record := t.Record()
		recBlk, err := ipld.EncodeBlock(&record, tdm.TokenType())
		if err != nil {
			return nil, fmt.Errorf("encoding mint record: %w", err)
		}
		state := sdm.StateModel{Token: recBlk.Link(), ChipKey: t.ChipKey(), Owner: t.Owner()}
		stateBlk, err := ipld.EncodeBlock(&state, sdm.StateType())
		if err != nil {
			return nil, fmt.Errorf("encoding token state: %w", err)
		}
		blocks = append(blocks, recBlk, stateBlk)
		root.States = append(root.States, stateBlk.Link())
	}

	rootBlk, err := ipld.EncodeBlock(&root, sdm.SnapshotType())
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot root: %w", err)
	}
	blocks = append(blocks, rootBlk)

	reader, writer := io.Pipe()
	go func() {
		h := carHeader{Roots: []ipld.Link{rootBlk.Link()}, Version: 1}
		hb, err := cbor.DumpObject(h)
		if err != nil {
			writer.CloseWithError(fmt.Errorf("writing CAR header: %s", err))
			return
		}
		util.LdWrite(writer, hb)
		for _, blk := range blocks {
			util.LdWrite(writer, []byte(blk.Link().Binary()), blk.Bytes())
		}
		writer.Close()
	}()
	return reader, nil
}

// Import decodes a CAR stream produced by Export, verifying every block
// against its CID.
func Import(reader io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(reader)

	hb, err := util.LdRead(br)
	if err != nil {
		return nil, err
	}
	var h carHeader
	if err := cbor.DecodeInto(hb, &h); err != nil {
		return nil, fmt.Errorf("invalid header: %v", err)
	}
	if h.Version != 1 {
		return nil, fmt.Errorf("invalid car version: %d", h.Version)
	}
	if len(h.Roots) != 1 {
		return nil, fmt.Errorf("expected a single root, got: %d", len(h.Roots))
	}

	byLink := map[string][]byte{}
	for {
		c, data, err := util.ReadNode(br)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		hashed, err := c.Prefix().Sum(data)
		if err != nil {
			return nil, err
		}
		if !hashed.Equals(c) {
			return nil, fmt.Errorf("mismatch in content integrity, name: %s, data: %s", c, hashed)
		}
		byLink[cidlink.Link{Cid: c}.String()] = data
	}

	lookup := func(l ipld.Link) ([]byte, error) {
		data, ok := byLink[l.String()]
		if !ok {
			return nil, fmt.Errorf("missing block: %s", l)
		}
		return data, nil
	}

	rootBytes, err := lookup(h.Roots[0])
	if err != nil {
		return nil, err
	}
	var root sdm.SnapshotModel
	if err := decode(rootBytes, &root, sdm.SnapshotType()); err != nil {
		return nil, fmt.Errorf("decoding snapshot root: %w", err)
	}

	snap := Snapshot{}
	for _, l := range root.Entries {
		data, err := lookup(l)
		if err != nil {
			return nil, err
		}
		var mdl sdm.EntryModel
		if err := decode(data, &mdl, sdm.EntryType()); err != nil {
			return nil, fmt.Errorf("decoding archive entry: %w", err)
		}
		if mdl.Status < 0 || mdl.Status > int64(archive.Minted) {
			return nil, fmt.Errorf("archive entry holds invalid status: %d", mdl.Status)
		}
		snap.Entries = append(snap.Entries, archive.Entry{Key: mdl.ChipKey, Status: archive.Status(mdl.Status)})
	}
	for _, l := range root.States {
		data, err := lookup(l)
		if err != nil {
			return nil, err
		}
		var state sdm.StateModel
		if err := decode(data, &state, sdm.StateType()); err != nil {
			return nil, fmt.Errorf("decoding token state: %w", err)
		}
		recBytes, err := lookup(state.Token)
		if err != nil {
			return nil, err
		}
		var record tdm.TokenModel
		if err := decode(recBytes, &record, tdm.TokenType()); err != nil {
			return nil, fmt.Errorf("decoding mint record: %w", err)
		}
		token, err := pbt.RebuildToken(record, state.ChipKey, pbt.Address(state.Owner))
		if err != nil {
			return nil, err
		}
		snap.Tokens = append(snap.Tokens, token)
	}
	return &snap, nil
}

// Restore provisions an empty archive store with the snapshot's entries and
// their statuses. Requires the store's admin capability.
func (s *Snapshot) Restore(ctx context.Context, store archive.Store, cap *archive.AdminCapability) error {
	for _, e := range s.Entries {
		if err := store.AddEntry(ctx, cap, e.Key); err != nil {
			return err
		}
		if e.Status != archive.NotMinted {
			if err := store.SetStatus(ctx, e.Key, e.Status); err != nil {
				return err
			}
		}
	}
	return nil
}
