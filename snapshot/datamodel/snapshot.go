package datamodel

import (
	// to use go:embed
	_ "embed"
	"fmt"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/schema"
)

//go:embed snapshot.ipldsch
var snapshotSchema []byte

// EntryModel is the persisted form of one archive entry.
type EntryModel struct {
	ChipKey []byte
	Status  int64
}

// StateModel captures the mutable state of a token - its current chip
// binding and owner - linking the immutable mint record it derives from.
type StateModel struct {
	Token   datamodel.Link
	ChipKey []byte
	Owner   []byte
}

// SnapshotModel is the snapshot root, linking every archive entry and token
// state block.
type SnapshotModel struct {
	Entries []datamodel.Link
	States  []datamodel.Link
}

var entryTyp schema.Type
var stateTyp schema.Type
var snapshotTyp schema.Type

func init() {
	ts, err := ipld.LoadSchemaBytes(snapshotSchema)
	if err != nil {
		panic(fmt.Errorf("loading snapshot schema: %w", err))
	}
	entryTyp = ts.TypeByName("Entry")
	stateTyp = ts.TypeByName("State")
	snapshotTyp = ts.TypeByName("Snapshot")
}

func EntryType() schema.Type {
	return entryTyp
}

func StateType() schema.Type {
	return stateTyp
}

func SnapshotType() schema.Type {
	return snapshotTyp
}

func Schema() []byte {
	return snapshotSchema
}
