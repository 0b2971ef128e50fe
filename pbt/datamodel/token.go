package datamodel

import (
	// to use go:embed
	_ "embed"
	"fmt"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/schema"
)

//go:embed token.ipldsch
var tokenSchema []byte

// MetadataModel is the persisted form of a token's descriptive metadata.
// Attribute keys and values are parallel sequences of equal length, paired
// positionally.
type MetadataModel struct {
	Name            string
	Description     string
	Url             string
	AnimationUrl    string
	ExternalUrl     string
	AttributeKeys   []string
	AttributeValues []string
}

// TokenModel is the mint record of a token: the chip key, recipient, beacon
// round and metadata captured at mint time. Its dag-cbor encoding is
// immutable and its CID is the token's identity.
type TokenModel struct {
	ChipKey         []byte
	Owner           []byte
	Round           int64
	BeaconSignature []byte
	Metadata        MetadataModel
}

var tokenTyp schema.Type
var metadataTyp schema.Type

func init() {
	ts, err := ipld.LoadSchemaBytes(tokenSchema)
	if err != nil {
		panic(fmt.Errorf("loading token schema: %w", err))
	}
	tokenTyp = ts.TypeByName("Token")
	metadataTyp = ts.TypeByName("Metadata")
}

func TokenType() schema.Type {
	return tokenTyp
}

func MetadataType() schema.Type {
	return metadataTyp
}

func Schema() []byte {
	return tokenSchema
}
