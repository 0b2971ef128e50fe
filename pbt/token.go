package pbt

import (
	"bytes"
	"fmt"

	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/veriphys/go-pbt/core/ipld"
	tdm "github.com/veriphys/go-pbt/pbt/datamodel"
)

// Metadata is the descriptive payload attached to a token at mint time. The
// protocol treats it as opaque beyond the structural requirement that
// attribute keys and values pair positionally.
type Metadata struct {
	Name            string
	Description     string
	URL             string
	AnimationURL    string
	ExternalURL     string
	AttributeKeys   []string
	AttributeValues []string
}

func (m Metadata) validate() error {
	if len(m.AttributeKeys) != len(m.AttributeValues) {
		return NewMalformedMetadataError(len(m.AttributeKeys), len(m.AttributeValues))
	}
	return nil
}

func (m Metadata) model() tdm.MetadataModel {
	return tdm.MetadataModel{
		Name:            m.Name,
		Description:     m.Description,
		Url:             m.URL,
		AnimationUrl:    m.AnimationURL,
		ExternalUrl:     m.ExternalURL,
		AttributeKeys:   m.AttributeKeys,
		AttributeValues: m.AttributeValues,
	}
}

func metadataFromModel(m tdm.MetadataModel) Metadata {
	return Metadata{
		Name:            m.Name,
		Description:     m.Description,
		URL:             m.Url,
		AnimationURL:    m.AnimationUrl,
		ExternalURL:     m.ExternalUrl,
		AttributeKeys:   m.AttributeKeys,
		AttributeValues: m.AttributeValues,
	}
}

// Token is a live ownership record bound to a physical chip. Its identity is
// the CID of its mint record, which never changes; the chip binding and the
// owner may change through UpdateChipKey and TransferOwnership.
type Token struct {
	id      datamodel.Link
	record  tdm.TokenModel
	chipKey []byte
	owner   Address
}

// ID is the token's identity: the CID of its dag-cbor mint record.
func (t *Token) ID() ipld.Link {
	return t.id
}

// ChipKey is the compressed public key of the chip the token is currently
// bound to.
func (t *Token) ChipKey() []byte {
	return bytes.Clone(t.chipKey)
}

// Owner is the address holding exclusive ownership of the token.
func (t *Token) Owner() Address {
	return bytes.Clone(t.owner)
}

// Metadata is the descriptive payload captured at mint time.
func (t *Token) Metadata() Metadata {
	return metadataFromModel(t.record.Metadata)
}

// Record returns the immutable mint record.
func (t *Token) Record() tdm.TokenModel {
	return t.record
}

// newToken derives a token identity from its mint record and returns the
// live token.
func newToken(record tdm.TokenModel) (*Token, error) {
	blk, err := ipld.EncodeBlock(&record, tdm.TokenType())
	if err != nil {
		return nil, fmt.Errorf("encoding mint record: %w", err)
	}
	return &Token{
		id:      blk.Link(),
		record:  record,
		chipKey: bytes.Clone(record.ChipKey),
		owner:   Address(bytes.Clone(record.Owner)),
	}, nil
}

// RebuildToken reconstitutes a token from a persisted mint record and its
// current chip binding and owner, re-deriving the identity from the record
// bytes. It is used when importing snapshots.
func RebuildToken(record tdm.TokenModel, chipKey []byte, owner Address) (*Token, error) {
	t, err := newToken(record)
	if err != nil {
		return nil, err
	}
	t.chipKey = bytes.Clone(chipKey)
	t.owner = Address(bytes.Clone(owner))
	return t, nil
}
