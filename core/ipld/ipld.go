package ipld

import (
	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
	"github.com/multiformats/go-multihash"

	"github.com/veriphys/go-pbt/core/ipld/block"
	"github.com/veriphys/go-pbt/core/ipld/codec/cbor"
)

type Link = ipld.Link
type Node = ipld.Node
type Block = block.Block

// EncodeBlock encodes a Go value bound to an IPLD schema type as dag-cbor and
// returns the content-addressed block (CIDv1, dag-cbor, sha2-256).
func EncodeBlock(val any, typ schema.Type, opts ...bindnode.Option) (Block, error) {
	b, err := cbor.Encode(val, typ, opts...)
	if err != nil {
		return nil, err
	}
	c, err := cid.Prefix{
		Version:  1,
		Codec:    cbor.Code,
		MhType:   multihash.SHA2_256,
		MhLength: -1,
	}.Sum(b)
	if err != nil {
		return nil, err
	}
	return block.NewBlock(cidlink.Link{Cid: c}, b), nil
}
