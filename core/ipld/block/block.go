package block

import "github.com/ipld/go-ipld-prime"

type Block interface {
	Link() ipld.Link
	Bytes() []byte
}

type block struct {
	link  ipld.Link
	bytes []byte
}

func (b *block) Link() ipld.Link {
	return b.link
}

func (b *block) Bytes() []byte {
	return b.bytes
}

// NewBlock creates a block from a link and the bytes the link addresses. No
// verification is performed that the bytes actually hash to the link.
func NewBlock(link ipld.Link, bytes []byte) Block {
	return &block{link, bytes}
}
