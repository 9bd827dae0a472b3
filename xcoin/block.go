package xcoin

import (
	"bytes"
	"fmt"
	"io"
)

const (
	MainNetMagic = 0xd9b4bef9
	TestNetMagic = 0x0709110b
)

type Block struct {
	Magic uint32
	*BlockHeader
	Txs TxList
}

func (b *Block) BaseSize() int {
	return b.BlockHeader.Size() + b.Txs.BaseSize()
}

func (b *Block) Size() int {
	return b.BlockHeader.Size() + b.Txs.Size()
}

func (b *Block) Weight() int {
	return b.BaseSize()*3 + b.Size()
}

func (b *Block) VirtualSize() int {
	return b.BlockHeader.Size() + b.Txs.VirtualSize()
}

func (b *Block) BinRead(r io.Reader) error {
	m, err := readMagic(r)
	if err != nil {
		return err
	}

	if b.Magic > 0 && b.Magic != m {
		return fmt.Errorf("Bad magic: %d", m)
	}

	var size uint32
	err = BinRead(&size, r)
	if err != nil {
		return err
	}

	var bh BlockHeader
	err = BinRead(&bh, r)
	if err != nil {
		return err
	}
	b.BlockHeader = &bh

	err = BinRead(&b.Txs, r)
	if err != nil {
		return err
	}
	return nil
}

// Hash returns the block's identity: the double-SHA-256 hash of its
// 80-byte header, irrespective of the transaction list's contents.
func (b *Block) Hash() Uint256 {
	return b.BlockHeader.Hash()
}

func (b *Block) BinWrite(w io.Writer) error {
	if b.Magic != 0 {
		if err := BinWrite(b.Magic, w); err != nil {
			return err
		}
	}
	buf := new(bytes.Buffer)
	if err := BinWrite(b.BlockHeader, buf); err != nil {
		return err
	}
	if err := writeList(buf, len(b.Txs), func(w io.Writer, i int) error {
		return BinWrite(b.Txs[i], w)
	}); err != nil {
		return err
	}
	if err := BinWrite(uint32(buf.Len()), w); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// MerkleRoot recomputes the merkle root of the block's transaction
// list from their txids, for verification against HashMerkleRoot.
func (b *Block) MerkleRoot() Uint256 {
	if len(b.Txs) == 0 {
		return Uint256{}
	}
	level := make([]Uint256, len(b.Txs))
	for i, tx := range b.Txs {
		level[i] = tx.Hash()
	}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Uint256, len(level)/2)
		for i := range next {
			buf := make([]byte, 64)
			copy(buf[:32], level[2*i][:])
			copy(buf[32:], level[2*i+1][:])
			next[i] = ShaSha256(buf)
		}
		level = next
	}
	return level[0]
}
