package storage

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/blkchain/xcoin/xcoin"
)

// The wire format here follows the same hand-rolled little-endian +
// varint convention xcoin uses for block/tx serialisation, rather than
// a generic encoding like gob: these records are written by one
// process and read back by the same code, so there's no interop
// requirement pulling towards a heavier codec.

func writeDiskPos(w io.Writer, p DiskPos) error {
	if err := binary.Write(w, binary.LittleEndian, p.File); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, p.Pos)
}

func readDiskPos(r io.Reader) (DiskPos, error) {
	var p DiskPos
	if err := binary.Read(r, binary.LittleEndian, &p.File); err != nil {
		return p, err
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Pos); err != nil {
		return p, err
	}
	return p, nil
}

func MarshalTxIndexEntry(e *TxIndexEntry) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(e.BlockHash[:]); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, e.Height); err != nil {
		return nil, err
	}
	if err := writeDiskPos(buf, e.Pos); err != nil {
		return nil, err
	}
	if err := xcoin.WriteVarInt(uint64(len(e.Spent)), buf); err != nil {
		return nil, err
	}
	for _, s := range e.Spent {
		if s == nil {
			if _, err := buf.Write([]byte{0}); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := buf.Write([]byte{1}); err != nil {
			return nil, err
		}
		if err := writeDiskPos(buf, *s); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func UnmarshalTxIndexEntry(b []byte) (*TxIndexEntry, error) {
	r := bytes.NewReader(b)
	e := &TxIndexEntry{}
	if _, err := io.ReadFull(r, e.BlockHash[:]); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &e.Height); err != nil {
		return nil, err
	}
	pos, err := readDiskPos(r)
	if err != nil {
		return nil, err
	}
	e.Pos = pos
	n, err := xcoin.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	e.Spent = make([]*DiskPos, n)
	for i := range e.Spent {
		var marker [1]byte
		if _, err := io.ReadFull(r, marker[:]); err != nil {
			return nil, err
		}
		if marker[0] == 0 {
			continue
		}
		sp, err := readDiskPos(r)
		if err != nil {
			return nil, err
		}
		e.Spent[i] = &sp
	}
	return e, nil
}

func MarshalDiskBlockIndex(idx *DiskBlockIndex) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(idx.Hash[:]); err != nil {
		return nil, err
	}
	if _, err := buf.Write(idx.ParentHash[:]); err != nil {
		return nil, err
	}
	if err := xcoin.BinWrite(&idx.Header, buf); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, idx.Height); err != nil {
		return nil, err
	}
	if err := xcoin.WriteVarInt(uint64(len(idx.ChainWork)), buf); err != nil {
		return nil, err
	}
	if _, err := buf.Write(idx.ChainWork); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, idx.Status); err != nil {
		return nil, err
	}
	if err := writeDiskPos(buf, idx.Pos); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalDiskBlockIndex(b []byte) (*DiskBlockIndex, error) {
	r := bytes.NewReader(b)
	idx := &DiskBlockIndex{}
	if _, err := io.ReadFull(r, idx.Hash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, idx.ParentHash[:]); err != nil {
		return nil, err
	}
	if err := xcoin.BinRead(&idx.Header, r); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &idx.Height); err != nil {
		return nil, err
	}
	n, err := xcoin.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	idx.ChainWork = make([]byte, n)
	if _, err := io.ReadFull(r, idx.ChainWork); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &idx.Status); err != nil {
		return nil, err
	}
	pos, err := readDiskPos(r)
	if err != nil {
		return nil, err
	}
	idx.Pos = pos
	return idx, nil
}
