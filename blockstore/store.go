package blockstore

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/blkchain/xcoin/storage"
	"github.com/blkchain/xcoin/xcoin"
)

// Store appends newly-connected blocks to the rolling blk#####.dat
// file set and can read any previously written block back given the
// DiskPos a storage.Engine transaction recorded for it.
type Store struct {
	mu    sync.Mutex
	dir   string
	magic uint32
	wb    *writeBundle
}

// Open opens (or creates) a Store rooted at dir, appending to whatever
// file currently holds the highest index.
func Open(dir string, magic uint32) (*Store, error) {
	idx, err := highestExistingIndex(dir)
	if err != nil {
		return nil, err
	}
	wb, err := newWriteBundle(dir, idx)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, magic: magic, wb: wb}, nil
}

func highestExistingIndex(dir string) (int, error) {
	idx := 0
	for {
		fb, err := newReadBundle(dir, idx)
		if err != nil {
			break
		}
		fb.Close()
		idx++
	}
	if idx == 0 {
		return 0, nil
	}
	return idx - 1, nil
}

// Append writes b in its framed, magic-prefixed wire format and
// returns the DiskPos a storage.Tx should record for it. The position
// points at the first byte after the magic+length prefix, matching
// the convention IdxBlockHeader.DataPos uses, so a migrated Core
// datadir's recorded positions remain directly usable.
func (s *Store) Append(b *xcoin.Block) (storage.DiskPos, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.Magic = s.magic
	buf := make([]byte, 0, 1024)
	w := &sliceWriter{buf: buf}
	if err := b.BinWrite(w); err != nil {
		return storage.DiskPos{}, err
	}

	idx, posBefore, err := s.wb.Reserve(len(w.buf))
	if err != nil {
		return storage.DiskPos{}, err
	}
	if _, err := s.wb.Write(w.buf); err != nil {
		return storage.DiskPos{}, err
	}
	// header position = start of record + magic(4) + length(4)
	return storage.DiskPos{File: int32(idx), Pos: posBefore + 8}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wb.Close()
}

// ReadAt reads back the block whose header begins at pos, i.e. exactly
// what a storage.Tx recorded via Append/WriteBlockIndex.
func (s *Store) ReadAt(pos storage.DiskPos) (*xcoin.Block, error) {
	fb, err := newReadBundle(s.dir, int(pos.File))
	if err != nil {
		return nil, err
	}
	defer fb.Close()

	if _, err := fb.f.Seek(pos.Pos-8, io.SeekStart); err != nil {
		return nil, err
	}

	b := &xcoin.Block{Magic: s.magic}
	if err := b.BinRead(bufio.NewReader(fb.f)); err != nil {
		return nil, fmt.Errorf("reading block at file %d pos %d: %w", pos.File, pos.Pos, err)
	}
	return b, nil
}

// sliceWriter is a minimal io.Writer over a growable byte slice, used
// so Append can measure the exact record length before touching disk.
type sliceWriter struct{ buf []byte }

func (w *sliceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
