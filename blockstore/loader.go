package blockstore

import (
	"bufio"
	"errors"
	"io"
	"log"

	"github.com/blkchain/xcoin/xcoin"
)

// Load replays every block found in dir's blk#####.dat files, in file
// and then on-disk order, against accept. It is used once at process
// start to rebuild chainindex.ChainState from scratch when no
// storage.Engine block index is present yet (first run against a
// datadir populated only by a prior migration import), or to catch up
// any blocks written since the engine's last clean shutdown.
//
// A truncated final record — the signature of a crash mid-write — is
// not an error: Load stops reading a file as soon as it can't decode a
// full block there (logging the decode error) and goes on to the next
// file, on the assumption that whatever was flushed to the engine
// transaction is already the authoritative tip.
func Load(dir string, magic uint32, accept func(*xcoin.Block) error) (int, error) {
	n := 0
	for idx := 0; ; idx++ {
		fb, err := newReadBundle(dir, idx)
		if err != nil {
			break
		}
		count, rerr := loadFile(fb, magic, accept)
		fb.Close()
		n += count
		if rerr != nil {
			return n, rerr
		}
	}
	return n, nil
}

func loadFile(fb *fileBundle, magic uint32, accept func(*xcoin.Block) error) (int, error) {
	r := bufio.NewReader(fb.f)
	n := 0
	for {
		b := &xcoin.Block{Magic: magic}
		if err := b.BinRead(r); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			// A partial record at EOF is expected after a crash; any
			// other decode error means the file itself is corrupt,
			// but either way there's nothing more this file can give
			// the loader, so treat it the same as a clean stop.
			log.Printf("blockstore: stopping replay of %s after decode error: %v", fb.path(fb.idx), err)
			return n, nil
		}
		if err := accept(b); err != nil {
			return n, err
		}
		n++
	}
}
