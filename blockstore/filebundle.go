// Package blockstore persists connected blocks to a rolling set of
// blk#####.dat files, and replays them at startup to rebuild
// in-memory state after a restart — the disk-scanning recovery
// behaviour a full node needs that a pure KV storage.Engine doesn't
// cover by itself.
package blockstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const maxFileSize = 128 * 1024 * 1024

// fileBundle is a read/write cursor over a numbered sequence of
// blk#####.dat files in dir, rolling over to the next file on EOF
// (reading) or once the current file reaches maxFileSize (writing).
type fileBundle struct {
	dir    string
	prefix string
	idx    int
	f      *os.File
}

func newReadBundle(dir string, start int) (*fileBundle, error) {
	fb := &fileBundle{dir: dir, prefix: "blk", idx: start}
	if err := fb.openNextForRead(); err != nil {
		return nil, err
	}
	return fb, nil
}

func (f *fileBundle) path(idx int) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s%05d.dat", f.prefix, idx))
}

func (f *fileBundle) openNextForRead() (err error) {
	if f.f != nil {
		f.f.Close()
		f.idx++
	}
	f.f, err = os.Open(f.path(f.idx))
	return err
}

// Read implements io.Reader, rolling forward to the next file on EOF
// and surfacing a clean io.EOF only once the next file genuinely
// doesn't exist — i.e. we've caught up to the writer.
func (f *fileBundle) Read(b []byte) (n int, err error) {
	for n < len(b) {
		i, rerr := f.f.Read(b[n:])
		n += i
		if rerr == io.EOF {
			if nerr := f.openNextForRead(); nerr != nil {
				if os.IsNotExist(nerr) {
					return n, io.EOF
				}
				return n, nerr
			}
			continue
		}
		if rerr != nil {
			return n, rerr
		}
		if i == 0 {
			break
		}
	}
	return n, nil
}

func (f *fileBundle) Close() error {
	if f != nil && f.f != nil {
		return f.f.Close()
	}
	return nil
}

// writeBundle is the append-only counterpart used by the writer: it
// opens the highest-numbered existing file (or starts file 0) and
// rolls to a new file once the current one crosses maxFileSize.
type writeBundle struct {
	dir    string
	prefix string
	idx    int
	f      *os.File
	size   int64
}

func newWriteBundle(dir string, startIdx int) (*writeBundle, error) {
	wb := &writeBundle{dir: dir, prefix: "blk", idx: startIdx}
	if err := wb.openCurrentForAppend(); err != nil {
		return nil, err
	}
	return wb, nil
}

func (w *writeBundle) path(idx int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s%05d.dat", w.prefix, idx))
}

func (w *writeBundle) openCurrentForAppend() error {
	f, err := os.OpenFile(w.path(w.idx), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	w.f = f
	w.size = st.Size()
	return nil
}

func (w *writeBundle) roll() error {
	if err := w.f.Close(); err != nil {
		return err
	}
	w.idx++
	w.size = 0
	f, err := os.OpenFile(w.path(w.idx), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}

// Reserve rolls to a new file if appending n bytes to the current one
// would cross maxFileSize, and returns the file index and offset the
// next Write will land at — callers always write one whole framed
// record at a time, so a record never spans two files.
func (w *writeBundle) Reserve(n int) (idx int, pos int64, err error) {
	if w.size+int64(n) > maxFileSize && w.size > 0 {
		if err := w.roll(); err != nil {
			return 0, 0, err
		}
	}
	return w.idx, w.size, nil
}

func (w *writeBundle) Write(b []byte) (int, error) {
	n, err := w.f.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *writeBundle) Close() error {
	if w != nil && w.f != nil {
		return w.f.Close()
	}
	return nil
}
