package postgres

import (
	"bytes"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/blkchain/xcoin/budget"
	"github.com/blkchain/xcoin/xcoin"
)

// Writer is driven one block at a time by ConnectBlock and
// DisconnectBlock instead of a single long-running blind import.
// Block, tx, txin and txout rows go in with per-row INSERTs; only the
// payments rows use COPY.
type Writer struct {
	db    *sql.DB
	cache *txIdCache
}

// NewWriter opens connstr and ensures the schema exists. cacheSize
// bounds the in-memory txid->id cache used to skip a round-trip SELECT
// for prevout lookups against transactions written earlier in this
// process; 0 picks a sensible default.
func NewWriter(connstr string, cacheSize int) (*Writer, error) {
	db, err := sql.Open("postgres", connstr)
	if err != nil {
		return nil, err
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if cacheSize == 0 {
		cacheSize = 1024 * 1024
	}
	return &Writer{db: db, cache: newTxIdCache(cacheSize)}, nil
}

func (w *Writer) Close() error {
	return w.db.Close()
}

// WriteConnectedBlock persists a newly connected block and the payment
// ledger passed for it (both callers pass budget.LedgerForBlock's
// face-value ledger), in one transaction.
func (w *Writer) WriteConnectedBlock(height uint32, hash xcoin.Uint256, b *xcoin.Block, ledger budget.PaymentLedger) error {
	txn, err := w.db.Begin()
	if err != nil {
		return err
	}
	if _, err := txn.Exec("SET CONSTRAINTS ALL DEFERRED"); err != nil {
		txn.Rollback()
		return err
	}

	var blockID int
	row := txn.QueryRow(
		`INSERT INTO blocks (height, hash, prevhash, version, merkleroot, time, bits, nonce)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		int(height), hash[:], b.PrevHash[:], int32(b.Version), b.HashMerkleRoot[:],
		int32(b.Time), int32(b.Bits), int32(b.Nonce))
	if err := row.Scan(&blockID); err != nil {
		txn.Rollback()
		return fmt.Errorf("inserting block: %w", err)
	}

	if err := w.writeTxs(txn, blockID, b.Txs); err != nil {
		txn.Rollback()
		return err
	}

	if len(ledger) > 0 {
		stmt, err := txn.Prepare(pq.CopyIn("payments", "block_id", "destination", "amount"))
		if err != nil {
			txn.Rollback()
			return err
		}
		for dest, amount := range ledger {
			if _, err := stmt.Exec(blockID, []byte(dest), amount.ToBaseUnits()); err != nil {
				txn.Rollback()
				return err
			}
		}
		if _, err := stmt.Exec(); err != nil {
			txn.Rollback()
			return err
		}
		if err := stmt.Close(); err != nil {
			txn.Rollback()
			return err
		}
	}

	return txn.Commit()
}

func (w *Writer) writeTxs(txn *sql.Tx, blockID int, txs xcoin.TxList) error {
	for n, tx := range txs {
		hash := tx.Hash()
		var txID int64
		row := txn.QueryRow(
			`INSERT INTO txs (txid, version, locktime, ref_height)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (txid) DO UPDATE SET txid = EXCLUDED.txid
			 RETURNING id`,
			hash[:], int32(tx.Version), int32(tx.LockTime), int32(tx.RefHeight))
		if err := row.Scan(&txID); err != nil {
			return fmt.Errorf("inserting tx %s: %w", hash, err)
		}
		w.cache.add(hash, txID, len(tx.TxOuts))

		if _, err := txn.Exec(`INSERT INTO block_txs (block_id, n, tx_id) VALUES ($1,$2,$3)`, blockID, n, txID); err != nil {
			return fmt.Errorf("inserting block_txs for %s: %w", hash, err)
		}

		for i, in := range tx.TxIns {
			var prevoutTxID *int64
			if in.PrevOut.N != 0xffffffff {
				if id, ok := w.cache.check(in.PrevOut.Hash); ok {
					prevoutTxID = &id
				} else if err := txn.QueryRow(`SELECT id FROM txs WHERE txid = $1`, in.PrevOut.Hash[:]).Scan(&prevoutTxID); err != nil && err != sql.ErrNoRows {
					return fmt.Errorf("looking up prevout for %s:%d: %w", hash, i, err)
				}
			}
			var witness []byte
			if len(in.Witness) > 0 {
				buf := new(bytes.Buffer)
				if err := in.Witness.BinWrite(buf); err != nil {
					return fmt.Errorf("encoding witness %s:%d: %w", hash, i, err)
				}
				witness = buf.Bytes()
			}
			if _, err := txn.Exec(
				`INSERT INTO txins (tx_id, n, prevout_tx_id, prevout_n, scriptsig, sequence, witness)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				txID, i, prevoutTxID, int32(in.PrevOut.N), in.ScriptSig, int32(in.Sequence), witness); err != nil {
				return fmt.Errorf("inserting txin %s:%d: %w", hash, i, err)
			}
			if prevoutTxID != nil {
				if _, err := txn.Exec(
					`UPDATE txouts SET spent = true WHERE tx_id = $1 AND n = $2`,
					*prevoutTxID, int32(in.PrevOut.N)); err != nil {
					return fmt.Errorf("marking spent %s:%d: %w", hash, i, err)
				}
			}
		}

		for i, out := range tx.TxOuts {
			if _, err := txn.Exec(
				`INSERT INTO txouts (tx_id, n, value, scriptpubkey) VALUES ($1,$2,$3,$4)`,
				txID, i, out.Value, out.ScriptPubKey); err != nil {
				return fmt.Errorf("inserting txout %s:%d: %w", hash, i, err)
			}
		}
	}

	return nil
}

// WriteDisconnectedBlock marks the block with this hash as orphaned,
// mirroring DisconnectBlock's removal of it from the active chain; its
// descendants are not marked by this call. Rows are kept, not deleted,
// so the explorer can still answer
// "what did this orphaned block contain".
func (w *Writer) WriteDisconnectedBlock(hash xcoin.Uint256) error {
	_, err := w.db.Exec(`UPDATE blocks SET orphan = true WHERE hash = $1`, hash[:])
	return err
}
