package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/blkchain/xcoin/xcoin"
)

// Explorer answers the JSON block/tx/payment queries a block explorer
// UI needs. It is a read-only view of the tables Writer populates and
// never participates in consensus.
type Explorer struct {
	db *sqlx.DB
}

func NewExplorer(connstr string) (*Explorer, error) {
	conn, err := sqlx.Connect("postgres", connstr)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		return nil, err
	}
	return &Explorer{db: conn}, nil
}

func (e *Explorer) Close() error {
	return e.db.Close()
}

func (e *Explorer) SelectBlocksJson(height, limit int) ([]string, error) {
	stmt := `SELECT to_json(b.*) AS block FROM (
	  SELECT height, hash, version, prevhash, merkleroot, time, bits, nonce, orphan
	    FROM blocks
	   WHERE height <= $1
	   ORDER BY height DESC LIMIT $2
	) b`

	var blocks []string
	if err := e.db.Select(&blocks, stmt, height, limit); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (e *Explorer) SelectMaxHeight() (int, error) {
	var height int
	if err := e.db.Get(&height, `SELECT MAX(height) AS height FROM blocks`); err != nil {
		return 0, err
	}
	return height, nil
}

func (e *Explorer) SelectBlockByHashJson(hash xcoin.Uint256) (*string, error) {
	stmt := `SELECT to_json(b.*) AS block FROM (
	  SELECT height, hash, version, prevhash, merkleroot, time, bits, nonce, orphan
	    FROM blocks
	   WHERE hash = $1
	) b`

	var block string
	if err := e.db.Get(&block, stmt, hash[:]); err != nil {
		return nil, err
	}
	return &block, nil
}

func (e *Explorer) SelectTxsJson(blockHash xcoin.Uint256, startN, limit int) ([]string, error) {
	stmt := `SELECT to_json(t.*) AS tx
	  FROM (
	    SELECT bt.n, t.txid, t.version, t.locktime, t.ref_height
	      FROM blocks b
	      JOIN block_txs bt ON b.id = bt.block_id
	      JOIN txs t ON t.id = bt.tx_id
	     WHERE b.hash = $1
	       AND bt.n >= $2
	     ORDER BY bt.n
	     LIMIT $3
	  ) t`

	var txs []string
	if err := e.db.Select(&txs, stmt, blockHash[:], startN, limit); err != nil {
		return nil, err
	}
	return txs, nil
}

func (e *Explorer) SelectTxByHashJson(hash xcoin.Uint256) (*string, error) {
	stmt := `
SELECT to_json(t.*) FROM (
SELECT txid
       , t.version
       , i.ins AS inputs
       , o.outs AS outputs
       , t.locktime
       , t.ref_height
       , blocks
  FROM txs t
  JOIN LATERAL (
    SELECT ARRAY_AGG(i.*  ORDER BY n) AS ins
      FROM (
        SELECT n, ts.txid AS prevout_hash, prevout_n, scriptsig, sequence, witness
          FROM txins ti
          JOIN txs ts ON ti.prevout_tx_id = ts.id
         WHERE tx_id = t.id
      ) i
  ) i ON true
  JOIN LATERAL (
    SELECT ARRAY_AGG(o.*  ORDER BY n) AS outs
      FROM (
        SELECT n, value, scriptpubkey, spent
          FROM txouts
         WHERE tx_id = t.id
      ) o
  ) o ON true
  JOIN block_txs bt ON t.id = bt.tx_id
  JOIN LATERAL (
    SELECT ARRAY_AGG(hash) AS blocks
      FROM blocks b
     WHERE b.id = bt.block_id
  ) b ON true
WHERE t.txid = $1
) t;
`
	var tx string
	if err := e.db.Get(&tx, stmt, hash[:]); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (e *Explorer) SelectHashType(hash xcoin.Uint256) (*string, error) {
	var typ *string
	if err := e.db.Get(&typ, `SELECT hash_type($1)`, hash[:]); err != nil {
		return nil, err
	}
	return typ, nil
}

// SelectPaymentsJson has no teacher analogue: it lists the payments a
// height made (every destination its outputs paid, not only the
// mandated recipient), read back from the ledger Writer persisted when
// the block connected.
func (e *Explorer) SelectPaymentsJson(height int) ([]string, error) {
	stmt := `SELECT to_json(p.*) AS payment FROM (
	  SELECT b.height, p.destination, p.amount
	    FROM payments p
	    JOIN blocks b ON b.id = p.block_id
	   WHERE b.height = $1
	   ORDER BY p.amount DESC
	) p`

	var payments []string
	if err := e.db.Select(&payments, stmt, height); err != nil {
		return nil, err
	}
	return payments, nil
}

func (e *Explorer) SelectTxsByAddrJson(addr []byte, startTxId int, limit int) ([]string, error) {
	operator, order := "<", "DESC"
	if limit < 0 {
		operator, limit, order = ">", -limit, "ASC"
	}
	stmt := fmt.Sprintf(`
SELECT to_json(txs.*) FROM (
SELECT t.id, t.txid, t.version, t.inputs, t.outputs, t.locktime, t.blocks FROM (
  ( SELECT tx_id
      FROM txins i
     WHERE addr_prefix(scriptsig, witness) = bytes2int8($1)
       AND prevout_tx_id IS NOT NULL
       AND extract_address(scriptsig, witness) = $1
       AND i.tx_id %[1]s $2
     ORDER BY tx_id %[2]s
    LIMIT $3
  )
  UNION
  ( SELECT tx_id
      FROM txouts o
     WHERE addr_prefix(scriptpubkey) = bytes2int8($1)
       AND extract_address(scriptpubkey) = $1
       AND o.tx_id %[1]s $2
     ORDER BY tx_id %[2]s
    LIMIT $3
  )
ORDER BY tx_id %[2]s
LIMIT $3
) tid
JOIN LATERAL (
  SELECT id, txid, t.version, i.ins AS inputs, o.outs AS outputs, t.locktime, b.blocks
  FROM txs t
  JOIN LATERAL (
    SELECT ARRAY_AGG(i.*  ORDER BY n) AS ins
      FROM (
        SELECT n, ts.txid AS prevout_hash, prevout_n, scriptsig, sequence, witness
          FROM txins ti
          JOIN txs ts ON ti.prevout_tx_id = ts.id
         WHERE tx_id = t.id
      ) i
  ) i ON true
  JOIN LATERAL (
    SELECT ARRAY_AGG(o.*  ORDER BY n) AS outs
      FROM (
        SELECT n, value, scriptpubkey, spent
          FROM txouts
         WHERE tx_id = t.id
      ) o
  ) o ON true
  JOIN block_txs bt ON t.id = bt.tx_id
  JOIN LATERAL (
    SELECT ARRAY_AGG(hash) AS blocks
      FROM blocks b
     WHERE b.id = bt.block_id
  ) b ON true
  WHERE t.id = tid.tx_id
  ) t ON true
  ORDER BY tx_id DESC
) txs;
`, operator, order)
	var txs []string
	if err := e.db.Select(&txs, stmt, addr, startTxId, limit); err != nil {
		return nil, err
	}
	return txs, nil
}

func (e *Explorer) SelectAddrTotalReceived(addr []byte, limit int) (int64, error) {
	stmt := `
SELECT SUM(recv) AS recv, COUNT(1) AS cnt FROM (
  SELECT tx_id, o.n, CASE WHEN (o.value - self) < 0 THEN 0 ELSE (o.value-self) END AS recv
      FROM txouts o
      JOIN LATERAL (
        SELECT COALESCE(SUM(oo.value), 0) AS self
          FROM txins i
          JOIN txouts oo ON i.prevout_tx_id = oo.tx_id AND i.prevout_n = oo.n
        WHERE i.tx_id = o.tx_id
          AND extract_address(scriptsig, witness) = $1
     ) x ON true
     WHERE addr_prefix(scriptpubkey) = bytes2int8($1)
       AND extract_address(scriptpubkey) = $1
  LIMIT $2
) x;
`
	type recvCnt struct {
		Recv int64
		Cnt  int
	}
	var recv recvCnt
	if err := e.db.Get(&recv, stmt, addr, limit+1); err != nil {
		return 0, err
	}
	if recv.Cnt > limit {
		return -1, nil
	}
	return recv.Recv, nil
}
