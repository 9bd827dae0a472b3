// Package postgres is a read-side replica of the chain: a bulk writer
// driven directly by ConnectBlock/DisconnectBlock (rather than a blind
// one-shot import) and an Explorer answering the JSON block/tx queries
// a block explorer UI needs. It is never on the consensus hot path —
// storage.Engine is authoritative, this is a secondary view of it.
package postgres

import "database/sql"

// CreateSchema creates every table/index this package needs if they
// don't already exist, so opening a Writer against a fresh database
// is enough to start writing.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`); err != nil {
		return err
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
		   id         SERIAL PRIMARY KEY
		  ,height     INT NOT NULL
		  ,hash       BYTEA NOT NULL UNIQUE
		  ,prevhash   BYTEA NOT NULL
		  ,version    INT NOT NULL
		  ,merkleroot BYTEA NOT NULL
		  ,time       INT NOT NULL
		  ,bits       INT NOT NULL
		  ,nonce      INT NOT NULL
		  ,orphan     BOOLEAN NOT NULL DEFAULT false
		)`,
		`CREATE INDEX IF NOT EXISTS blocks_height_idx ON blocks(height)`,
		`CREATE INDEX IF NOT EXISTS blocks_prevhash_idx ON blocks(prevhash)`,

		`CREATE TABLE IF NOT EXISTS txs (
		   id         BIGSERIAL PRIMARY KEY
		  ,txid       BYTEA NOT NULL UNIQUE
		  ,version    INT NOT NULL
		  ,locktime   INT NOT NULL
		  ,ref_height INT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS block_txs (
		   block_id INT NOT NULL REFERENCES blocks(id)
		  ,n        INT NOT NULL
		  ,tx_id    BIGINT NOT NULL REFERENCES txs(id)
		  ,PRIMARY KEY (block_id, n)
		)`,
		`CREATE INDEX IF NOT EXISTS block_txs_tx_id_idx ON block_txs(tx_id)`,

		`CREATE TABLE IF NOT EXISTS txins (
		   tx_id         BIGINT NOT NULL REFERENCES txs(id)
		  ,n             INT NOT NULL
		  ,prevout_tx_id BIGINT REFERENCES txs(id)
		  ,prevout_n     INT NOT NULL
		  ,scriptsig     BYTEA NOT NULL
		  ,sequence      INT NOT NULL
		  ,witness       BYTEA
		  ,PRIMARY KEY (tx_id, n)
		)`,
		`CREATE INDEX IF NOT EXISTS txins_prevout_idx ON txins(prevout_tx_id, prevout_n)`,

		`CREATE TABLE IF NOT EXISTS txouts (
		   tx_id        BIGINT NOT NULL REFERENCES txs(id)
		  ,n            INT NOT NULL
		  ,value        BIGINT NOT NULL
		  ,scriptpubkey BYTEA NOT NULL
		  ,spent        BOOLEAN NOT NULL DEFAULT false
		  ,PRIMARY KEY (tx_id, n)
		)`,

		// payments has no teacher analogue: it persists the per-block
		// ledger budget.LedgerForBlock builds (every output's face value,
		// summed per destination script), so the explorer can answer
		// "who got paid at height N" without recomputing it client-side.
		`CREATE TABLE IF NOT EXISTS payments (
		   block_id    INT NOT NULL REFERENCES blocks(id)
		  ,destination BYTEA NOT NULL
		  ,amount      BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS payments_destination_idx ON payments(destination)`,

		`CREATE OR REPLACE FUNCTION hash_type(_hash BYTEA) RETURNS TEXT AS $$
		 BEGIN
		   IF EXISTS (SELECT 1 FROM blocks WHERE hash = _hash) THEN
		     RETURN 'block';
		   ELSIF EXISTS (SELECT 1 FROM txs WHERE txid = _hash) THEN
		     RETURN 'tx';
		   END IF;
		   RETURN NULL;
		 END;
		 $$ LANGUAGE plpgsql`,

		`CREATE OR REPLACE FUNCTION extract_address(scriptPubKey BYTEA) RETURNS BYTEA AS $$
		 BEGIN
		   IF SUBSTR(scriptPubKey, 1, 3) = E'\\x76a914' THEN  -- P2PKH
		     RETURN SUBSTR(scriptPubKey, 4, 20);
		   ELSIF SUBSTR(scriptPubKey, 1, 2) = E'\\xa914' THEN -- P2SH
		     RETURN SUBSTR(scriptPubKey, 3, 20);
		   ELSIF SUBSTR(scriptPubKey, 1, 2) = E'\\x0014' THEN -- P2WPKH
		     RETURN SUBSTR(scriptPubKey, 3, 20);
		   ELSIF SUBSTR(scriptPubKey, 1, 2) = E'\\x0020' THEN -- P2WSH
		     RETURN SUBSTR(scriptPubKey, 3, 32);
		   END IF;
		   RETURN NULL;
		 END;
		 $$ LANGUAGE plpgsql IMMUTABLE`,

		`CREATE OR REPLACE FUNCTION bytes2int8(bytes BYTEA) RETURNS BIGINT AS $$
		 BEGIN
		   RETURN SUBSTR(bytes::text, 2, 16)::bit(64)::bigint;
		 END;
		 $$ LANGUAGE plpgsql IMMUTABLE`,

		`CREATE OR REPLACE FUNCTION addr_prefix(scriptPubKey BYTEA) RETURNS BIGINT AS $$
		 BEGIN
		   RETURN bytes2int8(extract_address(scriptPubKey));
		 END;
		 $$ LANGUAGE plpgsql IMMUTABLE`,

		`CREATE INDEX IF NOT EXISTS txouts_addr_prefix_tx_id_idx ON txouts(addr_prefix(scriptpubkey), tx_id)`,

		`CREATE OR REPLACE FUNCTION parse_witness(witness BYTEA) RETURNS BYTEA[] AS $$
		 DECLARE
		   stack BYTEA[];
		   len INT;
		   pos INT = 1;
		   slen INT;
		 BEGIN
		   IF witness IS NULL OR witness = '' THEN
		     RETURN NULL;
		   END IF;
		   len = GET_BYTE(witness, 0);
		   WHILE len > 0 LOOP
		     slen = GET_BYTE(witness, pos);
		     IF slen = 253 THEN
		       slen = GET_BYTE(witness, pos+1) + GET_BYTE(witness, pos+2)*256;
		       pos = pos+2;
		     END IF;
		     stack = stack || SUBSTR(witness, pos+2, slen);
		     pos = pos + slen + 1;
		     len = len - 1;
		   END LOOP;
		   RETURN stack;
		 END;
		 $$ LANGUAGE plpgsql IMMUTABLE`,

		`CREATE OR REPLACE FUNCTION extract_address(scriptsig BYTEA, witness BYTEA) RETURNS BYTEA AS $$
		 DECLARE
		   pub BYTEA;
		   sha BYTEA;
		   wits BYTEA[];
		   len INT;
		   pos INT;
		   op INT;
		 BEGIN
		   IF LENGTH(scriptsig) = 0 OR scriptsig IS NULL THEN
		     wits = parse_witness(witness);
		     pub = wits[array_length(wits, 1)];
		     sha = digest(pub, 'sha256');
		     IF ARRAY_LENGTH(wits, 1) = 2 AND LENGTH(pub) = 33 THEN
		       RETURN digest(sha, 'ripemd160');
		     ELSE
		       RETURN sha;
		     END IF;
		   ELSE
		     len = GET_BYTE(scriptsig, 0);
		     IF len = LENGTH(scriptsig) - 1 THEN
		       RETURN digest(digest(SUBSTR(scriptsig, 2), 'sha256'), 'ripemd160');
		     ELSE
		       pos = 0;
		       WHILE pos < LENGTH(scriptsig)-1 LOOP
		         op = GET_BYTE(scriptsig, pos);
		         IF op > 0 AND op < 76 THEN
		           len = op;
		           pos = pos + 1;
		         ELSEIF op = 76 THEN
		           len = GET_BYTE(scriptsig, pos+1);
		           pos = pos + 2;
		         ELSEIF op = 77 THEN
		           len = GET_BYTE(scriptsig, pos+1) + GET_BYTE(scriptsig, pos+2)*256;
		           pos = pos + 3;
		         ELSE
		           pos = pos + 1;
		           CONTINUE;
		         END IF;
		         pub = SUBSTR(scriptsig, pos+1, len);
		         pos = pos + len;
		       END LOOP;
		       RETURN digest(digest(pub, 'sha256'), 'ripemd160');
		     END IF;
		   END IF;
		   RETURN NULL;
		 END;
		 $$ LANGUAGE plpgsql IMMUTABLE`,

		`CREATE OR REPLACE FUNCTION addr_prefix(scriptsig BYTEA, witness BYTEA) RETURNS BIGINT AS $$
		 BEGIN
		   RETURN bytes2int8(extract_address(scriptsig, witness));
		 END;
		 $$ LANGUAGE plpgsql IMMUTABLE`,

		// Coinbase scriptsigs aren't addresses; the partial index skips them.
		`CREATE INDEX IF NOT EXISTS txins_addr_prefix_tx_id_idx ON txins(addr_prefix(scriptsig, witness), tx_id)
		   WHERE prevout_tx_id IS NOT NULL`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
