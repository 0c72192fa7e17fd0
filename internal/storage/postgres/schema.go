package postgres

// Schema is the DDL for the aggregation stores and the swaps table.
const Schema = `
CREATE TABLE IF NOT EXISTS store_counters (
	store TEXT NOT NULL,
	key TEXT NOT NULL,
	value NUMERIC(78, 0) NOT NULL DEFAULT 0,
	updated_block BIGINT NOT NULL,
	PRIMARY KEY (store, key)
);

CREATE TABLE IF NOT EXISTS store_markers (
	store TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	first_block BIGINT NOT NULL,
	PRIMARY KEY (store, key)
);

CREATE TABLE IF NOT EXISTS indexer_state (
	name TEXT PRIMARY KEY,
	last_block BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS swaps (
	id TEXT PRIMARY KEY,
	tx_hash TEXT NOT NULL,
	log_index BIGINT NOT NULL,
	block_number BIGINT NOT NULL,
	timestamp BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	sender TEXT NOT NULL,
	recipient TEXT NOT NULL,
	amount0_in NUMERIC(78, 0) NOT NULL,
	amount1_in NUMERIC(78, 0) NOT NULL,
	amount0_out NUMERIC(78, 0) NOT NULL,
	amount1_out NUMERIC(78, 0) NOT NULL,
	amount_in_total NUMERIC(20, 0) NOT NULL,
	amount_out_total NUMERIC(20, 0) NOT NULL,
	price_ratio BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS swaps_pool_block_idx ON swaps (pool_address, block_number);
`
