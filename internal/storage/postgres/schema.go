package postgres

const schema = `
CREATE TABLE IF NOT EXISTS position_daily_fees (
	position_id TEXT NOT NULL,
	day DATE NOT NULL,
	amount0 NUMERIC NOT NULL,
	amount1 NUMERIC NOT NULL,
	outlier0 BOOLEAN NOT NULL DEFAULT FALSE,
	outlier1 BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (position_id, day)
);

CREATE TABLE IF NOT EXISTS position_overviews (
	position_id TEXT PRIMARY KEY,
	pool_id TEXT NOT NULL,
	token0 TEXT NOT NULL,
	token1 TEXT NOT NULL,
	in_range BOOLEAN NOT NULL,
	liquidity NUMERIC NOT NULL,
	deposited0 NUMERIC NOT NULL,
	deposited1 NUMERIC NOT NULL,
	withdrawn0 NUMERIC NOT NULL,
	withdrawn1 NUMERIC NOT NULL,
	collected0 NUMERIC NOT NULL,
	collected1 NUMERIC NOT NULL,
	uncollected0 NUMERIC NOT NULL,
	uncollected1 NUMERIC NOT NULL,
	uncollected_usd DOUBLE PRECISION NOT NULL,
	last_action_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS fee_estimates (
	pool_id TEXT NOT NULL,
	tick_lower INTEGER NOT NULL,
	tick_upper INTEGER NOT NULL,
	window_days INTEGER NOT NULL,
	liquidity_usd DOUBLE PRECISION NOT NULL,
	liquidity NUMERIC NOT NULL,
	daily_fee_usd DOUBLE PRECISION NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_id, tick_lower, tick_upper, window_days, liquidity_usd)
);

CREATE TABLE IF NOT EXISTS lpscope_state (
	name TEXT PRIMARY KEY,
	last_processed_ts BIGINT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
