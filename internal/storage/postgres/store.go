package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"lpScope/internal/model"
)

// Store provides Postgres persistence for fee series, overviews and estimates.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a connection pool for dsn. Call EnsureSchema before the
// first write.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutDailyFees inserts or updates one row per series day.
func (s *Store) PutDailyFees(ctx context.Context, positionID string, series []model.DailyFee) error {
	if len(series) == 0 {
		return nil
	}
	if positionID == "" {
		return fmt.Errorf("position id required")
	}
	batch := &pgx.Batch{}
	for _, d := range series {
		batch.Queue(`
			INSERT INTO position_daily_fees (
				position_id, day, amount0, amount1, outlier0, outlier1, created_at, updated_at
			) VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6, now(), now())
			ON CONFLICT (position_id, day)
			DO UPDATE SET
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				outlier0 = EXCLUDED.outlier0,
				outlier1 = EXCLUDED.outlier1,
				updated_at = now()
		`,
			positionID,
			d.Date.UTC(),
			d.Amount0.String(),
			d.Amount1.String(),
			d.Outlier0,
			d.Outlier1,
		)
	}
	return s.exec(ctx, batch)
}

// PutOverview inserts or updates a position overview.
func (s *Store) PutOverview(ctx context.Context, o model.PositionOverview) error {
	if o.PositionID == "" {
		return fmt.Errorf("position id required")
	}
	liquidity := o.Liquidity
	if liquidity == "" {
		liquidity = "0"
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO position_overviews (
			position_id, pool_id, token0, token1, in_range, liquidity,
			deposited0, deposited1, withdrawn0, withdrawn1, collected0, collected1,
			uncollected0, uncollected1, uncollected_usd, last_action_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8::numeric,$9::numeric,$10::numeric,
			$11::numeric,$12::numeric,$13::numeric,$14::numeric,$15,$16,now())
		ON CONFLICT (position_id)
		DO UPDATE SET
			pool_id = EXCLUDED.pool_id,
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			in_range = EXCLUDED.in_range,
			liquidity = EXCLUDED.liquidity,
			deposited0 = EXCLUDED.deposited0,
			deposited1 = EXCLUDED.deposited1,
			withdrawn0 = EXCLUDED.withdrawn0,
			withdrawn1 = EXCLUDED.withdrawn1,
			collected0 = EXCLUDED.collected0,
			collected1 = EXCLUDED.collected1,
			uncollected0 = EXCLUDED.uncollected0,
			uncollected1 = EXCLUDED.uncollected1,
			uncollected_usd = EXCLUDED.uncollected_usd,
			last_action_at = EXCLUDED.last_action_at,
			updated_at = now()
	`,
		o.PositionID,
		o.PoolID,
		o.Token0,
		o.Token1,
		o.InRange,
		liquidity,
		o.Deposited0.String(),
		o.Deposited1.String(),
		o.Withdrawn0.String(),
		o.Withdrawn1.String(),
		o.Collected0.String(),
		o.Collected1.String(),
		o.Uncollected0.String(),
		o.Uncollected1.String(),
		o.UncollectedUSD,
		o.LastActionAt.UTC(),
	)
	return err
}

// PutEstimates inserts or updates fee estimates keyed by pool, range, window and size.
func (s *Store) PutEstimates(ctx context.Context, estimates []model.FeeEstimate) error {
	if len(estimates) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range estimates {
		liquidity := e.Liquidity
		if liquidity == "" {
			liquidity = "0"
		}
		batch.Queue(`
			INSERT INTO fee_estimates (
				pool_id, tick_lower, tick_upper, window_days, liquidity_usd, liquidity, daily_fee_usd, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
			ON CONFLICT (pool_id, tick_lower, tick_upper, window_days, liquidity_usd)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				daily_fee_usd = EXCLUDED.daily_fee_usd,
				computed_at = EXCLUDED.computed_at
		`,
			e.PoolID,
			e.TickLower,
			e.TickUpper,
			e.WindowDays,
			e.LiquidityUSD,
			liquidity,
			e.DailyFeeUSD,
			e.ComputedAt.UTC(),
		)
	}
	return s.exec(ctx, batch)
}

// DailyFees returns the stored series of a position in date order.
func (s *Store) DailyFees(ctx context.Context, positionID string) ([]model.DailyFee, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT day, amount0::text, amount1::text, outlier0, outlier1
		FROM position_daily_fees
		WHERE position_id = $1
		ORDER BY day
	`, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailyFee
	for rows.Next() {
		var (
			d      model.DailyFee
			a0, a1 string
		)
		if err := rows.Scan(&d.Date, &a0, &a1, &d.Outlier0, &d.Outlier1); err != nil {
			return nil, err
		}
		if d.Amount0, err = decimal.NewFromString(a0); err != nil {
			return nil, fmt.Errorf("parse amount0: %w", err)
		}
		if d.Amount1, err = decimal.NewFromString(a1); err != nil {
			return nil, fmt.Errorf("parse amount1: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LoadState returns the last processed time stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (time.Time, bool, error) {
	if name == "" {
		return time.Time{}, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM lpscope_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return time.Unix(ts, 0).UTC(), true, nil
}

// SaveState upserts the last processed time for name.
func (s *Store) SaveState(ctx context.Context, name string, at time.Time) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lpscope_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, at.Unix())
	return err
}

func (s *Store) exec(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
