package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionScope/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS position_events (
	kind         TEXT        NOT NULL,
	event_key    TEXT        NOT NULL,
	tx_hash      TEXT,
	origin       TEXT,
	token0       TEXT,
	token1       TEXT,
	fee          TEXT,
	block_number BIGINT,
	block_time   TEXT,
	payload      JSONB       NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, event_key)
);
CREATE TABLE IF NOT EXISTS token_metadata (
	address    TEXT PRIMARY KEY,
	decimals   INT  NOT NULL,
	symbol     TEXT,
	name       TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS creator_stats (
	address             TEXT PRIMARY KEY,
	total_positions     INT     NOT NULL,
	total_liquidity     NUMERIC NOT NULL,
	total_usd_value     DOUBLE PRECISION NOT NULL,
	unique_pairs        INT     NOT NULL,
	fee_tiers           JSONB   NOT NULL,
	first_position_time TEXT,
	last_position_time  TEXT,
	analyzed_at         TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS burn_activity_hourly (
	hour_bucket TEXT PRIMARY KEY,
	burns       INT  NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store persists run outputs to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutEvents upserts events keyed by kind and event key.
func (s *Store) PutEvents(ctx context.Context, kind model.EventKind, events []model.Event) error {
	rows, err := eventRows(events)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO position_events (
				kind, event_key, tx_hash, origin, token0, token1, fee, block_number, block_time, payload, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, now(), now())
			ON CONFLICT (kind, event_key)
			DO UPDATE SET
				tx_hash = EXCLUDED.tx_hash,
				origin = EXCLUDED.origin,
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee = EXCLUDED.fee,
				block_number = EXCLUDED.block_number,
				block_time = EXCLUDED.block_time,
				payload = EXCLUDED.payload,
				updated_at = now()
		`,
			string(kind),
			r.Key,
			nullable(r.TxHash),
			nullable(r.Origin.Address),
			nullable(r.Origin.Token0),
			nullable(r.Origin.Token1),
			nullable(r.Origin.Fee),
			r.BlockNumber,
			nullable(r.Origin.Timestamp),
			r.Payload,
		)
	}
	return s.send(ctx, batch, len(rows), "events")
}

// PutTokens upserts token metadata by address.
func (s *Store) PutTokens(ctx context.Context, tokens []model.TokenInfo) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range tokens {
		batch.Queue(`
			INSERT INTO token_metadata (address, decimals, symbol, name, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (address)
			DO UPDATE SET
				decimals = EXCLUDED.decimals,
				symbol = EXCLUDED.symbol,
				name = EXCLUDED.name,
				updated_at = now()
		`, t.Address, t.Decimals, nullable(t.Symbol), nullable(t.Name))
	}
	return s.send(ctx, batch, len(tokens), "tokens")
}

// PutCreators upserts one row per creator. Position lists stay in the events table.
func (s *Store) PutCreators(ctx context.Context, analysis model.CreatorAnalysis) error {
	rows, err := creatorRows(analysis)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO creator_stats (
				address, total_positions, total_liquidity, total_usd_value, unique_pairs, fee_tiers,
				first_position_time, last_position_time, analyzed_at
			) VALUES ($1, $2, $3::text::numeric, $4, $5, $6::jsonb, $7, $8, $9)
			ON CONFLICT (address)
			DO UPDATE SET
				total_positions = EXCLUDED.total_positions,
				total_liquidity = EXCLUDED.total_liquidity,
				total_usd_value = EXCLUDED.total_usd_value,
				unique_pairs = EXCLUDED.unique_pairs,
				fee_tiers = EXCLUDED.fee_tiers,
				first_position_time = EXCLUDED.first_position_time,
				last_position_time = EXCLUDED.last_position_time,
				analyzed_at = EXCLUDED.analyzed_at
		`,
			r.Address,
			r.TotalPositions,
			r.TotalLiquidity,
			r.TotalUSDValue,
			r.UniquePairs,
			r.FeeTiers,
			nullable(r.FirstTime),
			nullable(r.LastTime),
			r.AnalyzedAt,
		)
	}
	return s.send(ctx, batch, len(rows), "creators")
}

// PutBurnPatterns upserts the hourly burn histogram.
func (s *Store) PutBurnPatterns(ctx context.Context, patterns model.BurnPatterns) error {
	if len(patterns.EventsByHour) == 0 {
		return nil
	}
	hours := make([]string, 0, len(patterns.EventsByHour))
	for h := range patterns.EventsByHour {
		hours = append(hours, h)
	}
	sort.Strings(hours)

	batch := &pgx.Batch{}
	for _, h := range hours {
		batch.Queue(`
			INSERT INTO burn_activity_hourly (hour_bucket, burns, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (hour_bucket)
			DO UPDATE SET burns = EXCLUDED.burns, updated_at = now()
		`, h, patterns.EventsByHour[h])
	}
	return s.send(ctx, batch, len(hours), "burn patterns")
}

func (s *Store) send(ctx context.Context, batch *pgx.Batch, n int, what string) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert %s: %w", what, err)
		}
	}
	return nil
}

type eventRow struct {
	Key         string
	TxHash      string
	Origin      model.Origin
	BlockNumber *int64
	Payload     []byte
}

// eventRows derives one row per event. Events sharing a base key within the
// batch get an occurrence suffix so every row keeps a distinct key.
func eventRows(events []model.Event) ([]eventRow, error) {
	rows := make([]eventRow, 0, len(events))
	seen := make(map[string]int)
	for _, ev := range events {
		if ev == nil {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal %s event: %w", ev.Kind(), err)
		}
		hash, block := locate(ev)
		base := eventKey(ev, hash, block)
		n := seen[base]
		seen[base] = n + 1
		key := base
		if n > 0 {
			key = base + "#" + strconv.Itoa(n)
		}
		rows = append(rows, eventRow{
			Key:         key,
			TxHash:      hash,
			Origin:      ev.Origin(),
			BlockNumber: parseBlock(block),
			Payload:     payload,
		})
	}
	return rows, nil
}

func locate(ev model.Event) (string, model.Scalar) {
	switch e := ev.(type) {
	case model.PositionSnapshot:
		return "", e.Block
	case model.MintEvent:
		return e.Transaction.Hash, e.Block.Number
	case model.BurnEvent:
		return e.Transaction.Hash, e.Block.Number
	case model.CreationEvent:
		return e.Transaction.Hash, e.Block.Number
	default:
		return "", ""
	}
}

func eventKey(ev model.Event, hash string, block model.Scalar) string {
	if snap, ok := ev.(model.PositionSnapshot); ok && snap.TokenID != nil {
		return "token:" + *snap.TokenID + "@" + string(block)
	}
	if hash != "" {
		return hash
	}
	return "block:" + string(block)
}

func parseBlock(s model.Scalar) *int64 {
	n, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

type creatorRow struct {
	Address        string
	TotalPositions int
	TotalLiquidity string
	TotalUSDValue  float64
	UniquePairs    int
	FeeTiers       []byte
	FirstTime      string
	LastTime       string
	AnalyzedAt     time.Time
}

func creatorRows(analysis model.CreatorAnalysis) ([]creatorRow, error) {
	analyzedAt, err := time.Parse(time.RFC3339, analysis.Summary.AnalysisTimestamp)
	if err != nil {
		analyzedAt = time.Now().UTC()
	}

	addrs := make([]string, 0, len(analysis.CreatorStats))
	for addr := range analysis.CreatorStats {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	rows := make([]creatorRow, 0, len(addrs))
	for _, addr := range addrs {
		stats := analysis.CreatorStats[addr]
		if stats == nil {
			continue
		}
		fees, err := json.Marshal(stats.FeeTiers)
		if err != nil {
			return nil, fmt.Errorf("marshal fee tiers for %s: %w", addr, err)
		}
		liquidity := "0"
		if stats.TotalLiquidity != nil {
			liquidity = stats.TotalLiquidity.String()
		}
		rows = append(rows, creatorRow{
			Address:        addr,
			TotalPositions: stats.TotalPositions,
			TotalLiquidity: liquidity,
			TotalUSDValue:  stats.TotalUSDValue,
			UniquePairs:    stats.UniquePairCount(),
			FeeTiers:       fees,
			FirstTime:      stats.FirstPositionTime,
			LastTime:       stats.LastPositionTime,
			AnalyzedAt:     analyzedAt,
		})
	}
	return rows, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
