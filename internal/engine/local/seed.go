package local

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
)

// SeedOptions describes a synthetic price series.
type SeedOptions struct {
	Path        string  // .parquet writes Parquet, anything else CSV with a header
	Days        int     // history length ending today
	PerDay      int     // samples per day
	Seed        float64 // random seed in [-1, 1]
	BasePrice   float64
	BaseVolume  float64
	CoinID      string
	Symbol      string
	DisplayName string
}

func (o *SeedOptions) defaults() {
	if o.Days <= 0 {
		o.Days = 120
	}
	if o.PerDay <= 0 {
		o.PerDay = 24
	}
	if o.BasePrice <= 0 {
		o.BasePrice = 40000
	}
	if o.BaseVolume <= 0 {
		o.BaseVolume = 1e9
	}
	if o.CoinID == "" {
		o.CoinID, o.Symbol, o.DisplayName = "bitcoin", "btc", "Bitcoin"
	}
}

// GenerateSeed writes a synthetic price file in the layout the ingestion
// pipeline produces: one row per sample with id, symbol, name, price_usd,
// volume_usd, market_cap_usd, last_updated and date.
func GenerateSeed(ctx context.Context, opts SeedOptions) error {
	if opts.Path == "" {
		return fmt.Errorf("seed path is required")
	}
	if 1440%max(opts.PerDay, 1) != 0 {
		return fmt.Errorf("samples per day must divide 1440, got %d", opts.PerDay)
	}
	if opts.Seed < -1 || opts.Seed > 1 {
		return fmt.Errorf("seed must be within [-1, 1], got %g", opts.Seed)
	}
	opts.defaults()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	// setseed is per connection
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("SELECT setseed(%f)", opts.Seed)); err != nil {
		return fmt.Errorf("set seed: %w", err)
	}
	if _, err := conn.ExecContext(ctx, seedSQL(opts)); err != nil {
		return fmt.Errorf("write seed %s: %w", opts.Path, err)
	}
	return nil
}

func seedSQL(o SeedOptions) string {
	format := "(HEADER, DELIMITER ',')"
	if strings.EqualFold(filepath.Ext(o.Path), ".parquet") {
		format = "(FORMAT PARQUET)"
	}
	return fmt.Sprintf(`COPY (
  SELECT
    %s AS id,
    %s AS symbol,
    %s AS name,
    price_usd,
    volume_usd,
    round(price_usd * 19500000, 2) AS market_cap_usd,
    ts AS last_updated,
    ts AS "date"
  FROM (
    SELECT
      ts,
      round(%f * (1 + 0.15 * sin(i / %d.0)) * (0.99 + random() * 0.02), 2) AS price_usd,
      round(%f / %d * (0.5 + random()), 2) AS volume_usd
    FROM (
      SELECT ts, row_number() OVER (ORDER BY ts) AS i
      FROM range(
        CAST(current_date - INTERVAL '%d' DAY AS TIMESTAMP),
        CAST(current_date + INTERVAL '1' DAY AS TIMESTAMP),
        INTERVAL '%d' MINUTE
      ) t(ts)
    )
  )
  ORDER BY ts
) TO '%s' %s`,
		quoteLiteral(o.CoinID), quoteLiteral(o.Symbol), quoteLiteral(o.DisplayName),
		o.BasePrice, 20*o.PerDay,
		o.BaseVolume, o.PerDay,
		o.Days, 1440/o.PerDay,
		strings.ReplaceAll(o.Path, "'", "''"), format)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
