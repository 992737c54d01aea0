package prices

import (
	"math"
	"strconv"
	"strings"

	"crypto-dash/internal/domain"
)

// Result column names looked up in the header row.
const (
	colDate      = "date"
	colPriceUSD  = "price_usd"
	colVolumeUSD = "volume_usd"
)

// Reasons reported for cells that fall back to their zero value.
const (
	ReasonMissing     = "missing"
	ReasonUnparseable = "unparseable"
	ReasonNonFinite   = "non_finite"
)

// MalformedCell describes a result cell the mapper replaced with a zero value.
type MalformedCell struct {
	Row    int // 1-based data row index
	Column string
	Value  string
	Reason string
}

// RowMapper turns a header-plus-rows result set into price rows.
//
// Malformed cells never fail the mapping; they become zero values and are
// passed to OnMalformed when it is set.
type RowMapper struct {
	OnMalformed func(MalformedCell)
}

// Map converts rows, where rows[0] is the header, into PriceRows in input order.
// A result with fewer than two rows maps to an empty slice.
func (m RowMapper) Map(rows [][]string) []domain.PriceRow {
	if len(rows) < 2 {
		return []domain.PriceRow{}
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	out := make([]domain.PriceRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		n := i + 1
		cell := func(col string) string {
			idx, ok := index[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		date := cell(colDate)
		if date == "" {
			m.report(MalformedCell{Row: n, Column: colDate, Reason: ReasonMissing})
		}
		out = append(out, domain.PriceRow{
			Date:      date,
			PriceUSD:  m.number(n, colPriceUSD, cell(colPriceUSD)),
			VolumeUSD: m.number(n, colVolumeUSD, cell(colVolumeUSD)),
		})
	}
	return out
}

func (m RowMapper) number(row int, col, raw string) float64 {
	if raw == "" {
		m.report(MalformedCell{Row: row, Column: col, Reason: ReasonMissing})
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		m.report(MalformedCell{Row: row, Column: col, Value: raw, Reason: ReasonUnparseable})
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		m.report(MalformedCell{Row: row, Column: col, Value: raw, Reason: ReasonNonFinite})
		return 0
	}
	return v
}

func (m RowMapper) report(c MalformedCell) {
	if m.OnMalformed != nil {
		m.OnMalformed(c)
	}
}
