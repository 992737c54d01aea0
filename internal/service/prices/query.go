package prices

import (
	"fmt"
	"time"
)

// PriceQuery renders the daily aggregation over the price table.
//
// Days must come from ResolveRange and Table from validated configuration;
// both are interpolated into the query text.
type PriceQuery struct {
	Table string
	Days  int
}

// SQL returns the query text. The date column is cast explicitly so string or
// timestamp partitions compare as dates, and the window is anchored on the
// engine's own current_date.
func (q PriceQuery) SQL() string {
	return fmt.Sprintf(`SELECT
  CAST("date" AS DATE) AS "date",
  AVG(price_usd) AS price_usd,
  SUM(volume_usd) AS volume_usd
FROM %s
WHERE CAST("date" AS DATE) >= current_date - INTERVAL '%d' DAY
GROUP BY CAST("date" AS DATE)
ORDER BY "date" ASC`, q.Table, q.Days)
}

// Threshold returns the first date included in the window when today is now.
func (q PriceQuery) Threshold(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -q.Days)
}
