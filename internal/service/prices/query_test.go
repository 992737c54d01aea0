package prices

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriceQuery_SQL(t *testing.T) {
	t.Parallel()

	for _, days := range []int{7, 30, 90} {
		sql := PriceQuery{Table: "crypto_prices", Days: days}.SQL()

		assert.Contains(t, sql, `CAST("date" AS DATE) AS "date"`)
		assert.Contains(t, sql, "AVG(price_usd) AS price_usd")
		assert.Contains(t, sql, "SUM(volume_usd) AS volume_usd")
		assert.Contains(t, sql, "FROM crypto_prices")
		assert.Contains(t, sql, `GROUP BY CAST("date" AS DATE)`)
		assert.True(t, strings.HasSuffix(sql, `ORDER BY "date" ASC`), sql)
		assert.Contains(t, sql, `WHERE CAST("date" AS DATE) >= current_date - INTERVAL '`+strconv.Itoa(days)+`' DAY`)
	}
}

func TestPriceQuery_QualifiedTable(t *testing.T) {
	t.Parallel()

	sql := PriceQuery{Table: "analytics.btc_daily", Days: 7}.SQL()
	assert.Contains(t, sql, "FROM analytics.btc_daily\n")
}

func TestPriceQuery_Threshold(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), PriceQuery{Days: 7}.Threshold(now))
	assert.Equal(t, time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC), PriceQuery{Days: 30}.Threshold(now))
	assert.Equal(t, time.Date(2023, 12, 11, 0, 0, 0, 0, time.UTC), PriceQuery{Days: 90}.Threshold(now))
}
