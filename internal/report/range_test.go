package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

func TestParseRangeDefaults(t *testing.T) {
	r := ParseRange("", "garbage", today, time.UTC, 30)
	require.Equal(t, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), r.From)
	require.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), r.To)
}

func TestParseRangeSwapsReversedBounds(t *testing.T) {
	r := ParseRange("2024-06-10", "2024-06-01", today, time.UTC, 30)
	require.Equal(t, "2024-06-01", r.From.Format(dayLayout))
	require.Equal(t, "2024-06-10", r.To.Format(dayLayout))
}

func TestRangeBoundsAndFilename(t *testing.T) {
	r := ParseRange("2024-06-01", "2024-06-10", today, time.UTC, 30)
	from, to := r.Bounds()
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), to)
	require.Equal(t, "reportes_20240601_20240610.csv", r.Filename())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Day{
		{Date: "2024-06-03", Orders: 2, NetSales: dec("90"), Discounts: dec("10"), Profit: dec("30"), Profitability: dec("33.33")},
		{Date: "2024-06-01", Orders: 1, NetSales: dec("12.5"), Discounts: dec("0"), Profit: dec("-1.25"), Profitability: dec("-10.04")},
	})
	require.NoError(t, err)
	require.Equal(t,
		"Date;OrderCount;NetSales;Discounts;Profit;Profitability%\n"+
			"03/06/2024;2;90.00;10.00;30.00;33.33\n"+
			"01/06/2024;1;12.50;0.00;-1.25;-10.04\n",
		buf.String())
}
