package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"Date", "OrderCount", "NetSales", "Discounts", "Profit", "Profitability%"}

// WriteCSV writes one semicolon separated row per day, in the order given.
func WriteCSV(w io.Writer, days []Day) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, d := range days {
		date := d.Date
		if t, err := time.Parse(dayLayout, d.Date); err == nil {
			date = t.Format("02/01/2006")
		}
		if err := cw.Write([]string{
			date,
			strconv.Itoa(d.Orders),
			d.NetSales.StringFixed(2),
			d.Discounts.StringFixed(2),
			d.Profit.StringFixed(2),
			d.Profitability.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
