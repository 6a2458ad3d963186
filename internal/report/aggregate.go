// Package report projects stored orders into sales, discount and profit
// figures for a date range. Reports are recomputed on every request.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/pricing"
	"github.com/noah-isme/backoffice/internal/store"
)

// TopN is the length of the customer and product rankings.
const TopN = 5

var hundred = decimal.NewFromInt(100)

// Totals are the figures for the whole range.
type Totals struct {
	Orders        int             `json:"orders"`
	NetSales      decimal.Decimal `json:"net_sales"`
	Discounts     decimal.Decimal `json:"discounts"`
	Profit        decimal.Decimal `json:"profit"`
	Profitability decimal.Decimal `json:"profitability_pct"`
}

// Day holds the figures of one calendar day.
type Day struct {
	Date          string          `json:"date"`
	Orders        int             `json:"orders"`
	NetSales      decimal.Decimal `json:"net_sales"`
	Discounts     decimal.Decimal `json:"discounts"`
	Profit        decimal.Decimal `json:"profit"`
	Profitability decimal.Decimal `json:"profitability_pct"`
}

// CustomerRank is one row of the top customers table.
type CustomerRank struct {
	CustomerID int64           `json:"customer_id"`
	Name       string          `json:"name"`
	Orders     int             `json:"orders"`
	NetSales   decimal.Decimal `json:"net_sales"`
	Profit     decimal.Decimal `json:"profit"`
}

// ProductRank is one row of the top products table. Sales and profit are net
// of the product's share of each order discount.
type ProductRank struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Units     int64           `json:"units"`
	NetSales  decimal.Decimal `json:"net_sales"`
	Profit    decimal.Decimal `json:"profit"`
}

// Report is the full projection for a range.
type Report struct {
	From         string         `json:"from"`
	To           string         `json:"to"`
	Totals       Totals         `json:"totals"`
	Days         []Day          `json:"days"`
	TopCustomers []CustomerRank `json:"top_customers"`
	TopProducts  []ProductRank  `json:"top_products"`
}

// Profitability returns profit as a percentage of sales, or zero when there
// are no sales.
func Profitability(profit, sales decimal.Decimal) decimal.Decimal {
	if !sales.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(sales).Mul(hundred).Round(2)
}

type orderFigures struct {
	subtotal  decimal.Decimal
	discount  decimal.Decimal
	netSales  decimal.Decimal
	cost      decimal.Decimal
	profit    decimal.Decimal
	subtotals []decimal.Decimal
}

// figures derives an order's money values from its stored lines and discount
// percentage. Net sales is subtotal minus discount, so loss orders report
// negative sales.
func figures(o store.ReportOrder) orderFigures {
	f := orderFigures{subtotal: decimal.Zero, cost: decimal.Zero, subtotals: make([]decimal.Decimal, 0, len(o.Lines))}
	for _, l := range o.Lines {
		pl := pricing.Line{Quantity: int64(l.Quantity), UnitPrice: l.UnitPrice, UnitCost: l.UnitCost}
		sub := l.Subtotal
		if sub.IsZero() {
			sub = pl.Subtotal()
		}
		f.subtotal = f.subtotal.Add(sub)
		f.cost = f.cost.Add(pl.Cost())
		f.subtotals = append(f.subtotals, sub)
	}
	f.discount = pricing.DiscountAmount(f.subtotal, o.DiscountPct)
	f.netSales = f.subtotal.Sub(f.discount)
	f.profit = f.netSales.Sub(f.cost)
	return f
}

// Aggregate computes the report figures for orders. Days are keyed by the
// placement date in loc. It does not modify its input.
func Aggregate(orders []store.ReportOrder, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}
	totals := Totals{NetSales: decimal.Zero, Discounts: decimal.Zero, Profit: decimal.Zero}
	days := map[string]*Day{}
	customers := map[int64]*CustomerRank{}
	products := map[int64]*ProductRank{}

	for _, o := range orders {
		f := figures(o)
		totals.Orders++
		totals.NetSales = totals.NetSales.Add(f.netSales)
		totals.Discounts = totals.Discounts.Add(f.discount)
		totals.Profit = totals.Profit.Add(f.profit)

		key := o.PlacedAt.In(loc).Format("2006-01-02")
		day, ok := days[key]
		if !ok {
			day = &Day{Date: key, NetSales: decimal.Zero, Discounts: decimal.Zero, Profit: decimal.Zero}
			days[key] = day
		}
		day.Orders++
		day.NetSales = day.NetSales.Add(f.netSales)
		day.Discounts = day.Discounts.Add(f.discount)
		day.Profit = day.Profit.Add(f.profit)

		c, ok := customers[o.CustomerID]
		if !ok {
			c = &CustomerRank{CustomerID: o.CustomerID, Name: o.CustomerName, NetSales: decimal.Zero, Profit: decimal.Zero}
			customers[o.CustomerID] = c
		}
		c.Orders++
		c.NetSales = c.NetSales.Add(f.netSales)
		c.Profit = c.Profit.Add(f.profit)

		shares := pricing.AllocateDiscount(f.discount, f.subtotals)
		for i, l := range o.Lines {
			if !l.ProductID.Valid {
				continue
			}
			net := f.subtotals[i].Sub(shares[i])
			cost := l.UnitCost.Mul(decimal.NewFromInt32(l.Quantity))
			p, ok := products[l.ProductID.Int64]
			if !ok {
				name := l.Description
				if l.ProductName.Valid {
					name = l.ProductName.String
				}
				p = &ProductRank{ProductID: l.ProductID.Int64, Name: name, NetSales: decimal.Zero, Profit: decimal.Zero}
				products[l.ProductID.Int64] = p
			}
			p.Units += int64(l.Quantity)
			p.NetSales = p.NetSales.Add(net)
			p.Profit = p.Profit.Add(net.Sub(cost))
		}
	}
	totals.Profitability = Profitability(totals.Profit, totals.NetSales)
	totals.NetSales = cents(totals.NetSales)
	totals.Discounts = cents(totals.Discounts)
	totals.Profit = cents(totals.Profit)

	return Report{
		Totals:       totals,
		Days:         sortedDays(days),
		TopCustomers: topCustomers(customers),
		TopProducts:  topProducts(products),
	}
}

func sortedDays(days map[string]*Day) []Day {
	out := make([]Day, 0, len(days))
	for _, d := range days {
		d.Profitability = Profitability(d.Profit, d.NetSales)
		d.NetSales = cents(d.NetSales)
		d.Discounts = cents(d.Discounts)
		d.Profit = cents(d.Profit)
		out = append(out, *d)
	}
	// ISO dates sort lexically.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func topCustomers(m map[int64]*CustomerRank) []CustomerRank {
	out := make([]CustomerRank, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].NetSales.Cmp(out[j].NetSales); c != 0 {
			return c > 0
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	for i := range out {
		out[i].NetSales = cents(out[i].NetSales)
		out[i].Profit = cents(out[i].Profit)
	}
	return out
}

func topProducts(m map[int64]*ProductRank) []ProductRank {
	out := make([]ProductRank, 0, len(m))
	for _, p := range m {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].NetSales.Cmp(out[j].NetSales); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	for i := range out {
		out[i].NetSales = cents(out[i].NetSales)
		out[i].Profit = cents(out[i].Profit)
	}
	return out
}

// cents rounds a reported money figure. Sums are kept exact until output.
func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
