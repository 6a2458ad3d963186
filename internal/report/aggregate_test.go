package report

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backoffice/internal/pricing"
	"github.com/noah-isme/backoffice/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(productID int64, name string, qty int32, price, cost string) store.ReportLine {
	p, c := dec(price), dec(cost)
	return store.ReportLine{
		ProductID:   pgtype.Int8{Int64: productID, Valid: true},
		ProductName: pgtype.Text{String: name, Valid: true},
		Description: name,
		Quantity:    qty,
		UnitPrice:   p,
		UnitCost:    c,
		Subtotal:    p.Mul(decimal.NewFromInt32(qty)),
	}
}

// scenarioOrder is 3 x 10.00 (cost 6) plus 1 x 20.00 (cost 12) at 10% off.
func scenarioOrder(id, customerID int64, name string, placed time.Time) store.ReportOrder {
	return store.ReportOrder{
		ID:           id,
		CustomerID:   customerID,
		CustomerName: name,
		PlacedAt:     placed,
		DiscountPct:  dec("10"),
		Total:        dec("45"),
		Lines: []store.ReportLine{
			line(10, "Alfajor", 3, "10", "6"),
			line(20, "Torta", 1, "20", "12"),
		},
	}
}

func TestAggregateEmptyRange(t *testing.T) {
	rep := Aggregate(nil, time.UTC)

	require.Zero(t, rep.Totals.Orders)
	require.True(t, rep.Totals.NetSales.IsZero())
	require.True(t, rep.Totals.Discounts.IsZero())
	require.True(t, rep.Totals.Profit.IsZero())
	require.True(t, rep.Totals.Profitability.IsZero())
	require.Empty(t, rep.Days)
	require.Empty(t, rep.TopCustomers)
	require.Empty(t, rep.TopProducts)
}

func TestAggregateSingleOrder(t *testing.T) {
	placed := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	rep := Aggregate([]store.ReportOrder{scenarioOrder(1, 7, "Ana", placed)}, time.UTC)

	require.Equal(t, 1, rep.Totals.Orders)
	require.True(t, rep.Totals.NetSales.Equal(dec("45")))
	require.True(t, rep.Totals.Discounts.Equal(dec("5")))
	require.True(t, rep.Totals.Profit.Equal(dec("15")))
	require.True(t, rep.Totals.Profitability.Equal(dec("33.33")))

	require.Len(t, rep.Days, 1)
	require.Equal(t, "2024-06-03", rep.Days[0].Date)

	require.Len(t, rep.TopProducts, 2)
	alfajor := rep.TopProducts[0]
	require.Equal(t, int64(10), alfajor.ProductID)
	require.Equal(t, int64(3), alfajor.Units)
	require.True(t, alfajor.NetSales.Equal(dec("27")))
	require.True(t, alfajor.Profit.Equal(dec("9")))
	require.True(t, rep.TopProducts[1].NetSales.Equal(dec("18")))
}

func TestAggregateDoesNotMutateAndIsRepeatable(t *testing.T) {
	placed := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	orders := []store.ReportOrder{
		scenarioOrder(1, 7, "Ana", placed),
		scenarioOrder(2, 8, "Beto", placed.Add(-48*time.Hour)),
	}
	first := Aggregate(orders, time.UTC)
	second := Aggregate(orders, time.UTC)

	require.Equal(t, first, second)
	require.True(t, orders[0].Total.Equal(dec("45")))
	require.Len(t, orders[0].Lines, 2)
}

func TestAggregateDaysDescendingInLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	orders := []store.ReportOrder{
		scenarioOrder(1, 7, "Ana", time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)),
		scenarioOrder(2, 7, "Ana", time.Date(2024, 6, 3, 2, 0, 0, 0, time.UTC)),
		scenarioOrder(3, 7, "Ana", time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)),
	}
	rep := Aggregate(orders, loc)

	require.Len(t, rep.Days, 3)
	require.Equal(t, []string{"2024-06-03", "2024-06-02", "2024-06-01"}, []string{rep.Days[0].Date, rep.Days[1].Date, rep.Days[2].Date})
	require.Equal(t, 1, rep.Days[0].Orders)
}

func TestAggregateTopCustomersLimitAndTies(t *testing.T) {
	placed := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	var orders []store.ReportOrder
	for i := int64(1); i <= 7; i++ {
		orders = append(orders, scenarioOrder(i, 100-i, "C", placed))
	}
	orders = append(orders, scenarioOrder(8, 99, "C", placed))

	rep := Aggregate(orders, time.UTC)
	require.Len(t, rep.TopCustomers, TopN)
	require.Equal(t, int64(99), rep.TopCustomers[0].CustomerID)
	require.True(t, rep.TopCustomers[0].NetSales.Equal(dec("90")))
	got := []int64{}
	for _, c := range rep.TopCustomers[1:] {
		got = append(got, c.CustomerID)
	}
	require.Equal(t, []int64{93, 94, 95, 96}, got)
}

func TestAggregateSkipsDeletedProducts(t *testing.T) {
	o := scenarioOrder(1, 7, "Ana", time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC))
	o.Lines[1].ProductID = pgtype.Int8{}
	o.Lines[1].ProductName = pgtype.Text{}

	rep := Aggregate([]store.ReportOrder{o}, time.UTC)
	require.Len(t, rep.TopProducts, 1)
	require.True(t, rep.Totals.NetSales.Equal(dec("45")))
}

func TestAggregateZeroSubtotalOrder(t *testing.T) {
	o := store.ReportOrder{
		ID: 1, CustomerID: 7, CustomerName: "Ana",
		PlacedAt: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
		Total:    decimal.Zero,
		Lines:    []store.ReportLine{line(10, "Muestra", 2, "0", "1")},
	}
	rep := Aggregate([]store.ReportOrder{o}, time.UTC)

	require.True(t, rep.Totals.Profit.Equal(dec("-2")))
	require.True(t, rep.Totals.Profitability.IsZero())
	require.True(t, rep.TopProducts[0].NetSales.IsZero())
}

func TestAllocatedDiscountsSumToOrderDiscount(t *testing.T) {
	subtotals := []decimal.Decimal{dec("33.33"), dec("12.01"), dec("0.99"), dec("7")}
	discount := dec("5.31")

	shares := pricing.AllocateDiscount(discount, subtotals)
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	require.True(t, sum.Sub(discount).Abs().LessThan(dec("0.000001")))
}

func TestProfitability(t *testing.T) {
	require.True(t, Profitability(dec("15"), dec("45")).Equal(dec("33.33")))
	require.True(t, Profitability(dec("5"), decimal.Zero).IsZero())
	require.True(t, Profitability(dec("-5"), dec("-10")).IsZero())
}

func TestAggregateLossOrderUsesDiscountPct(t *testing.T) {
	o := store.ReportOrder{
		ID: 1, CustomerID: 7, CustomerName: "Ana",
		PlacedAt:    time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
		DiscountPct: dec("10"),
		Total:       decimal.Zero,
		Lines:       []store.ReportLine{line(10, "Devolución", 1, "-20", "0")},
	}
	rep := Aggregate([]store.ReportOrder{o}, time.UTC)

	require.True(t, rep.Totals.Discounts.Equal(dec("-2")))
	require.True(t, rep.Totals.NetSales.Equal(dec("-18")))
	require.True(t, rep.Totals.Profit.Equal(dec("-18")))
	require.True(t, rep.Totals.Profitability.IsZero())
	require.True(t, rep.TopCustomers[0].NetSales.Equal(dec("-18")))
	require.True(t, rep.TopProducts[0].NetSales.Equal(dec("-20")))
}

func TestAggregateRoundsAllFiguresToCents(t *testing.T) {
	o := store.ReportOrder{
		ID: 1, CustomerID: 7, CustomerName: "Ana",
		PlacedAt: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
		Total:    dec("10.01"),
		Lines:    []store.ReportLine{line(10, "Alfajor", 1, "10.005", "4.0025")},
	}
	rep := Aggregate([]store.ReportOrder{o}, time.UTC)

	want := dec("10.01")
	require.True(t, rep.Totals.NetSales.Equal(want), rep.Totals.NetSales.String())
	require.True(t, rep.Days[0].NetSales.Equal(want))
	require.True(t, rep.TopCustomers[0].NetSales.Equal(want))
	require.True(t, rep.TopProducts[0].NetSales.Equal(want))

	profit := dec("6")
	require.True(t, rep.Totals.Profit.Equal(profit), rep.Totals.Profit.String())
	require.True(t, rep.Days[0].Profit.Equal(profit))
	require.True(t, rep.TopCustomers[0].Profit.Equal(profit))
	require.True(t, rep.TopProducts[0].Profit.Equal(profit))
}
