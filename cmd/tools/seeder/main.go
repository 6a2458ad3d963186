package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backoffice/internal/db"
	"github.com/noah-isme/backoffice/internal/ledger"
	"github.com/noah-isme/backoffice/internal/obs"
	"github.com/noah-isme/backoffice/internal/order"
	"github.com/noah-isme/backoffice/internal/store"
)

func main() {
	logger := obs.NewLogger("console", "info")
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, dsn, "backoffice-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	queries := store.New(pool)

	existing, err := queries.ListProducts(ctx, store.ListProductsParams{})
	if err != nil {
		logger.Fatal().Err(err).Msg("list products")
	}
	if len(existing) > 0 {
		logger.Info().Int("products", len(existing)).Msg("database already seeded")
		return
	}

	products := seedProducts(ctx, logger, queries)
	customers := seedCustomers(ctx, logger, queries)
	seedOrders(ctx, logger, queries, pool, products, customers)
	logger.Info().Msg("seeding completed")
}

func seedProducts(ctx context.Context, logger zerolog.Logger, q *store.Queries) []store.Product {
	items := []struct {
		name, cost, price, content string
	}{
		{"Torta de frutillas", "5200", "9800", "1 kg"},
		{"Alfajores de maicena x12", "1800", "3600", "12 u"},
		{"Budín de limón", "1500", "3200", "500 g"},
		{"Tarta de ricota", "3900", "7400", "1 kg"},
		{"Cookies de chocolate x6", "1100", "2500", "6 u"},
	}
	out := make([]store.Product, 0, len(items))
	for _, it := range items {
		p, err := q.CreateProduct(ctx, store.ProductParams{
			Name:          it.name,
			PurchasePrice: decimal.RequireFromString(it.cost),
			SalePrice:     decimal.RequireFromString(it.price),
			Content:       it.content,
			Active:        true,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("product", it.name).Msg("create product")
		}
		out = append(out, p)
	}
	logger.Info().Int("count", len(out)).Msg("products seeded")
	return out
}

func seedCustomers(ctx context.Context, logger zerolog.Logger, q *store.Queries) []store.Customer {
	items := []store.CustomerParams{
		{Name: "Lucía Fernández", Phone: "351 555 0101", City: "Córdoba"},
		{Name: "Martín Gómez", Phone: "351 555 0102", City: "Córdoba"},
		{Name: "Café Central", Phone: "351 555 0103", Email: "compras@cafecentral.test", City: "Villa Allende"},
	}
	out := make([]store.Customer, 0, len(items))
	for _, it := range items {
		c, err := q.CreateCustomer(ctx, it)
		if err != nil {
			logger.Fatal().Err(err).Str("customer", it.Name).Msg("create customer")
		}
		out = append(out, c)
	}
	logger.Info().Int("count", len(out)).Msg("customers seeded")
	return out
}

// seedOrders goes through the order and ledger services so totals and
// account debits are computed the same way the API does.
func seedOrders(ctx context.Context, logger zerolog.Logger, q *store.Queries, pool store.TxBeginner, products []store.Product, customers []store.Customer) {
	orders := order.NewService(order.ServiceConfig{Queries: q, Tx: order.PGTx{DB: pool, Q: q}})
	payments := ledger.NewService(ledger.ServiceConfig{Queries: q})

	tomorrow := time.Now().AddDate(0, 0, 1)
	inputs := []order.Input{
		{
			CustomerID: customers[0].ID,
			DeliveryAt: &tomorrow,
			Lines: []order.LineInput{
				{ProductID: products[0].ID, Quantity: 1},
				{ProductID: products[1].ID, Quantity: 2},
			},
		},
		{
			CustomerID:     customers[2].ID,
			ContactChannel: "whatsapp",
			Discount:       "10",
			Lines: []order.LineInput{
				{ProductID: products[2].ID, Quantity: 4},
				{ProductID: products[4].ID, Quantity: 6},
			},
		},
		{
			CustomerID: customers[1].ID,
			Lines: []order.LineInput{
				{Description: "Torta personalizada", Quantity: 1, UnitPrice: "15000"},
			},
		},
	}
	created := make([]int64, 0, len(inputs))
	for i, in := range inputs {
		detail, err := orders.Create(ctx, in)
		if err != nil {
			logger.Fatal().Err(err).Int("index", i).Msg("create order")
		}
		created = append(created, detail.ID)
		logger.Info().Int64("order_id", detail.ID).Str("total", detail.Summary.Total.StringFixed(2)).Msg("order seeded")
	}

	if _, err := orders.MarkDelivered(ctx, created[1]); err != nil {
		logger.Warn().Err(err).Msg("mark seeded order delivered")
	}
	if _, err := payments.RecordPayment(ctx, customers[2].ID, ledger.PaymentInput{Amount: decimal.NewFromInt(20000), Description: "Transferencia"}); err != nil {
		logger.Fatal().Err(err).Msg("record payment")
	}
}
