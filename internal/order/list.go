package order

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backoffice/internal/store"
)

const dateLayout = "2006-01-02"

// Filter narrows the order list. From and To are inclusive calendar days.
type Filter struct {
	Customer string
	Status   string
	From     *time.Time
	To       *time.Time
}

// ParseFilter reads list filters from raw query values. Unknown statuses and
// malformed dates are ignored rather than rejected.
func ParseFilter(customer, status, from, to string, loc *time.Location) Filter {
	f := Filter{Customer: strings.TrimSpace(customer)}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case store.OrderStatusPending:
		f.Status = store.OrderStatusPending
	case store.OrderStatusDelivered:
		f.Status = store.OrderStatusDelivered
	}
	f.From = parseDay(from, loc)
	f.To = parseDay(to, loc)
	return f
}

func parseDay(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil
	}
	return &d
}

// List returns orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	params := store.ListOrdersParams{CustomerSearch: f.Customer, Status: f.Status}
	if f.From != nil {
		params.From = pgtype.Timestamptz{Time: *f.From, Valid: true}
	}
	if f.To != nil {
		params.To = pgtype.Timestamptz{Time: f.To.AddDate(0, 0, 1), Valid: true}
	}
	rows, err := s.q.ListOrders(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOrder(row.Order, row.CustomerName))
	}
	return out, nil
}

// Board groups orders for the daily dispatch view.
type Board struct {
	PlacedToday []Order `json:"placed_today"`
	Pending     []Order `json:"pending"`
	Delivered   []Order `json:"delivered"`
}

// Board loads every order and groups it relative to today.
func (s *Service) Board(ctx context.Context) (Board, error) {
	orders, err := s.List(ctx, Filter{})
	if err != nil {
		return Board{}, err
	}
	return BuildBoard(orders, s.clock(), s.loc), nil
}

// BuildBoard splits orders into pending orders placed today, older pending
// orders and delivered orders.
//
// Today's orders are newest first. Older pending orders without a delivery date
// come first, then by delivery date and placement. Delivered orders are by
// delivery date descending with undated ones last, then placement descending.
func BuildBoard(orders []Order, now time.Time, loc *time.Location) Board {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	tomorrow := today.AddDate(0, 0, 1)

	b := Board{PlacedToday: []Order{}, Pending: []Order{}, Delivered: []Order{}}
	for _, o := range orders {
		switch o.Status {
		case store.OrderStatusDelivered:
			b.Delivered = append(b.Delivered, o)
		case store.OrderStatusPending:
			switch {
			case !o.PlacedAt.Before(today) && o.PlacedAt.Before(tomorrow):
				b.PlacedToday = append(b.PlacedToday, o)
			case o.PlacedAt.Before(today):
				b.Pending = append(b.Pending, o)
			}
		}
	}

	sort.SliceStable(b.PlacedToday, func(i, j int) bool {
		return b.PlacedToday[i].PlacedAt.After(b.PlacedToday[j].PlacedAt)
	})
	sort.SliceStable(b.Pending, func(i, j int) bool {
		a, c := b.Pending[i], b.Pending[j]
		if (a.DeliveryAt == nil) != (c.DeliveryAt == nil) {
			return a.DeliveryAt == nil
		}
		if a.DeliveryAt != nil && !a.DeliveryAt.Equal(*c.DeliveryAt) {
			return a.DeliveryAt.Before(*c.DeliveryAt)
		}
		return a.PlacedAt.Before(c.PlacedAt)
	})
	sort.SliceStable(b.Delivered, func(i, j int) bool {
		a, c := b.Delivered[i], b.Delivered[j]
		if (a.DeliveryAt == nil) != (c.DeliveryAt == nil) {
			return a.DeliveryAt != nil
		}
		if a.DeliveryAt != nil && !a.DeliveryAt.Equal(*c.DeliveryAt) {
			return a.DeliveryAt.After(*c.DeliveryAt)
		}
		return a.PlacedAt.After(c.PlacedAt)
	})
	return b
}
