package order

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backoffice/internal/store"
)

var errInjected = errors.New("injected failure")

type fakeState struct {
	customers  map[int64]store.Customer
	products   map[int64]store.Product
	orders     map[int64]store.Order
	lines      []store.OrderLine
	ledger     []store.LedgerEntry
	nextOrder  int64
	nextLine   int64
	nextLedger int64
}

func (s fakeState) clone() fakeState {
	out := s
	out.customers = make(map[int64]store.Customer, len(s.customers))
	for k, v := range s.customers {
		out.customers[k] = v
	}
	out.products = make(map[int64]store.Product, len(s.products))
	for k, v := range s.products {
		out.products[k] = v
	}
	out.orders = make(map[int64]store.Order, len(s.orders))
	for k, v := range s.orders {
		out.orders[k] = v
	}
	out.lines = append([]store.OrderLine(nil), s.lines...)
	out.ledger = append([]store.LedgerEntry(nil), s.ledger...)
	return out
}

// fakeDB is an in-memory Querier and TxRunner. A failed transaction restores
// the state captured when it began.
type fakeDB struct {
	state  fakeState
	failOn string
}

func newFakeDB() *fakeDB {
	return &fakeDB{state: fakeState{
		customers: map[int64]store.Customer{},
		products:  map[int64]store.Product{},
		orders:    map[int64]store.Order{},
	}}
}

func (f *fakeDB) InTx(_ context.Context, fn func(Querier) error) error {
	snapshot := f.state.clone()
	if err := fn(f); err != nil {
		f.state = snapshot
		return err
	}
	return nil
}

func (f *fakeDB) fail(op string) error {
	if f.failOn == op {
		return errInjected
	}
	return nil
}

func (f *fakeDB) GetCustomer(_ context.Context, id int64) (store.Customer, error) {
	c, ok := f.state.customers[id]
	if !ok {
		return store.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeDB) GetProduct(_ context.Context, id int64) (store.Product, error) {
	p, ok := f.state.products[id]
	if !ok {
		return store.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeDB) CreateOrder(_ context.Context, arg store.CreateOrderParams) (store.Order, error) {
	if err := f.fail("CreateOrder"); err != nil {
		return store.Order{}, err
	}
	f.state.nextOrder++
	o := store.Order{
		ID:             f.state.nextOrder,
		CustomerID:     arg.CustomerID,
		PlacedAt:       arg.PlacedAt,
		DeliveryAt:     arg.DeliveryAt,
		Status:         arg.Status,
		ContactChannel: arg.ContactChannel,
		Notes:          arg.Notes,
		DiscountPct:    arg.DiscountPct,
		Total:          arg.Total,
		CreatedAt:      arg.PlacedAt,
		UpdatedAt:      arg.PlacedAt,
	}
	f.state.orders[o.ID] = o
	return o, nil
}

func (f *fakeDB) GetOrder(_ context.Context, id int64) (store.Order, error) {
	o, ok := f.state.orders[id]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (f *fakeDB) UpdateOrder(_ context.Context, arg store.UpdateOrderParams) (store.Order, error) {
	o, ok := f.state.orders[arg.ID]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	o.CustomerID = arg.CustomerID
	o.DeliveryAt = arg.DeliveryAt
	o.ContactChannel = arg.ContactChannel
	o.Notes = arg.Notes
	o.DiscountPct = arg.DiscountPct
	o.Total = arg.Total
	f.state.orders[o.ID] = o
	return o, nil
}

func (f *fakeDB) MarkOrderDelivered(_ context.Context, id int64, at time.Time) (store.Order, error) {
	o, ok := f.state.orders[id]
	if !ok {
		return store.Order{}, pgx.ErrNoRows
	}
	o.Status = store.OrderStatusDelivered
	if !o.DeliveryAt.Valid {
		o.DeliveryAt.Time, o.DeliveryAt.Valid = at, true
	}
	f.state.orders[id] = o
	return o, nil
}

func (f *fakeDB) DeleteOrder(_ context.Context, id int64) (int64, error) {
	if err := f.fail("DeleteOrder"); err != nil {
		return 0, err
	}
	if _, ok := f.state.orders[id]; !ok {
		return 0, nil
	}
	for _, e := range f.state.ledger {
		if e.OrderID.Valid && e.OrderID.Int64 == id {
			return 0, &pgconn.PgError{Code: "23503"}
		}
	}
	delete(f.state.orders, id)
	kept := f.state.lines[:0]
	for _, l := range f.state.lines {
		if l.OrderID != id {
			kept = append(kept, l)
		}
	}
	f.state.lines = kept
	return 1, nil
}

func (f *fakeDB) ListOrders(_ context.Context, arg store.ListOrdersParams) ([]store.OrderListRow, error) {
	out := []store.OrderListRow{}
	for _, o := range f.state.orders {
		name := f.state.customers[o.CustomerID].Name
		if arg.CustomerSearch != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(arg.CustomerSearch)) {
			continue
		}
		if arg.Status != "" && o.Status != arg.Status {
			continue
		}
		if arg.From.Valid && o.PlacedAt.Before(arg.From.Time) {
			continue
		}
		if arg.To.Valid && !o.PlacedAt.Before(arg.To.Time) {
			continue
		}
		out = append(out, store.OrderListRow{Order: o, CustomerName: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.After(out[j].PlacedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeDB) CreateOrderLine(_ context.Context, arg store.CreateOrderLineParams) (store.OrderLine, error) {
	if err := f.fail("CreateOrderLine"); err != nil {
		return store.OrderLine{}, err
	}
	f.state.nextLine++
	l := store.OrderLine{
		ID:          f.state.nextLine,
		OrderID:     arg.OrderID,
		ProductID:   arg.ProductID,
		Position:    arg.Position,
		Description: arg.Description,
		Quantity:    arg.Quantity,
		UnitPrice:   arg.UnitPrice,
		UnitCost:    arg.UnitCost,
		Subtotal:    arg.Subtotal,
	}
	f.state.lines = append(f.state.lines, l)
	return l, nil
}

func (f *fakeDB) ListOrderLines(_ context.Context, orderID int64) ([]store.OrderLine, error) {
	out := []store.OrderLine{}
	for _, l := range f.state.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeDB) DeleteOrderLines(_ context.Context, orderID int64) error {
	kept := f.state.lines[:0]
	for _, l := range f.state.lines {
		if l.OrderID != orderID {
			kept = append(kept, l)
		}
	}
	f.state.lines = kept
	return nil
}

func (f *fakeDB) CreateLedgerEntry(_ context.Context, arg store.CreateLedgerEntryParams) (store.LedgerEntry, error) {
	if err := f.fail("CreateLedgerEntry"); err != nil {
		return store.LedgerEntry{}, err
	}
	if arg.OrderID.Valid {
		for _, e := range f.state.ledger {
			if e.OrderID.Valid && e.OrderID.Int64 == arg.OrderID.Int64 {
				return store.LedgerEntry{}, &pgconn.PgError{Code: "23505"}
			}
		}
	}
	f.state.nextLedger++
	e := store.LedgerEntry{
		ID:          f.state.nextLedger,
		CustomerID:  arg.CustomerID,
		OrderID:     arg.OrderID,
		Kind:        arg.Kind,
		Amount:      arg.Amount,
		Description: arg.Description,
		CreatedAt:   arg.CreatedAt,
	}
	f.state.ledger = append(f.state.ledger, e)
	return e, nil
}

func (f *fakeDB) orderDebitIndex(orderID int64) int {
	for i, e := range f.state.ledger {
		if e.Kind == store.LedgerDebit && e.OrderID.Valid && e.OrderID.Int64 == orderID {
			return i
		}
	}
	return -1
}

func (f *fakeDB) GetOrderDebit(_ context.Context, orderID int64) (store.LedgerEntry, error) {
	i := f.orderDebitIndex(orderID)
	if i < 0 {
		return store.LedgerEntry{}, pgx.ErrNoRows
	}
	return f.state.ledger[i], nil
}

func (f *fakeDB) UpdateOrderDebit(_ context.Context, arg store.UpdateOrderDebitParams) (store.LedgerEntry, error) {
	if err := f.fail("UpdateOrderDebit"); err != nil {
		return store.LedgerEntry{}, err
	}
	i := f.orderDebitIndex(arg.OrderID)
	if i < 0 {
		return store.LedgerEntry{}, pgx.ErrNoRows
	}
	f.state.ledger[i].Amount = arg.Amount
	f.state.ledger[i].CustomerID = arg.CustomerID
	return f.state.ledger[i], nil
}

func (f *fakeDB) DeleteOrderDebits(_ context.Context, orderID int64) (int64, error) {
	var n int64
	kept := f.state.ledger[:0]
	for _, e := range f.state.ledger {
		if e.Kind == store.LedgerDebit && e.OrderID.Valid && e.OrderID.Int64 == orderID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.state.ledger = kept
	return n, nil
}

func (f *fakeDB) debitsFor(orderID int64) []store.LedgerEntry {
	var out []store.LedgerEntry
	for _, e := range f.state.ledger {
		if e.Kind == store.LedgerDebit && e.OrderID.Valid && e.OrderID.Int64 == orderID {
			out = append(out, e)
		}
	}
	return out
}
