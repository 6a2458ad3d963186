package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backoffice/internal/store"
)

func TestParseFilterIsPermissive(t *testing.T) {
	f := ParseFilter(" ana ", "ALL", "2024-13-01", "2024-06-30", time.UTC)
	require.Equal(t, "ana", f.Customer)
	require.Empty(t, f.Status)
	require.Nil(t, f.From)
	require.NotNil(t, f.To)

	f = ParseFilter("", "delivered", "", "", time.UTC)
	require.Equal(t, store.OrderStatusDelivered, f.Status)
}

func TestListIncludesWholeToDay(t *testing.T) {
	db := seededDB()
	svc := newTestService(db)
	for _, placed := range []time.Time{
		time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 5, 23, 30, 0, 0, time.UTC),
		time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC),
	} {
		when := placed
		svc.now = func() time.Time { return when }
		_, err := svc.Create(context.Background(), Input{CustomerID: 1})
		require.NoError(t, err)
	}

	orders, err := svc.List(context.Background(), ParseFilter("", "", "2024-06-01", "2024-06-05", time.UTC))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, int64(2), orders[0].ID)
	require.Equal(t, "Ana Pérez", orders[0].CustomerName)
}

func at(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestBuildBoard(t *testing.T) {
	now := at(10, 15)
	orders := []Order{
		{ID: 1, Status: store.OrderStatusPending, PlacedAt: at(10, 9)},
		{ID: 2, Status: store.OrderStatusPending, PlacedAt: at(10, 11)},
		{ID: 3, Status: store.OrderStatusPending, PlacedAt: at(8, 9), DeliveryAt: ptr(at(12, 0))},
		{ID: 4, Status: store.OrderStatusPending, PlacedAt: at(7, 9)},
		{ID: 5, Status: store.OrderStatusPending, PlacedAt: at(6, 9), DeliveryAt: ptr(at(11, 0))},
		{ID: 6, Status: store.OrderStatusDelivered, PlacedAt: at(5, 9)},
		{ID: 7, Status: store.OrderStatusDelivered, PlacedAt: at(4, 9), DeliveryAt: ptr(at(9, 0))},
		{ID: 8, Status: store.OrderStatusDelivered, PlacedAt: at(3, 9), DeliveryAt: ptr(at(9, 0))},
		{ID: 9, Status: store.OrderStatusDelivered, PlacedAt: at(2, 9), DeliveryAt: ptr(at(8, 0))},
	}

	board := BuildBoard(orders, now, time.UTC)
	require.Equal(t, []int64{2, 1}, ids(board.PlacedToday))
	require.Equal(t, []int64{4, 5, 3}, ids(board.Pending))
	require.Equal(t, []int64{7, 8, 9, 6}, ids(board.Delivered))
}

func TestBuildBoardUsesLocationForToday(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC)
	orders := []Order{{ID: 1, Status: store.OrderStatusPending, PlacedAt: time.Date(2024, 6, 9, 23, 0, 0, 0, time.UTC)}}

	board := BuildBoard(orders, now, loc)
	require.Equal(t, []int64{1}, ids(board.PlacedToday))
	require.Empty(t, board.Pending)
}

func ids(orders []Order) []int64 {
	out := make([]int64, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}
