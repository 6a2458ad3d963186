package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestHandler(db *fakeDB) *Handler {
	return NewHandler(HandlerConfig{Service: newTestService(db)})
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateHandlerAcceptsNumbersAndText(t *testing.T) {
	db := seededDB()
	h := newTestHandler(db)

	body := `{"customer_id":1,"discount":10,"delivery_at":"2024-06-12","lines":[{"product_id":10,"quantity":3,"unit_price":"10,00"},{"product_id":20,"quantity":1,"unit_price":20}]}`
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp struct {
		Data struct {
			ID         int64   `json:"id"`
			Total      string  `json:"total"`
			DeliveryAt *string `json:"delivery_at"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "45", resp.Data.Total)
	require.NotNil(t, resp.Data.DeliveryAt)
	require.Len(t, db.debitsFor(resp.Data.ID), 1)
}

func TestCreateHandlerRequiresCustomer(t *testing.T) {
	h := newTestHandler(seededDB())

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{"lines":[]}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "customer_id")
}

func TestCreateHandlerRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(seededDB())

	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "BAD_REQUEST")
}

func TestDeleteHandler(t *testing.T) {
	db := seededDB()
	h := newTestHandler(db)
	created, err := newTestService(db).Create(context.Background(), scenarioA())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.Delete(rr, withID(httptest.NewRequest(http.MethodDelete, "/api/v1/orders/1", nil), "1"))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, db.debitsFor(created.ID))

	rr = httptest.NewRecorder()
	h.Delete(rr, withID(httptest.NewRequest(http.MethodDelete, "/api/v1/orders/1", nil), "1"))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetHandlerBadID(t *testing.T) {
	h := newTestHandler(seededDB())

	rr := httptest.NewRecorder()
	h.Get(rr, withID(httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil), "abc"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBoardHandler(t *testing.T) {
	db := seededDB()
	h := newTestHandler(db)
	_, err := newTestService(db).Create(context.Background(), scenarioA())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.Board(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders/board", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data Board `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.PlacedToday, 1)
	require.Empty(t, resp.Data.Pending)
}

func TestCreateHandlerRejectsQuantityOverflow(t *testing.T) {
	db := seededDB()
	h := newTestHandler(db)

	body := `{"customer_id":1,"lines":[{"product_id":10,"quantity":2147483648,"unit_price":"0.01"}]}`
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION_ERROR")
	require.Empty(t, db.state.orders)
}
