package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestWriteErrorAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, fmt.Errorf("wrapped: %w", NotFound("order")))
	require.Equal(t, http.StatusNotFound, rr.Code)
	body := decodeError(t, rr)
	require.Equal(t, "NOT_FOUND", body.Code)
	require.Equal(t, "order not found", body.Message)
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("pq: connection reset"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeError(t, rr)
	require.Equal(t, "INTERNAL", body.Code)
	require.NotContains(t, rr.Body.String(), "connection reset")
}

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Qty   int    `json:"qty" validate:"gte=0"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	require.NoError(t, Validate(sample{Name: "Ana"}))

	err := Validate(sample{Email: "nope", Qty: -1})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, map[string]string{"name": "required", "email": "email", "qty": "gte"}, appErr.Details)
}

func TestIDParamRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0", "-4", "abc", ""} {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", raw)
		_, err := IDParam(req, "id")
		require.Error(t, err, raw)
	}
	id, err := IDParam(withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "42"), "id")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}
