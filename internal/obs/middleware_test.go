package obs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("backoffice", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}

	samples := testutil.CollectAndCount(metrics.ReqDur)
	if samples == 0 {
		t.Fatalf("expected histogram sample")
	}

	if metrics.InFlight != nil {
		if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
			t.Fatalf("expected no in-flight requests, got %v", val)
		}
	}
}

func TestTracingMiddlewareNamesSpanAfterRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	router := chi.NewRouter()
	router.Use(obs.TracingMiddleware)
	router.Get("/api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil)
	ctx, span := tp.Tracer("test").Start(req.Context(), "server")
	req = req.WithContext(common.WithIdentity(ctx, common.Identity{UserID: 7, Username: "ana"}))
	router.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, "GET /api/v1/orders/{id}", ended[0].Name())
	require.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	require.Equal(t, int64(500), attrs["http.status_code"].AsInt64())
	require.Equal(t, int64(7), attrs["enduser.id"].AsInt64())
}

func TestDomainMetricsRecordOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("backoffice", registry)

	obs.ObserveOrderMutation("create", nil)
	obs.ObserveOrderMutation("create", errors.New("boom"))
	obs.ObserveLedgerEntry("credit")

	require.Equal(t, float64(1), testutil.ToFloat64(obs.OrderMutationsTotal.WithLabelValues("create", "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.OrderMutationsTotal.WithLabelValues("create", "error")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.LedgerEntriesTotal.WithLabelValues("credit")))
}

func TestHTTPMetricsReuseRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("", nil, registry)
	second := obs.NewHTTPMetrics("", []float64{50, 5}, registry)

	require.Same(t, first.ReqTotal, second.ReqTotal)
	first.ReqTotal.WithLabelValues(http.MethodPost, "/api/v1/orders", "201").Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(second.ReqTotal.WithLabelValues(http.MethodPost, "/api/v1/orders", "201")))
}

func TestHTTPMetricsLabelByRoutePattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("backoffice", nil, registry)

	router := chi.NewRouter()
	router.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	router.Get("/api/v1/customers/{id}/statement", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/customers/12/statement", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/customers/13/statement", nil))

	require.Equal(t, float64(2), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/customers/{id}/statement", "200")))
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, obs.ParseBucketsCSV(" "))
	require.Equal(t, []float64{10, 2.5}, obs.ParseBucketsCSV("10, x, -1, 0, 2.5,"))
}
