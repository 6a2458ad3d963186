package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedQuery(t *testing.T, sql string, err error, tag pgconn.CommandTag) sdktrace.ReadOnlySpan {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := PGXTracer{TracerProvider: tp}
	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: sql, Args: []any{int64(1)}})
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{CommandTag: tag, Err: err})

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	return ended[0]
}

func TestPGXTracerNamesSpanByOperation(t *testing.T) {
	span := tracedQuery(t, "  update orders set status = $1 where id = $2", nil, pgconn.NewCommandTag("UPDATE 1"))
	require.Equal(t, "pgx UPDATE", span.Name())
	require.Equal(t, codes.Unset, span.Status().Code)

	attrs := map[string]any{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.Equal(t, "UPDATE", attrs["db.operation"])
	require.Equal(t, int64(1), attrs["db.rows_affected"])
	require.Equal(t, int64(1), attrs["db.args"])
}

func TestPGXTracerTreatsNoRowsAsSuccess(t *testing.T) {
	span := tracedQuery(t, "SELECT id FROM customers WHERE id = $1", pgx.ErrNoRows, pgconn.CommandTag{})
	require.Equal(t, codes.Unset, span.Status().Code)
	require.Empty(t, span.Events())
}

func TestPGXTracerRecordsFailures(t *testing.T) {
	span := tracedQuery(t, "INSERT INTO ledger_entries DEFAULT VALUES", errors.New("check constraint"), pgconn.CommandTag{})
	require.Equal(t, codes.Error, span.Status().Code)
	require.Len(t, span.Events(), 1)
}

func TestTruncateSQL(t *testing.T) {
	long := make([]byte, maxStatementLen+20)
	for i := range long {
		long[i] = 'x'
	}
	require.Len(t, truncateSQL(string(long)), maxStatementLen+3)
}
