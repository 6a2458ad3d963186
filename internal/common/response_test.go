package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataRendersNilSliceAsEmptyArray(t *testing.T) {
	var items []string
	rr := httptest.NewRecorder()
	Data(rr, http.StatusOK, items)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"data":[]}`, rr.Body.String())
}

func TestPageIncludesMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	Page(rr, http.StatusOK, []int{1, 2}, map[string]int{"limit": 2, "offset": 0})
	require.JSONEq(t, `{"data":[1,2],"meta":{"limit":2,"offset":0}}`, rr.Body.String())
}

func TestClientIPUsesRemoteAddrOnly(t *testing.T) {
	cases := map[string]string{
		"10.0.0.2:54321":          "10.0.0.2",
		"[2001:db8::1]:443":       "2001:db8::1",
		"[::ffff:192.0.2.7]:8080": "192.0.2.7",
		"192.0.2.9":               "192.0.2.9",
		"unix-socket":             "unix-socket",
	}
	for remote, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		require.Equal(t, want, ClientIP(req), remote)
	}
}
