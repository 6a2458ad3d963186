package common

import (
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the caller address used for rate limiting and audit rows.
// Only RemoteAddr is read; chi's RealIP middleware folds proxy headers into it.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	raw := strings.TrimSpace(r.RemoteAddr)
	if raw == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(raw, "[]")); err == nil {
		return addr.Unmap().String()
	}
	return raw
}
