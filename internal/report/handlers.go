package report

import (
	"bytes"
	"net/http"

	"github.com/noah-isme/backoffice/internal/common"
)

// Handler serves report endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Report handles GET /api/v1/reports.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := h.service.Build(r.Context(), h.service.ParseRange(q.Get("from"), q.Get("to")))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rep)
}

// Export handles GET /api/v1/reports/export and streams the daily rows as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng := h.service.ParseRange(q.Get("from"), q.Get("to"))
	rep, err := h.service.Build(r.Context(), rng)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rep.Days); err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+rng.Filename())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
