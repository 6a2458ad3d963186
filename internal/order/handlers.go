package order

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/backoffice/internal/common"
)

// Handler exposes order endpoints.
type Handler struct {
	service *Service
	loc     *time.Location
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Location *time.Location
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: cfg.Service, loc: loc}
}

type lineRequest struct {
	ProductID   int64              `json:"product_id"`
	Description string             `json:"description" validate:"max=255"`
	Quantity    int64              `json:"quantity" validate:"max=2147483647"`
	UnitPrice   common.LooseString `json:"unit_price"`
}

type orderRequest struct {
	CustomerID     int64              `json:"customer_id" validate:"required,gt=0"`
	DeliveryAt     string             `json:"delivery_at"`
	ContactChannel string             `json:"contact_channel" validate:"max=100"`
	Notes          string             `json:"notes" validate:"max=2000"`
	Discount       common.LooseString `json:"discount"`
	Lines          []lineRequest      `json:"lines" validate:"dive"`
}

func (h *Handler) decodeInput(r *http.Request) (Input, error) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return Input{}, common.NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	if err := common.Validate(req); err != nil {
		return Input{}, err
	}
	in := Input{
		CustomerID:     req.CustomerID,
		DeliveryAt:     parseDelivery(req.DeliveryAt, h.loc),
		ContactChannel: req.ContactChannel,
		Notes:          req.Notes,
		Discount:       string(req.Discount),
		Lines:          make([]LineInput, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, LineInput{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   string(l.UnitPrice),
		})
	}
	return in, nil
}

// parseDelivery accepts a calendar day or an RFC 3339 timestamp; anything else
// clears the delivery date.
func parseDelivery(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if d := parseDay(raw, loc); d != nil {
		return d
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ParseFilter(q.Get("q"), q.Get("status"), q.Get("from"), q.Get("to"), h.loc)
	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, orders)
}

// Board handles GET /api/v1/orders/board.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, board)
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeInput(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, detail)
}

// Update handles PUT /api/v1/orders/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	in, err := h.decodeInput(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// Delete handles DELETE /api/v1/orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkDelivered handles POST /api/v1/orders/{id}/deliver.
func (h *Handler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.service.MarkDelivered(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}
