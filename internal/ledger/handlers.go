package ledger

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/pricing"
)

// Handler serves customer account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Statement handles GET /api/v1/customers/{id}/statement.
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	statement, err := h.service.Statement(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, statement)
}

type paymentRequest struct {
	Amount      common.LooseString `json:"amount" validate:"required"`
	Description string             `json:"description" validate:"max=255"`
}

// RecordPayment handles POST /api/v1/customers/{id}/payments.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := common.Validate(req); err != nil {
		common.WriteError(w, err)
		return
	}
	amount, ok := pricing.ParseDecimal(req.Amount.String())
	if !ok {
		common.WriteError(w, common.Validation("invalid amount", map[string]string{"amount": "decimal"}))
		return
	}
	entry, err := h.service.RecordPayment(r.Context(), id, PaymentInput{Amount: amount, Description: req.Description})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, entry)
}
