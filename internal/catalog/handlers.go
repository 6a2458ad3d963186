package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/noah-isme/backoffice/internal/common"
	"github.com/noah-isme/backoffice/internal/pricing"
)

// Handler exposes product endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type productRequest struct {
	Name          string             `json:"name" validate:"required,max=200"`
	PurchasePrice common.LooseString `json:"purchase_price"`
	SalePrice     common.LooseString `json:"sale_price"`
	Description   string             `json:"description"`
	Content       string             `json:"content"`
	Active        *bool              `json:"active"`
}

func decodeProduct(r *http.Request) (ProductInput, error) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ProductInput{}, common.NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	if err := common.Validate(req); err != nil {
		return ProductInput{}, err
	}
	// Unparseable prices are stored as zero, matching how line prices are read.
	purchase, _ := pricing.ParseDecimal(req.PurchasePrice.String())
	sale, _ := pricing.ParseDecimal(req.SalePrice.String())
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return ProductInput{
		Name:          req.Name,
		PurchasePrice: purchase,
		SalePrice:     sale,
		Description:   req.Description,
		Content:       req.Content,
		Active:        active,
	}, nil
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly, _ := strconv.ParseBool(q.Get("active"))
	items, err := h.service.List(r.Context(), ListParams{Query: q.Get("q"), ActiveOnly: activeOnly})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, items)
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProduct(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, p)
}

// Update handles PUT /api/v1/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	in, err := decodeProduct(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}
