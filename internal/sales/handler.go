package sales

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes sale endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers sale endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.sell)
	r.Route("/{saleID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
	})
}

type sellRequest struct {
	BatchID   int64   `json:"batchId" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Weight    float64 `json:"weight" validate:"required,gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Buyer     string  `json:"buyer" validate:"max=160"`
	Reference string  `json:"reference" validate:"max=120"`
	SoldAt    string  `json:"soldAt" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) sell(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req sellRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var soldAt time.Time
	if req.SoldAt != "" {
		soldAt, _ = time.Parse("2006-01-02", req.SoldAt)
	}
	sale, err := h.svc.Sell(r.Context(), SellInput{
		FarmID:    farmID,
		BatchID:   req.BatchID,
		Quantity:  req.Quantity,
		Weight:    req.Weight,
		UnitPrice: req.UnitPrice,
		Buyer:     req.Buyer,
		Reference: req.Reference,
		SoldAt:    soldAt,
		ActorID:   p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var batchID *int64
	if raw := r.URL.Query().Get("batchId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.E(shared.KindValidation, "batchId must be a positive integer"))
			return
		}
		batchID = &id
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sales, err := h.svc.List(r.Context(), farmID, batchID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if sales == nil {
		sales = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, sales)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	saleID, err := httpx.PathID(r, "saleID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.svc.Get(r.Context(), saleID, farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	saleID, err := httpx.PathID(r, "saleID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), saleID, farmID, p.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
