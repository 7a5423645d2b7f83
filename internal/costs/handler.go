package costs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes cost endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers cost endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Get("/summary", h.summary)
}

type recordRequest struct {
	BatchID     *int64  `json:"batchId" validate:"omitempty,gt=0"`
	ShedID      *int64  `json:"shedId" validate:"omitempty,gt=0"`
	Category    string  `json:"category" validate:"required,oneof=chicks feed medicine labor other"`
	Description string  `json:"description" validate:"max=400"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	IncurredAt  string  `json:"incurredAt" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var incurred time.Time
	if req.IncurredAt != "" {
		incurred, _ = time.Parse("2006-01-02", req.IncurredAt)
	}
	entry, err := h.svc.Record(r.Context(), RecordInput{
		FarmID:      farmID,
		BatchID:     req.BatchID,
		ShedID:      req.ShedID,
		Category:    Category(req.Category),
		Description: req.Description,
		Amount:      req.Amount,
		IncurredAt:  incurred,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	f := Filter{FarmID: farmID, Category: Category(r.URL.Query().Get("category"))}
	if raw := r.URL.Query().Get("batchId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.E(shared.KindValidation, "batchId must be a positive integer"))
			return
		}
		f.BatchID = &id
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.E(shared.KindValidation, "from must be YYYY-MM-DD"))
			return
		}
		f.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.E(shared.KindValidation, "to must be YYYY-MM-DD"))
			return
		}
		f.To = t
	}
	f.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
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
	totals, err := h.svc.Summary(r.Context(), farmID, batchID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if totals == nil {
		totals = []CategoryTotal{}
	}
	httpx.JSON(w, http.StatusOK, totals)
}
