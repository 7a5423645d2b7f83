package health

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes health event endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers health endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/mortality", h.mortality)
	r.Post("/treatments", h.treatment)
}

type mortalityRequest struct {
	BatchID    int64  `json:"batchId" validate:"required,gt=0"`
	Count      int    `json:"count" validate:"required,gt=0"`
	Notes      string `json:"notes" validate:"max=400"`
	OccurredAt string `json:"occurredAt" validate:"omitempty,datetime=2006-01-02"`
}

type treatmentRequest struct {
	BatchID        int64   `json:"batchId" validate:"required,gt=0"`
	Type           string  `json:"type" validate:"required,oneof=vaccination treatment"`
	ItemID         *int64  `json:"itemId" validate:"omitempty,gt=0"`
	Quantity       float64 `json:"quantity" validate:"gte=0"`
	WithdrawalDays int     `json:"withdrawalDays" validate:"gte=0"`
	Notes          string  `json:"notes" validate:"max=400"`
	OccurredAt     string  `json:"occurredAt" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) mortality(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req mortalityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var occurred time.Time
	if req.OccurredAt != "" {
		occurred, _ = time.Parse("2006-01-02", req.OccurredAt)
	}
	res, err := h.svc.RecordMortality(r.Context(), MortalityInput{
		FarmID:     farmID,
		BatchID:    req.BatchID,
		Count:      req.Count,
		Notes:      req.Notes,
		OccurredAt: occurred,
		ActorID:    p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) treatment(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req treatmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var occurred time.Time
	if req.OccurredAt != "" {
		occurred, _ = time.Parse("2006-01-02", req.OccurredAt)
	}
	e, err := h.svc.RecordTreatment(r.Context(), TreatmentInput{
		FarmID:         farmID,
		BatchID:        req.BatchID,
		Type:           EventType(req.Type),
		ItemID:         req.ItemID,
		Quantity:       req.Quantity,
		WithdrawalDays: req.WithdrawalDays,
		Notes:          req.Notes,
		OccurredAt:     occurred,
		ActorID:        p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
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
	events, err := h.svc.List(r.Context(), farmID, batchID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if events == nil {
		events = []Event{}
	}
	httpx.JSON(w, http.StatusOK, events)
}
