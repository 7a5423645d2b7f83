package tracking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes growth tracking endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers growth tracking endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.record)
	r.Delete("/{recordID}", h.delete)
}

type recordRequest struct {
	BatchID    int64   `json:"batchId" validate:"required,gt=0"`
	Week       int     `json:"week" validate:"required,gt=0"`
	AvgWeight  float64 `json:"avgWeight" validate:"required,gt=0"`
	FeedIntake float64 `json:"feedIntake" validate:"gte=0"`
	Notes      string  `json:"notes" validate:"max=400"`
	RecordedAt string  `json:"recordedAt" validate:"omitempty,datetime=2006-01-02"`
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
	var recorded time.Time
	if req.RecordedAt != "" {
		recorded, _ = time.Parse("2006-01-02", req.RecordedAt)
	}
	rec, err := h.svc.Record(r.Context(), RecordInput{
		FarmID:     farmID,
		BatchID:    req.BatchID,
		Week:       req.Week,
		AvgWeight:  req.AvgWeight,
		FeedIntake: req.FeedIntake,
		Notes:      req.Notes,
		RecordedAt: recorded,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	batchID, err := strconv.ParseInt(r.URL.Query().Get("batchId"), 10, 64)
	if err != nil || batchID <= 0 {
		httpx.RespondError(w, shared.E(shared.KindValidation, "batchId must be a positive integer"))
		return
	}
	records, err := h.svc.List(r.Context(), batchID, farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	recordID, err := httpx.PathID(r, "recordID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), recordID, farmID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
