package flock

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes batch endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers batch endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{batchID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
	})
}

type createBatchRequest struct {
	Code       string  `json:"code" validate:"required,max=60"`
	Breed      string  `json:"breed" validate:"max=80"`
	ShedID     int64   `json:"shedId" validate:"required,gt=0"`
	Count      int     `json:"count" validate:"required,gt=0"`
	UnitPrice  float64 `json:"unitPrice" validate:"gte=0"`
	IntakeDate string  `json:"intakeDate" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var intake time.Time
	if req.IntakeDate != "" {
		intake, _ = time.Parse("2006-01-02", req.IntakeDate)
	}
	b, err := h.svc.Create(r.Context(), CreateInput{
		FarmID:     farmID,
		Code:       req.Code,
		Breed:      req.Breed,
		ShedID:     req.ShedID,
		Count:      req.Count,
		UnitPrice:  req.UnitPrice,
		IntakeDate: intake,
		ActorID:    p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	batches, err := h.svc.List(r.Context(), farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if batches == nil {
		batches = []Batch{}
	}
	httpx.JSON(w, http.StatusOK, batches)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	batchID, err := httpx.PathID(r, "batchID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	b, err := h.svc.Get(r.Context(), batchID, farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	batchID, err := httpx.PathID(r, "batchID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), batchID, farmID, p.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
