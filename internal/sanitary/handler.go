package sanitary

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes sanitary plan and agenda endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers sanitary endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/plan", h.getPlan)
	r.Put("/plan", h.updatePlan)
	r.Get("/agenda", h.listAgenda)
	r.Post("/agenda/{eventID}/complete", h.complete)
}

type planResponse struct {
	Plan    string `json:"plan"`
	Offsets []int  `json:"offsets"`
}

type updatePlanRequest struct {
	Plan string `json:"plan" validate:"required,max=200"`
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.svc.Plan(r.Context(), farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, planResponse{Plan: plan, Offsets: ParseOffsets(plan)})
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updatePlanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.UpdatePlan(r.Context(), farmID, req.Plan); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, planResponse{Plan: req.Plan, Offsets: ParseOffsets(req.Plan)})
}

func (h *Handler) listAgenda(w http.ResponseWriter, r *http.Request) {
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
	pendingOnly := r.URL.Query().Get("pending") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.svc.ListAgenda(r.Context(), farmID, batchID, pendingOnly, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if events == nil {
		events = []AgendaEvent{}
	}
	httpx.JSON(w, http.StatusOK, events)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	eventID, err := httpx.PathID(r, "eventID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	completed := true
	var req completeRequest
	if err := httpx.DecodeJSON(r, &req); err == nil && req.Completed != nil {
		completed = *req.Completed
	}
	e, err := h.svc.SetCompleted(r.Context(), eventID, farmID, completed)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}
