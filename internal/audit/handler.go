package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes the audit timeline.
type Handler struct {
	svc *Service
}

// NewHandler builds Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes registers audit endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if p.Role != shared.RoleAdmin {
		httpx.RespondError(w, shared.E(shared.KindForbidden, "role %s may not read the audit trail", p.Role))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, err := h.svc.Timeline(r.Context(), farmID, Filter{
		Entity: q.Get("entity"),
		Action: q.Get("action"),
		Limit:  limit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
