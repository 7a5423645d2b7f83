package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmcore/farmcore/internal/platform/httpx"
	"github.com/farmcore/farmcore/internal/shared"
)

// Handler exposes inventory endpoints.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler builds Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes registers inventory endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{itemID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Delete("/", h.delete)
		r.Get("/movements", h.movements)
		r.Post("/consume", h.consume)
		r.Post("/replenish", h.replenish)
		r.Put("/unit-cost", h.setUnitCost)
	})
}

type createItemRequest struct {
	Product    string  `json:"product" validate:"required,max=160"`
	Category   string  `json:"category" validate:"required,max=80"`
	Unit       string  `json:"unit" validate:"required,max=32"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	UnitCost   float64 `json:"unitCost" validate:"gte=0"`
	SupplierID *int64  `json:"supplierId" validate:"omitempty,gt=0"`
}

type consumeRequest struct {
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"max=200"`
}

type replenishRequest struct {
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	TotalCost float64 `json:"totalCost" validate:"gte=0"`
	Reference string  `json:"reference" validate:"max=200"`
}

type setUnitCostRequest struct {
	UnitCost float64 `json:"unitCost" validate:"gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.svc.ListItems(r.Context(), farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.svc.CreateItem(r.Context(), CreateItemInput{
		FarmID:     farmID,
		Product:    req.Product,
		Category:   req.Category,
		Unit:       req.Unit,
		Quantity:   req.Quantity,
		UnitCost:   req.UnitCost,
		SupplierID: req.SupplierID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock item created",
		slog.Int64("item_id", item.ID),
		slog.Int64("farm_id", farmID),
		slog.Int64("actor_id", p.UserID))
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.svc.GetItem(r.Context(), itemID, farmID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.svc.DeleteItem(r.Context(), itemID, farmID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request) {
	_, farmID, err := httpx.CallerFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	moves, err := h.svc.ListMovements(r.Context(), itemID, farmID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if moves == nil {
		moves = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, moves)
}

func (h *Handler) consume(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req consumeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mv, err := h.svc.Consume(r.Context(), ConsumeInput{
		ItemID:    itemID,
		FarmID:    farmID,
		Quantity:  req.Quantity,
		Reference: req.Reference,
		ActorID:   p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mv)
}

func (h *Handler) replenish(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req replenishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mv, err := h.svc.Replenish(r.Context(), ReplenishInput{
		ItemID:    itemID,
		FarmID:    farmID,
		Quantity:  req.Quantity,
		TotalCost: req.TotalCost,
		Reference: req.Reference,
		ActorID:   p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mv)
}

func (h *Handler) setUnitCost(w http.ResponseWriter, r *http.Request) {
	p, farmID, err := httpx.WriterFarm(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req setUnitCostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.E(shared.KindValidation, "invalid request body"))
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.svc.SetUnitCost(r.Context(), SetUnitCostInput{
		ItemID:   itemID,
		FarmID:   farmID,
		UnitCost: req.UnitCost,
		ActorID:  p.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}
