package stock

import "time"

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementConsume represents an outbound movement (feed, medicine use).
	MovementConsume MovementType = "CONSUME"
	// MovementReplenish represents an inbound purchase.
	MovementReplenish MovementType = "REPLENISH"
	// MovementReprice records an explicit unit-cost override.
	MovementReprice MovementType = "REPRICE"
)

// QtyEpsilon absorbs rounding introduced by caller-side unit conversions;
// a consumption within this tolerance of the available quantity is allowed
// and the balance clamps to zero.
const QtyEpsilon = 0.001

// Item is a farm-scoped inventory line (feed, medicine, vaccine, bedding).
// Quantity and UnitCost are mutated only through movements.
type Item struct {
	ID         int64      `json:"id"`
	FarmID     int64      `json:"farmId"`
	Product    string     `json:"product"`
	Category   string     `json:"category"`
	Unit       string     `json:"unit"`
	Quantity   float64    `json:"quantity"`
	UnitCost   float64    `json:"unitCost"`
	SupplierID *int64     `json:"supplierId,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Movement is one ledger line against an item. Quantity is always a positive
// magnitude; Type carries the direction.
type Movement struct {
	ID          int64        `json:"id"`
	ItemID      int64        `json:"itemId"`
	FarmID      int64        `json:"farmId"`
	Type        MovementType `json:"type"`
	Quantity    float64      `json:"quantity"`
	UnitCost    float64      `json:"unitCost"`
	BalanceQty  float64      `json:"balanceQty"`
	BalanceCost float64      `json:"balanceCost"`
	Reference   string       `json:"reference,omitempty"`
	PostedAt    time.Time    `json:"postedAt"`
}

// ConsumeInput describes an outbound request.
type ConsumeInput struct {
	ItemID    int64
	FarmID    int64
	Quantity  float64
	Reference string
	ActorID   int64
}

// ReplenishInput describes an inbound purchase. The canonical contract takes
// the total purchase cost; the unit cost is always derived by weighted
// average, never supplied directly (see SetUnitCostInput for the explicit
// override).
type ReplenishInput struct {
	ItemID    int64
	FarmID    int64
	Quantity  float64
	TotalCost float64
	Reference string
	ActorID   int64
}

// SetUnitCostInput overrides an item's unit cost without touching quantity.
type SetUnitCostInput struct {
	ItemID   int64
	FarmID   int64
	UnitCost float64
	ActorID  int64
}

// CreateItemInput describes a new inventory line.
type CreateItemInput struct {
	FarmID     int64
	Product    string
	Category   string
	Unit       string
	Quantity   float64
	UnitCost   float64
	SupplierID *int64
}
