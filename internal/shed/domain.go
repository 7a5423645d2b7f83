package shed

import "time"

// State enumerates the shed lifecycle states.
type State string

const (
	// StateFree means the shed is ready to host a new batch.
	StateFree State = "free"
	// StateOccupied means a live batch is housed in the shed.
	StateOccupied State = "occupied"
	// StateMaintenance means the shed is in its sanitary cooldown window.
	StateMaintenance State = "maintenance"
)

// DefaultCooldownDays is the sanitary rest period applied after a batch
// fully leaves a shed, unless overridden by configuration.
const DefaultCooldownDays = 7

// Shed is a farm-scoped housing unit. BatchID is set only while occupied;
// AvailableAt is set only while in maintenance.
type Shed struct {
	ID          int64      `json:"id"`
	FarmID      int64      `json:"farmId"`
	Name        string     `json:"name"`
	Capacity    int        `json:"capacity"`
	State       State      `json:"state"`
	BatchID     *int64     `json:"batchId,omitempty"`
	AvailableAt *time.Time `json:"availableAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateInput describes a new shed.
type CreateInput struct {
	FarmID   int64
	Name     string
	Capacity int
}
