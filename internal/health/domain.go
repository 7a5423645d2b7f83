package health

import "time"

// EventType enumerates health event types.
type EventType string

const (
	EventMortality   EventType = "mortality"
	EventVaccination EventType = "vaccination"
	EventTreatment   EventType = "treatment"
)

// Event is one recorded health occurrence for a batch.
type Event struct {
	ID            int64      `json:"id"`
	FarmID        int64      `json:"farmId"`
	BatchID       int64      `json:"batchId"`
	Type          EventType  `json:"type"`
	BirdCount     int        `json:"birdCount,omitempty"`
	ItemID        *int64     `json:"itemId,omitempty"`
	QuantityUsed  float64    `json:"quantityUsed,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	WithdrawalEnd *time.Time `json:"withdrawalEnd,omitempty"`
	OccurredAt    time.Time  `json:"occurredAt"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// MortalityInput describes a mortality record.
type MortalityInput struct {
	FarmID     int64
	BatchID    int64
	Count      int
	Notes      string
	OccurredAt time.Time
	ActorID    int64
}

// MortalityResult reports what the mortality did to the batch.
type MortalityResult struct {
	Event    Event `json:"event"`
	NewCount int   `json:"newCount"`
	Depleted bool  `json:"depleted"`
}

// TreatmentInput describes a vaccination or treatment record. When ItemID is
// set, Quantity of that inventory item is consumed and its cost recorded.
type TreatmentInput struct {
	FarmID         int64
	BatchID        int64
	Type           EventType
	ItemID         *int64
	Quantity       float64
	WithdrawalDays int
	Notes          string
	OccurredAt     time.Time
	ActorID        int64
}
