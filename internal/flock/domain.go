package flock

import "time"

// State enumerates batch lifecycle states.
type State string

const (
	// StateAvailable means the batch has live birds.
	StateAvailable State = "available"
	// StateSoldOut means the last bird left through a sale.
	StateSoldOut State = "sold_out"
	// StateClosed means the batch was depleted by mortality.
	StateClosed State = "closed"
)

// Batch is a farm-scoped lot of birds housed in one shed.
type Batch struct {
	ID           int64     `json:"id"`
	FarmID       int64     `json:"farmId"`
	Code         string    `json:"code"`
	Breed        string    `json:"breed"`
	ShedID       int64     `json:"shedId"`
	InitialCount int       `json:"initialCount"`
	CurrentCount int       `json:"currentCount"`
	State        State     `json:"state"`
	UnitPrice    float64   `json:"unitPrice"`
	IntakeDate   time.Time `json:"intakeDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateInput describes a new batch intake.
type CreateInput struct {
	FarmID     int64
	Code       string
	Breed      string
	ShedID     int64
	Count      int
	UnitPrice  float64
	IntakeDate time.Time
	ActorID    int64
}
