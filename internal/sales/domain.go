package sales

import "time"

// Sale is one recorded sale of birds from a batch. Weight is the total live
// weight sold, in kilograms.
type Sale struct {
	ID        int64     `json:"id"`
	FarmID    int64     `json:"farmId"`
	BatchID   int64     `json:"batchId"`
	Quantity  int       `json:"quantity"`
	Weight    float64   `json:"weight"`
	UnitPrice float64   `json:"unitPrice"`
	Total     float64   `json:"total"`
	Buyer     string    `json:"buyer,omitempty"`
	Reference string    `json:"reference,omitempty"`
	SoldAt    time.Time `json:"soldAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// SellInput describes a sale request. Reference, when present, acts as an
// idempotency key: a repeated reference is rejected instead of double-sold.
type SellInput struct {
	FarmID    int64
	BatchID   int64
	Quantity  int
	Weight    float64
	UnitPrice float64
	Buyer     string
	Reference string
	SoldAt    time.Time
	ActorID   int64
}
