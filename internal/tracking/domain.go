package tracking

import "time"

// Record is one weekly growth measurement for a batch: the average bird
// weight in kilograms and the feed consumed that week.
type Record struct {
	ID         int64     `json:"id"`
	FarmID     int64     `json:"farmId"`
	BatchID    int64     `json:"batchId"`
	Week       int       `json:"week"`
	AvgWeight  float64   `json:"avgWeight"`
	FeedIntake float64   `json:"feedIntake"`
	Notes      string    `json:"notes,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RecordInput describes a new weekly measurement.
type RecordInput struct {
	FarmID     int64
	BatchID    int64
	Week       int
	AvgWeight  float64
	FeedIntake float64
	Notes      string
	RecordedAt time.Time
}
