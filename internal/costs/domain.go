package costs

import "time"

// Category enumerates cost entry categories.
type Category string

const (
	CategoryChicks   Category = "chicks"
	CategoryFeed     Category = "feed"
	CategoryMedicine Category = "medicine"
	CategoryLabor    Category = "labor"
	CategoryOther    Category = "other"
)

// Entry is one append-only cost line. Entries are never updated after being
// written; corrections are new entries.
type Entry struct {
	ID          int64     `json:"id"`
	FarmID      int64     `json:"farmId"`
	BatchID     *int64    `json:"batchId,omitempty"`
	ShedID      *int64    `json:"shedId,omitempty"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	IncurredAt  time.Time `json:"incurredAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RecordInput describes a new cost entry.
type RecordInput struct {
	FarmID      int64
	BatchID     *int64
	ShedID      *int64
	Category    Category
	Description string
	Amount      float64
	IncurredAt  time.Time
}

// Filter narrows a cost listing.
type Filter struct {
	FarmID   int64
	BatchID  *int64
	Category Category
	From     time.Time
	To       time.Time
	Limit    int
}

// CategoryTotal is one row of the per-category summary.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    float64  `json:"total"`
}

func validCategory(c Category) bool {
	switch c {
	case CategoryChicks, CategoryFeed, CategoryMedicine, CategoryLabor, CategoryOther:
		return true
	}
	return false
}
