package sanitary

import (
	"strconv"
	"strings"
	"time"
)

// DefaultPlan is the fallback day-offset plan applied when a farm's
// configured plan is empty or yields no usable offsets.
const DefaultPlan = "7,14,21"

// AgendaEvent is one scheduled sanitary action for a batch.
type AgendaEvent struct {
	ID          int64     `json:"id"`
	FarmID      int64     `json:"farmId"`
	BatchID     int64     `json:"batchId"`
	Description string    `json:"description"`
	DueAt       time.Time `json:"dueAt"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GenerateInput describes an agenda generation request for a new batch.
type GenerateInput struct {
	FarmID     int64
	BatchID    int64
	BatchCode  string
	IntakeDate time.Time
	PlanConfig string
}

// ParseOffsets extracts positive day offsets from a comma-separated plan
// string. Non-numeric and non-positive tokens are skipped silently; an
// unusable plan falls back to the default. The result is sorted and
// deduplicated.
func ParseOffsets(plan string) []int {
	offsets := parseTokens(plan)
	if len(offsets) == 0 {
		offsets = parseTokens(DefaultPlan)
	}
	return offsets
}

func parseTokens(plan string) []int {
	seen := map[int]bool{}
	var out []int
	for _, tok := range strings.Split(plan, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || d <= 0 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
