package audit

import (
	"context"
	"time"
)

// Entry is one persisted audit record.
type Entry struct {
	ID         int64          `json:"id"`
	ActorID    int64          `json:"actorId"`
	FarmID     int64          `json:"farmId"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entityId"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Filter narrows the timeline query.
type Filter struct {
	Entity string
	Action string
	Limit  int
}

// Repository abstracts audit log reads.
type Repository interface {
	ListEntries(ctx context.Context, farmID int64, f Filter) ([]Entry, error)
}

// Service reads the audit trail back out for review.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns the farm's audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, farmID int64, f Filter) ([]Entry, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return s.repo.ListEntries(ctx, farmID, f)
}
