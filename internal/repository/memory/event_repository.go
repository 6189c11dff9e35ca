package memory

import (
	"context"
	"sync"
	"time"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

const defaultPollLimit = 200

// EventRepo is an in-memory append-only event log with a monotonically
// increasing cursor per repository instance.
type EventRepo struct {
	mu     sync.Mutex
	events []domain.Event
	nextID int64
}

func NewEventRepository() *EventRepo {
	return &EventRepo{nextID: 1}
}

func (r *EventRepo) Insert(ctx context.Context, orgID, eventType string, payload []byte) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := domain.Event{
		ID:      r.nextID,
		OrgID:   orgID,
		TS:      time.Now().UTC(),
		Type:    eventType,
		Payload: append([]byte(nil), payload...),
	}
	r.nextID++
	r.events = append(r.events, ev)
	return ev, nil
}

func (r *EventRepo) Poll(ctx context.Context, orgID string, after int64, limit int) ([]domain.Event, int64, error) {
	if limit <= 0 || limit > defaultPollLimit {
		limit = defaultPollLimit
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cursor := after
	var out []domain.Event
	for _, ev := range r.events {
		if ev.OrgID != orgID || ev.ID <= after {
			continue
		}
		out = append(out, ev)
		if ev.ID > cursor {
			cursor = ev.ID
		}
		if len(out) >= limit {
			break
		}
	}
	return out, cursor, nil
}
