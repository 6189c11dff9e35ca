package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/repository"
)

var _ repository.EventRepository = (*EventRepo)(nil)

// EventRepo persists the per-org event log and nudges listeners through
// pg_notify. Notification delivery is best effort; the durable row is the
// contract.
type EventRepo struct {
	db *DB
}

func NewEventRepository(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Insert(ctx context.Context, orgID, eventType string, payload []byte) (domain.Event, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	const q = `
		INSERT INTO events (org_id, type, payload)
		VALUES ($1, $2, $3)
		RETURNING id, ts`

	ev := domain.Event{OrgID: orgID, Type: eventType, Payload: payload}
	if err := r.db.QueryRowContext(ctx, q, orgID, eventType, payload).Scan(&ev.ID, &ev.TS); err != nil {
		return domain.Event{}, fmt.Errorf("insert event: %w", err)
	}

	note, err := json.Marshal(map[string]interface{}{"id": ev.ID, "type": eventType})
	if err == nil {
		channel := "org_events_" + orgID
		if _, err := r.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, channel, string(note)); err != nil {
			log.Warn().Err(err).Str("org_id", orgID).Msg("events: pg_notify failed")
		}
	}

	return ev, nil
}

func (r *EventRepo) Poll(ctx context.Context, orgID string, after int64, limit int) ([]domain.Event, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	const q = `
		SELECT id, org_id, ts, type, payload
		FROM events
		WHERE org_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3`

	rows, err := r.db.QueryxContext(ctx, q, orgID, after, limit)
	if err != nil {
		return nil, after, fmt.Errorf("poll events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0, limit)
	cursor := after
	for rows.Next() {
		var ev domain.Event
		var ts time.Time
		if err := rows.Scan(&ev.ID, &ev.OrgID, &ts, &ev.Type, &ev.Payload); err != nil {
			return nil, after, fmt.Errorf("scan event: %w", err)
		}
		ev.TS = ts
		events = append(events, ev)
		cursor = ev.ID
	}
	if err := rows.Err(); err != nil {
		return nil, after, fmt.Errorf("iterate events: %w", err)
	}

	return events, cursor, nil
}
