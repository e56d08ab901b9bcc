package failedevent

import (
	"context"
	"database/sql"
	"encoding/json"
)

type Repository interface {
	Save(ctx context.Context, ev *FailedEvent) error
	List(ctx context.Context) ([]FailedEvent, error)
	Get(ctx context.Context, id string) (*FailedEvent, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, ev *FailedEvent) error {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	// string, not []byte: lib/pq would send raw bytes as bytea and the
	// jsonb column would reject them
	query := `INSERT INTO failed_events (job_id, event_type, payload, error) VALUES ($1, $2, $3, $4) RETURNING id, created_at, retries`
	return r.db.QueryRowContext(ctx, query, ev.JobID, ev.EventType, string(payload), ev.Error).Scan(&ev.ID, &ev.CreatedAt, &ev.Retries)
}

func (r *PostgresRepo) List(ctx context.Context) ([]FailedEvent, error) {
	query := `SELECT id, job_id, event_type, payload, error, retries, created_at FROM failed_events ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []FailedEvent
	for rows.Next() {
		var ev FailedEvent
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.JobID, &ev.EventType, &payload, &ev.Error, &ev.Retries, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Payload = json.RawMessage(payload)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*FailedEvent, error) {
	ev := &FailedEvent{}
	var payload []byte
	query := `SELECT id, job_id, event_type, payload, error, retries, created_at FROM failed_events WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ev.ID, &ev.JobID, &ev.EventType, &payload, &ev.Error, &ev.Retries, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	ev.Payload = json.RawMessage(payload)
	return ev, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM failed_events WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM failed_events`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
