package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Maidono/internal/domain"
)

// RunRepo — хранилище runs в PostgreSQL.
type RunRepo struct {
	pool *pgxpool.Pool
}

var _ RunStore = (*RunRepo)(nil)

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO runs (id, action, trigger, status, steps, delivery_id, event, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.Action.String(),
		run.Trigger,
		run.Status,
		stepsJSON,
		nullString(run.DeliveryID),
		nullString(run.Event),
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update обновляет статус, шаги и время завершения run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		UPDATE runs
		SET status = $2, steps = $3, error = $4, finished_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		stepsJSON,
		nullString(run.Error),
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, action, trigger, status, steps, delivery_id, event, error, started_at, finished_at
		FROM runs
		WHERE id = $1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List возвращает runs с фильтрацией, от новых к старым.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	filter = filter.Normalize()

	query := `
		SELECT id, action, trigger, status, steps, delivery_id, event, error, started_at, finished_at
		FROM runs
		WHERE ($1::text IS NULL OR action = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Action),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Close закрывает пул соединений.
func (r *RunRepo) Close() error {
	r.pool.Close()
	return nil
}

// scanRun сканирует одну строку в Run. pgx.Row покрывает и pgx.Rows.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var action string
	var stepsJSON []byte
	var deliveryID, event, runError *string

	err := row.Scan(
		&run.ID,
		&action,
		&run.Trigger,
		&run.Status,
		&stepsJSON,
		&deliveryID,
		&event,
		&runError,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	return decodeRun(&run, action, stepsJSON, deliveryID, event, runError)
}

// decodeRun заполняет поля, хранящиеся в БД в сериализованном виде.
func decodeRun(run *domain.Run, action string, stepsJSON []byte, deliveryID, event, runError *string) (*domain.Run, error) {
	path, err := domain.ParseActionPath(action)
	if err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	run.Action = path

	if stepsJSON != nil {
		if err := json.Unmarshal(stepsJSON, &run.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
	}

	if deliveryID != nil {
		run.DeliveryID = *deliveryID
	}
	if event != nil {
		run.Event = *event
	}
	if runError != nil {
		run.Error = *runError
	}
	return run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
