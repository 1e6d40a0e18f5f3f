package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/shaiso/Maidono/internal/domain"
)

// DefaultSQLitePath — файл БД по умолчанию.
const DefaultSQLitePath = "/var/lib/maidono/runs.db"

// SQLiteRunStore — хранилище runs во встроенной SQLite.
type SQLiteRunStore struct {
	db *sql.DB
}

var _ RunStore = (*SQLiteRunStore)(nil)

// NewSQLiteRunStore открывает (или создаёт) БД по пути dsn.
func NewSQLiteRunStore(ctx context.Context, dsn string) (*SQLiteRunStore, error) {
	if dsn == "" {
		dsn = DefaultSQLitePath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Один писатель: параллельные runs иначе получают SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	store := &SQLiteRunStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteRunStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			trigger TEXT NOT NULL,
			status TEXT NOT NULL,
			steps TEXT NOT NULL,
			delivery_id TEXT,
			event TEXT,
			error TEXT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS runs_action_started_idx ON runs (action, started_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create создаёт новый run.
func (s *SQLiteRunStore) Create(ctx context.Context, run *domain.Run) error {
	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, action, trigger, status, steps, delivery_id, event, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(),
		run.Action.String(),
		run.Trigger,
		string(run.Status),
		string(stepsJSON),
		nullString(run.DeliveryID),
		nullString(run.Event),
		nullString(run.Error),
		run.StartedAt.UTC(),
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update обновляет статус, шаги и время завершения run.
func (s *SQLiteRunStore) Update(ctx context.Context, run *domain.Run) error {
	stepsJSON, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, steps = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		string(run.Status),
		string(stepsJSON),
		nullString(run.Error),
		nullTime(run.FinishedAt),
		run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает run по ID.
func (s *SQLiteRunStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, action, trigger, status, steps, delivery_id, event, error, started_at, finished_at
		FROM runs WHERE id = ?`, id.String())

	run, err := scanSQLiteRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List возвращает runs с фильтрацией, от новых к старым.
func (s *SQLiteRunStore) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	filter = filter.Normalize()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, trigger, status, steps, delivery_id, event, error, started_at, finished_at
		FROM runs
		WHERE (?1 IS NULL OR action = ?1)
		  AND (?2 IS NULL OR status = ?2)
		ORDER BY started_at DESC
		LIMIT ?3 OFFSET ?4`,
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
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Close закрывает БД.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var id, action, status, steps string
	var deliveryID, event, runError *string
	var finishedAt sql.NullTime

	err := row.Scan(&id, &action, &run.Trigger, &status, &steps,
		&deliveryID, &event, &runError, &run.StartedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("decode id: %w", err)
	}
	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return decodeRun(&run, action, []byte(steps), deliveryID, event, runError)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
