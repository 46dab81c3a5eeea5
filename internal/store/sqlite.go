package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tribunal/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			dataset_id TEXT NOT NULL,
			model_key TEXT NOT NULL,
			kind TEXT NOT NULL,
			source_run_id TEXT,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset_id, model_key, started_at)`,
		`CREATE TABLE IF NOT EXISTS run_events (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			payload TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE TABLE IF NOT EXISTS debate_messages (
			message_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			case_id TEXT NOT NULL,
			model_key TEXT NOT NULL,
			role TEXT NOT NULL,
			phase TEXT NOT NULL,
			round INTEGER NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_lookup ON debate_messages(run_id, case_id, model_key, role, phase, round)`,
		`CREATE TABLE IF NOT EXISTS case_results (
			result_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			case_id TEXT NOT NULL,
			model_key TEXT NOT NULL,
			verdict TEXT NOT NULL,
			confidence REAL NOT NULL,
			total_score REAL NOT NULL,
			passed INTEGER NOT NULL,
			breakdown TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			cost REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_lookup ON case_results(run_id, case_id, model_key)`,
		`CREATE TABLE IF NOT EXISTS result_set_slots (
			dataset_id TEXT NOT NULL,
			model_key TEXT NOT NULL,
			case_id TEXT NOT NULL,
			slot_number INTEGER NOT NULL,
			source_run_id TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL,
			last_served_at DATETIME,
			PRIMARY KEY (dataset_id, model_key, case_id, slot_number)
		)`,
		`CREATE TABLE IF NOT EXISTS sweep_locks (
			name TEXT PRIMARY KEY,
			holder TEXT NOT NULL,
			expires_at DATETIME NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun creates a new run.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *domain.Run) error {
	var sourceRunID sql.NullString
	if run.SourceRunID != "" {
		sourceRunID = sql.NullString{String: run.SourceRunID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, dataset_id, model_key, kind, source_run_id, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.DatasetID, run.ModelKey, run.Kind, sourceRunID, run.Status, run.StartedAt)
	return err
}

// GetRun retrieves a run by ID. A missing run returns (nil, nil).
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	var run domain.Run
	var sourceRunID, errData sql.NullString
	var endedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, dataset_id, model_key, kind, source_run_id, status, started_at, ended_at, error FROM runs WHERE run_id = ?`,
		runID).Scan(&run.RunID, &run.DatasetID, &run.ModelKey, &run.Kind, &sourceRunID, &run.Status, &run.StartedAt, &endedAt, &errData)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sourceRunID.Valid {
		run.SourceRunID = sourceRunID.String
	}
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	if errData.Valid {
		run.Error = json.RawMessage(errData.String)
	}
	return &run, nil
}

// UpdateRunStatus updates the status of a run.
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE run_id = ?`,
		status, runID)
	return err
}

// UpdateRunCompleted moves a run to a terminal state.
func (s *SQLiteStore) UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, errData []byte) error {
	now := time.Now()
	var errStr sql.NullString
	if errData != nil {
		errStr = sql.NullString{String: string(errData), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, ended_at = ?, error = ? WHERE run_id = ?`,
		status, now, errStr, runID)
	return err
}

// AppendEvent stores one event, assigning seq inside the insert so the
// per-run sequence stays gapless under concurrent appenders.
func (s *SQLiteStore) AppendEvent(ctx context.Context, event *domain.RunEvent) error {
	payload := ""
	if event.Payload != nil {
		payload = string(event.Payload)
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO run_events (run_id, seq, type, payload, created_at)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM run_events WHERE run_id = ?), ?, ?, ?)
		 RETURNING seq`,
		event.RunID, event.RunID, event.Type, payload, event.CreatedAt)
	return row.Scan(&event.Seq)
}

// GetEvents retrieves all events for a run in seq order.
func (s *SQLiteStore) GetEvents(ctx context.Context, runID string) ([]domain.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, type, payload, created_at FROM run_events WHERE run_id = ? ORDER BY seq ASC`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.RunEvent
	for rows.Next() {
		var event domain.RunEvent
		var payload sql.NullString
		if err := rows.Scan(&event.RunID, &event.Seq, &event.Type, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			event.Payload = json.RawMessage(payload.String)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// CreateDebateMessage stores one transcript message.
func (s *SQLiteStore) CreateDebateMessage(ctx context.Context, message *domain.DebateMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO debate_messages (message_id, run_id, case_id, model_key, role, phase, round, content, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		message.MessageID, message.RunID, message.CaseID, message.ModelKey, message.Role, message.Phase, message.Round, message.Content, message.CreatedAt)
	return err
}

// GetDebateMessage looks a message up by its composite replay key.
func (s *SQLiteStore) GetDebateMessage(ctx context.Context, runID, caseID, modelKey string, role domain.Role, phase domain.Phase, round int) (*domain.DebateMessage, error) {
	var msg domain.DebateMessage
	err := s.db.QueryRowContext(ctx,
		`SELECT message_id, run_id, case_id, model_key, role, phase, round, content, created_at
		 FROM debate_messages
		 WHERE run_id = ? AND case_id = ? AND model_key = ? AND role = ? AND phase = ? AND round = ?
		 LIMIT 1`,
		runID, caseID, modelKey, role, phase, round).
		Scan(&msg.MessageID, &msg.RunID, &msg.CaseID, &msg.ModelKey, &msg.Role, &msg.Phase, &msg.Round, &msg.Content, &msg.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateCaseResult stores one scored case result.
func (s *SQLiteStore) CreateCaseResult(ctx context.Context, result *domain.CaseResult) error {
	var breakdown sql.NullString
	if result.Breakdown != nil {
		breakdown = sql.NullString{String: string(result.Breakdown), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO case_results (result_id, run_id, case_id, model_key, verdict, confidence, total_score, passed, breakdown, latency_ms, cost, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ResultID, result.RunID, result.CaseID, result.ModelKey, result.Verdict, result.Confidence, result.TotalScore, result.Passed, breakdown, result.LatencyMs, result.Cost, result.CreatedAt)
	return err
}

// GetCaseResult looks a result up by its composite replay key.
func (s *SQLiteStore) GetCaseResult(ctx context.Context, runID, caseID, modelKey string) (*domain.CaseResult, error) {
	var r domain.CaseResult
	var breakdown sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT result_id, run_id, case_id, model_key, verdict, confidence, total_score, passed, breakdown, latency_ms, cost, created_at
		 FROM case_results
		 WHERE run_id = ? AND case_id = ? AND model_key = ?
		 LIMIT 1`,
		runID, caseID, modelKey).
		Scan(&r.ResultID, &r.RunID, &r.CaseID, &r.ModelKey, &r.Verdict, &r.Confidence, &r.TotalScore, &r.Passed, &breakdown, &r.LatencyMs, &r.Cost, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if breakdown.Valid {
		r.Breakdown = json.RawMessage(breakdown.String)
	}
	return &r, nil
}

// CreateSlot inserts a cache slot. A conflicting insert means someone else
// already cached this key; reported as created=false, not an error.
func (s *SQLiteStore) CreateSlot(ctx context.Context, slot *domain.CachedResultSetSlot) (bool, error) {
	var lastServed sql.NullTime
	if slot.LastServedAt != nil {
		lastServed = sql.NullTime{Time: *slot.LastServedAt, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO result_set_slots (dataset_id, model_key, case_id, slot_number, source_run_id, created_at, expires_at, last_served_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (dataset_id, model_key, case_id, slot_number) DO NOTHING`,
		slot.DatasetID, slot.ModelKey, slot.CaseID, slot.SlotNumber, slot.SourceRunID, slot.CreatedAt, slot.ExpiresAt, lastServed)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListLiveSlots returns unexpired slots for a key ordered for round-robin
// serving: oldest last_served_at first with nulls first, ties broken by
// lowest slot_number.
func (s *SQLiteStore) ListLiveSlots(ctx context.Context, datasetID, modelKey, caseID string, now time.Time) ([]domain.CachedResultSetSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset_id, model_key, case_id, slot_number, source_run_id, created_at, expires_at, last_served_at
		 FROM result_set_slots
		 WHERE dataset_id = ? AND model_key = ? AND case_id = ? AND expires_at > ?
		 ORDER BY last_served_at IS NOT NULL, last_served_at ASC, slot_number ASC`,
		datasetID, modelKey, caseID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []domain.CachedResultSetSlot
	for rows.Next() {
		var slot domain.CachedResultSetSlot
		var lastServed sql.NullTime
		if err := rows.Scan(&slot.DatasetID, &slot.ModelKey, &slot.CaseID, &slot.SlotNumber, &slot.SourceRunID, &slot.CreatedAt, &slot.ExpiresAt, &lastServed); err != nil {
			return nil, err
		}
		if lastServed.Valid {
			slot.LastServedAt = &lastServed.Time
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// MarkSlotServed stamps last_served_at.
func (s *SQLiteStore) MarkSlotServed(ctx context.Context, datasetID, modelKey, caseID string, slotNumber int, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE result_set_slots SET last_served_at = ? WHERE dataset_id = ? AND model_key = ? AND case_id = ? AND slot_number = ?`,
		now, datasetID, modelKey, caseID, slotNumber)
	return err
}

// PurgeAllSlots drops every slot. Run on process startup so cached
// transcripts never outlive one process lifetime.
func (s *SQLiteStore) PurgeAllSlots(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM result_set_slots`)
	return err
}

// DeleteExpiredSlots drops slots past their TTL and reports how many.
func (s *SQLiteStore) DeleteExpiredSlots(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM result_set_slots WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TryAcquireSweepLock takes the named advisory lock if it is free or
// expired. The upsert succeeds only when no live holder exists, so exactly
// one caller wins; losers return immediately rather than queueing.
func (s *SQLiteStore) TryAcquireSweepLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sweep_locks (name, holder, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
		 WHERE sweep_locks.expires_at <= ?`,
		name, holder, now.Add(ttl), now)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ReleaseSweepLock frees the lock if this holder still owns it.
func (s *SQLiteStore) ReleaseSweepLock(ctx context.Context, name, holder string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sweep_locks WHERE name = ? AND holder = ?`,
		name, holder)
	return err
}
