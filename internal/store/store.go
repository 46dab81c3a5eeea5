// Package store persists runs, their event logs, transcripts, results, and
// replay cache slots.
package store

import (
	"context"
	"time"

	"tribunal/internal/domain"
)

// Store is the persistence port for the evaluation pipeline.
type Store interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error
	UpdateRunCompleted(ctx context.Context, runID string, status domain.RunStatus, errData []byte) error

	// AppendEvent assigns the next gapless per-run seq and stores the event.
	AppendEvent(ctx context.Context, event *domain.RunEvent) error
	GetEvents(ctx context.Context, runID string) ([]domain.RunEvent, error)

	CreateDebateMessage(ctx context.Context, message *domain.DebateMessage) error
	GetDebateMessage(ctx context.Context, runID, caseID, modelKey string, role domain.Role, phase domain.Phase, round int) (*domain.DebateMessage, error)

	CreateCaseResult(ctx context.Context, result *domain.CaseResult) error
	GetCaseResult(ctx context.Context, runID, caseID, modelKey string) (*domain.CaseResult, error)

	// CreateSlot reports created=false when a live slot already occupies the
	// key, which callers treat as benign.
	CreateSlot(ctx context.Context, slot *domain.CachedResultSetSlot) (bool, error)
	ListLiveSlots(ctx context.Context, datasetID, modelKey, caseID string, now time.Time) ([]domain.CachedResultSetSlot, error)
	MarkSlotServed(ctx context.Context, datasetID, modelKey, caseID string, slotNumber int, now time.Time) error
	PurgeAllSlots(ctx context.Context) error
	DeleteExpiredSlots(ctx context.Context, now time.Time) (int64, error)

	// TryAcquireSweepLock takes the named advisory lock without queueing;
	// a held, unexpired lock means the caller must return immediately.
	TryAcquireSweepLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context, name, holder string) error

	Close() error
}
