// Package cache manages the durable replay cache: numbered slots pointing
// at completed runs, served round-robin and bounded by a TTL.
package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tribunal/internal/domain"
	"tribunal/internal/store"
)

// Manager applies the slot policy over the store.
type Manager struct {
	store    store.Store
	maxSlots int
	ttl      time.Duration
	log      *logrus.Entry
	now      func() time.Time
}

// NewManager creates a slot manager.
func NewManager(s store.Store, maxSlots int, ttl time.Duration, log *logrus.Logger) *Manager {
	return &Manager{
		store:    s,
		maxSlots: maxSlots,
		ttl:      ttl,
		log:      log.WithField("component", "cache"),
		now:      time.Now,
	}
}

// GetNextSlotToServe picks the live slot with the oldest last_served_at
// (never-served first), ties broken by lowest slot number. Returns nil when
// no live slot exists.
func (m *Manager) GetNextSlotToServe(ctx context.Context, datasetID, modelKey, caseID string) (*domain.CachedResultSetSlot, error) {
	slots, err := m.store.ListLiveSlots(ctx, datasetID, modelKey, caseID, m.now())
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}

// MarkServed stamps the slot's last_served_at so round-robin rotation moves
// on.
func (m *Manager) MarkServed(ctx context.Context, slot *domain.CachedResultSetSlot) error {
	now := m.now()
	if err := m.store.MarkSlotServed(ctx, slot.DatasetID, slot.ModelKey, slot.CaseID, slot.SlotNumber, now); err != nil {
		return err
	}
	slot.LastServedAt = &now
	return nil
}

// GetNextEmptySlot returns the first slot number in [1, maxSlots] not
// occupied by a live slot, or false when all are taken.
func (m *Manager) GetNextEmptySlot(ctx context.Context, datasetID, modelKey, caseID string) (int, bool, error) {
	slots, err := m.store.ListLiveSlots(ctx, datasetID, modelKey, caseID, m.now())
	if err != nil {
		return 0, false, err
	}
	occupied := make(map[int]bool, len(slots))
	for _, slot := range slots {
		occupied[slot.SlotNumber] = true
	}
	for n := 1; n <= m.maxSlots; n++ {
		if !occupied[n] {
			return n, true, nil
		}
	}
	return 0, false, nil
}

// StoreResult caches a completed run in the first empty slot. When all
// slots are occupied the result simply is not cached. A losing insert race
// means someone else already cached this key.
func (m *Manager) StoreResult(ctx context.Context, datasetID, modelKey, caseID, sourceRunID string) error {
	slotNumber, ok, err := m.GetNextEmptySlot(ctx, datasetID, modelKey, caseID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	now := m.now()
	created, err := m.store.CreateSlot(ctx, &domain.CachedResultSetSlot{
		DatasetID:   datasetID,
		ModelKey:    modelKey,
		CaseID:      caseID,
		SlotNumber:  slotNumber,
		SourceRunID: sourceRunID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	})
	if err != nil {
		return err
	}
	if !created {
		m.log.WithFields(logrus.Fields{
			"case_id": caseID,
			"slot":    slotNumber,
		}).Debug("slot already cached by another writer")
	}
	return nil
}

// PurgeAll drops every slot. Called once on startup; cached transcripts
// must never outlive one process lifetime.
func (m *Manager) PurgeAll(ctx context.Context) error {
	return m.store.PurgeAllSlots(ctx)
}

// SweepExpired deletes slots past their TTL and reports how many went.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSlots(ctx, m.now())
}
