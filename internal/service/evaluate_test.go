package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribunal/internal/adapter/llm"
	"tribunal/internal/cache"
	"tribunal/internal/config"
	"tribunal/internal/debate"
	"tribunal/internal/domain"
	"tribunal/internal/replay"
	"tribunal/internal/signal"
	"tribunal/internal/store"
	"tribunal/internal/worker"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	cfg := config.Load()
	cfg.ModelKey = "mock-model"
	cfg.StepTimeout = 5 * time.Second

	client := llm.NewMockClient()
	svc := New(
		st,
		cache.NewManager(st, cfg.MaxSlots, cfg.SlotTTL, log),
		debate.New(client, cfg.StepTimeout, cfg.EarlyStopJaccard, log),
		replay.NewEngine(st, log),
		worker.NewPool(signal.NewLexicalEngine(), cfg.SignalWorkers, log),
		cfg,
		log,
	)
	return svc, st
}

func mockDataset() *Dataset {
	return &Dataset{
		DatasetID: "ds-test",
		Cases: []domain.Case{
			{
				CaseID:       "case-1",
				Topic:        "history",
				Claim:        "The bridge was completed before 1900.",
				Label:        domain.VerdictInsufficient,
				SafeToAnswer: true,
				EvidencePackets: []domain.EvidencePacket{
					{ID: "e1", Summary: "construction ledger", Source: "archive", Date: "1898-05-01"},
					{ID: "e2", Summary: "newspaper clipping", Source: "press", Date: "1901-02-11"},
				},
			},
			{
				CaseID:       "case-2",
				Topic:        "history",
				Claim:        "The same architect designed both towers.",
				Label:        domain.VerdictSupported,
				SafeToAnswer: true,
				EvidencePackets: []domain.EvidencePacket{
					{ID: "e1", Summary: "commission record", Source: "archive", Date: "1895-01-01"},
				},
			},
		},
	}
}

func TestRunEvaluationFullPipeline(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	runID, err := svc.RunEvaluation(ctx, mockDataset())
	require.NoError(t, err)

	run, err := st.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunStatusDone, run.Status)
	assert.NotNil(t, run.EndedAt)

	for _, caseID := range []string{"case-1", "case-2"} {
		result, err := st.GetCaseResult(ctx, runID, caseID, "mock-model")
		require.NoError(t, err)
		require.NotNil(t, result, "missing result for %s", caseID)
		assert.Equal(t, domain.VerdictInsufficient, result.Verdict)
	}

	// The mock converges every revision, so no dispute phase appears.
	events, err := st.GetEvents(ctx, runID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventTypeRunStarted, events[0].Type)
	assert.Equal(t, domain.EventTypeRunDone, events[len(events)-1].Type)
	for _, ev := range events {
		assert.NotContains(t, string(ev.Payload), string(domain.PhaseDispute))
	}

	// A completed run gets cached for replay.
	slot, err := svc.cache.GetNextSlotToServe(ctx, "ds-test", "mock-model", "case-1")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, runID, slot.SourceRunID)
}

func TestServeReplayFromCache(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	sourceRunID, err := svc.RunEvaluation(ctx, mockDataset())
	require.NoError(t, err)

	replayRunID, err := svc.ServeReplay(ctx, "ds-test", "mock-model", "case-1")
	require.NoError(t, err)
	assert.NotEqual(t, sourceRunID, replayRunID)

	run, err := st.GetRun(ctx, replayRunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, domain.RunKindReplay, run.Kind)
	assert.Equal(t, sourceRunID, run.SourceRunID)
	assert.Equal(t, domain.RunStatusDone, run.Status)

	// Replayed transcript rows exist under the new run id.
	msg, err := st.GetDebateMessage(ctx, replayRunID, "case-1", "mock-model", domain.RoleAdvocateFor, domain.PhaseIndependent, 1)
	require.NoError(t, err)
	assert.NotNil(t, msg)

	// Serving stamped the slot.
	slot, err := svc.cache.GetNextSlotToServe(ctx, "ds-test", "mock-model", "case-1")
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.NotNil(t, slot.LastServedAt)
}

func TestServeReplayNoSlot(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ServeReplay(context.Background(), "ds-test", "mock-model", "case-missing")
	require.Error(t, err)
}

func TestStartupMaintenancePurgesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RunEvaluation(ctx, mockDataset())
	require.NoError(t, err)

	require.NoError(t, svc.StartupMaintenance(ctx))
	slot, err := svc.cache.GetNextSlotToServe(ctx, "ds-test", "mock-model", "case-1")
	require.NoError(t, err)
	assert.Nil(t, slot)
}

func TestRunFreshnessSweep(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RunEvaluation(ctx, mockDataset())
	require.NoError(t, err)

	// The sweep acquires the advisory lock, runs, and releases it so a
	// second sweep can acquire it again.
	svc.RunFreshnessSweep(ctx)
	svc.RunFreshnessSweep(ctx)
}
