package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"openpo/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(filepath.Join(t.TempDir(), "openpo.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	started := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)

	if err := st.CreateRun(Run{
		ID:            "run-1",
		StartedAt:     started,
		OrdersFile:    "orders.xlsx",
		DirectoryFile: "emails.xlsx",
		Transport:     "outbox",
		DryRun:        true,
	}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	results := []model.DispatchResult{
		{SupplierName: "Acme Inc", Recipients: "a@acme.com", Subject: "Open PO Report - Acme Inc", Status: model.StatusSent, At: started},
		{SupplierName: "Globex", Status: model.StatusSkipped, Reason: model.ReasonInvalidPrimary, Detail: "bad", At: started},
	}
	for _, r := range results {
		if err := st.RecordDispatch("run-1", r); err != nil {
			t.Fatalf("RecordDispatch: %v", err)
		}
	}

	if err := st.FinishRun("run-1", RunCompleted, 1, 1, 0, ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := st.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != RunCompleted || run.SentCount != 1 || run.SkippedCount != 1 || !run.DryRun {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatalf("FinishedAt not set")
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("StartedAt=%v want %v", run.StartedAt, started)
	}

	ds, err := st.ListDispatches("run-1")
	if err != nil {
		t.Fatalf("ListDispatches: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("dispatches=%d", len(ds))
	}
	if ds[0].SupplierName != "Acme Inc" || ds[1].Reason != string(model.ReasonInvalidPrimary) {
		t.Fatalf("unexpected dispatches: %+v", ds)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := st.CreateRun(Run{ID: id, StartedAt: base.AddDate(0, 0, i)}); err != nil {
			t.Fatalf("CreateRun %s: %v", id, err)
		}
	}

	runs, err := st.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[0].Status != RunRunning || runs[0].FinishedAt != nil {
		t.Fatalf("unfinished run: %+v", runs[0])
	}
}

func TestGetRun_NotFound(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if _, err := st.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := st.FinishRun("missing", RunAborted, 0, 0, 0, "x"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecordDispatch_UnknownRunRejected(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	err := st.RecordDispatch("missing", model.DispatchResult{SupplierName: "Acme", Status: model.StatusSent})
	if err == nil {
		t.Fatalf("expected foreign key error")
	}
}
