package store

import (
	"testing"
	"time"

	"openpo/internal/model"
)

func TestRecordInput(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	if err := st.CreateRun(Run{ID: "run-1", StartedAt: time.Now()}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	for _, in := range []RunInput{
		{RunID: "run-1", Kind: InputOrders, FilePath: "orders.xlsx", FileSize: 2048, FileHash: "abc", RowCount: 12, IssueCount: 1},
		{RunID: "run-1", Kind: InputDirectory, FilePath: "emails.xlsx", FileSize: 512, FileHash: "def", RowCount: 4},
	} {
		if _, err := st.RecordInput(in); err != nil {
			t.Fatalf("RecordInput: %v", err)
		}
	}

	inputs, err := st.ListInputs("run-1")
	if err != nil {
		t.Fatalf("ListInputs: %v", err)
	}
	if len(inputs) != 2 || inputs[0].Kind != InputOrders || inputs[0].RowCount != 12 || inputs[1].FileHash != "def" {
		t.Fatalf("inputs = %+v", inputs)
	}

	if _, err := st.RecordInput(RunInput{RunID: "missing", Kind: InputOrders, FilePath: "x"}); err == nil {
		t.Fatalf("expected foreign key error for unknown run")
	}
}

func TestListSupplierStats(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	day1 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	runs := []struct {
		id      string
		dryRun  bool
		at      time.Time
		results []model.DispatchResult
	}{
		{"run-1", false, day1, []model.DispatchResult{
			{SupplierName: "Acme Inc", Status: model.StatusSent, At: day1},
			{SupplierName: "Beta", Status: model.StatusFailed, Reason: model.ReasonSendFailed, At: day1},
		}},
		{"run-2", false, day2, []model.DispatchResult{
			{SupplierName: "Acme Inc", Status: model.StatusSkipped, Reason: model.ReasonAttachmentMissing, At: day2},
			{SupplierName: "Beta", Status: model.StatusSent, At: day2},
		}},
		{"run-dry", true, day2.Add(time.Hour), []model.DispatchResult{
			{SupplierName: "Acme Inc", Status: model.StatusSent, At: day2.Add(time.Hour)},
			{SupplierName: "Gamma", Status: model.StatusSent, At: day2.Add(time.Hour)},
		}},
	}
	for _, r := range runs {
		if err := st.CreateRun(Run{ID: r.id, StartedAt: r.at, DryRun: r.dryRun}); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		for _, res := range r.results {
			if err := st.RecordDispatch(r.id, res); err != nil {
				t.Fatalf("RecordDispatch: %v", err)
			}
		}
	}

	stats, err := st.ListSupplierStats()
	if err != nil {
		t.Fatalf("ListSupplierStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("dry-run only supplier must be excluded: %+v", stats)
	}

	acme, beta := stats[0], stats[1]
	if acme.SupplierName != "Acme Inc" || acme.SentCount != 1 || acme.SkippedCount != 1 || acme.LastStatus != "skipped" {
		t.Fatalf("acme = %+v", acme)
	}
	if acme.LastSentAt == nil || !acme.LastSentAt.Equal(day1) {
		t.Fatalf("acme last sent = %v", acme.LastSentAt)
	}
	if beta.SentCount != 1 || beta.FailedCount != 1 || beta.LastStatus != "sent" {
		t.Fatalf("beta = %+v", beta)
	}
}
