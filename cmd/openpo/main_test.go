package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"openpo/internal/config"
)

func writeSheet(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
}

// writeFixture creates inputs and a config.toml pointing at them.
func writeFixture(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Input.OrdersPath = filepath.Join(base, "orders.xlsx")
	cfg.Input.DirectoryPath = filepath.Join(base, "directory.xlsx")
	cfg.Attachments.Dir = filepath.Join(base, "attachments")
	cfg.Data.DataDir = filepath.Join(base, "data")
	cfg.Log.Level = "error"

	writeSheet(t, cfg.Input.OrdersPath, [][]any{
		{"Supplier Name", "Buyer", "Po Creation Date", "PO Qty Due"},
		{"Acme, Inc.", "Jane", "2024-03-15", 5},
		{"Ghost Co", "Joe", "2024-03-21", 2},
	})
	writeSheet(t, cfg.Input.DirectoryPath, [][]any{
		{"Supplier Name", "Send_to_mail", "CC1_mail", "CC2_mail", "CC3_mail", "CC4_mail"},
		{"Acme Inc", "a@acme.com", "", "", "", ""},
	})

	path := filepath.Join(base, "config.toml")
	if err := config.SaveConfig(cfg, path); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeStreams(t, args...)
	return out, err
}

// executeStreams runs the root command and returns stdout and stderr separately.
func executeStreams(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		dryRun = false
		onlyList = nil
		historyRun = ""
		historySuppliers = false
		forceInit = false
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPlanCommand(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, "--config", path, "plan")
	if err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Acme Inc") || !strings.Contains(out, "a@acme.com") {
		t.Fatalf("plan output missing supplier:\n%s", out)
	}
	if !strings.Contains(out, "Ghost Co: no_directory_match") {
		t.Fatalf("plan output missing skip:\n%s", out)
	}
}

func TestReportsThenDryRunSend(t *testing.T) {
	path := writeFixture(t)

	if out, err := execute(t, "--config", path, "reports"); err != nil {
		t.Fatalf("reports: %v\n%s", err, out)
	}

	out, errOut, err := executeStreams(t, "--config", path, "send", "--dry-run")
	if err != nil {
		t.Fatalf("send: %v\n%s", err, errOut)
	}
	if strings.TrimSpace(out) != "Acme Inc" {
		t.Fatalf("send output = %q", out)
	}
	dir, ok := strings.CutPrefix(strings.TrimSpace(errOut), "outbox: ")
	if !ok {
		t.Fatalf("send stderr = %q", errOut)
	}
	emls, err := filepath.Glob(filepath.Join(dir, "*.eml"))
	if err != nil || len(emls) != 1 {
		t.Fatalf("expected 1 .eml in %s, got %v (%v)", dir, emls, err)
	}

	out, err = execute(t, "--config", path, "history")
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	if !strings.Contains(out, "outbox (dry-run)") || !strings.Contains(out, "completed") {
		t.Fatalf("history output:\n%s", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Fatalf("expected error when config exists")
	}
}
