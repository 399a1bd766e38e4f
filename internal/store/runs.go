package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"openpo/internal/model"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("run not found")

// 运行状态
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// Run 运行记录
type Run struct {
	ID            string     `json:"id"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
	OrdersFile    string     `json:"ordersFile"`
	DirectoryFile string     `json:"directoryFile"`
	Transport     string     `json:"transport"`
	DryRun        bool       `json:"dryRun"`
	Status        string     `json:"status"`
	SentCount     int        `json:"sentCount"`
	SkippedCount  int        `json:"skippedCount"`
	FailedCount   int        `json:"failedCount"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
}

// Dispatch 单个供应商的发送记录
type Dispatch struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"runId"`
	SupplierName string    `json:"supplierName"`
	Recipients   string    `json:"recipients"`
	Subject      string    `json:"subject"`
	Attachment   string    `json:"attachment"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateRun 写入一条运行记录（status=running）
func (s *Store) CreateRun(run Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, orders_file, directory_file, transport, dry_run, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.OrdersFile, run.DirectoryFile, run.Transport, run.DryRun, RunRunning)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun 结束运行，回写计数与状态
func (s *Store) FinishRun(id, status string, sent, skipped, failed int, errorMessage string) error {
	res, err := s.db.Exec(`
		UPDATE runs SET
			finished_at = ?,
			status = ?,
			sent_count = ?,
			skipped_count = ?,
			failed_count = ?,
			error_message = ?
		WHERE id = ?
	`, time.Now().UTC(), status, sent, skipped, failed, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// RecordDispatch 记录单个供应商的结果
func (s *Store) RecordDispatch(runID string, r model.DispatchResult) error {
	at := r.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO dispatches (run_id, supplier_name, recipients, subject, attachment, status, reason, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, r.SupplierName, r.Recipients, r.Subject, r.Attachment, string(r.Status), string(r.Reason), r.Detail, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record dispatch for %s: %w", r.SupplierName, err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, orders_file, directory_file, transport, dry_run,
	status, sent_count, skipped_count, failed_count, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var (
		r        Run
		finished sql.NullTime
	)
	err := sc.Scan(&r.ID, &r.StartedAt, &finished, &r.OrdersFile, &r.DirectoryFile, &r.Transport, &r.DryRun,
		&r.Status, &r.SentCount, &r.SkippedCount, &r.FailedCount, &r.ErrorMessage)
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// ListRuns 按开始时间倒序列出运行记录
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs failed: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run failed: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs failed: %w", err)
	}
	return out, nil
}

// GetRun 查询单次运行
func (s *Store) GetRun(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run failed: %w", err)
	}
	return &r, nil
}

// ListDispatches 列出某次运行的发送记录（按写入顺序）
func (s *Store) ListDispatches(runID string) ([]Dispatch, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, supplier_name, recipients, subject, attachment, status, reason, detail, created_at
		FROM dispatches WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query dispatches failed: %w", err)
	}
	defer rows.Close()

	out := []Dispatch{}
	for rows.Next() {
		var d Dispatch
		if err := rows.Scan(&d.ID, &d.RunID, &d.SupplierName, &d.Recipients, &d.Subject, &d.Attachment,
			&d.Status, &d.Reason, &d.Detail, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dispatch failed: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches failed: %w", err)
	}
	return out, nil
}
