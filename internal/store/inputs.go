package store

import "fmt"

// 输入文件类型
const (
	InputOrders    = "orders"
	InputDirectory = "directory"
)

// RunInput 运行读取的输入文件
type RunInput struct {
	ID         int64  `json:"id"`
	RunID      string `json:"runId"`
	Kind       string `json:"kind"`
	FilePath   string `json:"filePath"`
	FileSize   int64  `json:"fileSize"`
	FileHash   string `json:"fileHash"`
	RowCount   int    `json:"rowCount"`
	IssueCount int    `json:"issueCount"`
}

// RecordInput 记录输入文件，返回 id
func (s *Store) RecordInput(in RunInput) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO run_inputs (run_id, kind, file_path, file_size, file_hash, row_count, issue_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.RunID, in.Kind, in.FilePath, in.FileSize, in.FileHash, in.RowCount, in.IssueCount)
	if err != nil {
		return 0, fmt.Errorf("failed to record input: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get input id: %w", err)
	}
	return id, nil
}

// ListInputs 列出某次运行的输入文件
func (s *Store) ListInputs(runID string) ([]RunInput, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, kind, file_path, file_size, file_hash, row_count, issue_count
		FROM run_inputs WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query inputs failed: %w", err)
	}
	defer rows.Close()

	out := []RunInput{}
	for rows.Next() {
		var in RunInput
		if err := rows.Scan(&in.ID, &in.RunID, &in.Kind, &in.FilePath, &in.FileSize, &in.FileHash,
			&in.RowCount, &in.IssueCount); err != nil {
			return nil, fmt.Errorf("scan input failed: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inputs failed: %w", err)
	}
	return out, nil
}
