package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SupplierStat 供应商的历史发送统计
type SupplierStat struct {
	SupplierName string     `json:"supplierName"`
	SentCount    int        `json:"sentCount"`
	SkippedCount int        `json:"skippedCount"`
	FailedCount  int        `json:"failedCount"`
	LastSentAt   *time.Time `json:"lastSentAt,omitempty"`
	LastStatus   string     `json:"lastStatus"`
}

// ListSupplierStats 按供应商汇总发送记录（按名称排序），dry-run 运行不计入
func (s *Store) ListSupplierStats() ([]SupplierStat, error) {
	rows, err := s.db.Query(`
		SELECT
			d.supplier_name,
			SUM(CASE WHEN d.status = 'sent' THEN 1 ELSE 0 END),
			SUM(CASE WHEN d.status = 'skipped' THEN 1 ELSE 0 END),
			SUM(CASE WHEN d.status = 'failed' THEN 1 ELSE 0 END),
			(SELECT MAX(x.created_at) FROM dispatches x JOIN runs rx ON rx.id = x.run_id
				WHERE x.supplier_name = d.supplier_name AND x.status = 'sent' AND rx.dry_run = 0),
			(SELECT y.status FROM dispatches y JOIN runs ry ON ry.id = y.run_id
				WHERE y.supplier_name = d.supplier_name AND ry.dry_run = 0
				ORDER BY y.created_at DESC, y.id DESC LIMIT 1)
		FROM dispatches d
		JOIN runs r ON r.id = d.run_id
		WHERE r.dry_run = 0 AND d.supplier_name != ''
		GROUP BY d.supplier_name
		ORDER BY d.supplier_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query supplier stats failed: %w", err)
	}
	defer rows.Close()

	out := []SupplierStat{}
	for rows.Next() {
		var (
			it       SupplierStat
			lastSent sql.NullString
		)
		if err := rows.Scan(&it.SupplierName, &it.SentCount, &it.SkippedCount, &it.FailedCount,
			&lastSent, &it.LastStatus); err != nil {
			return nil, fmt.Errorf("scan supplier stats failed: %w", err)
		}
		if lastSent.Valid {
			if t, err := parseSQLiteTime(lastSent.String); err == nil {
				it.LastSentAt = &t
			}
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier stats failed: %w", err)
	}
	return out, nil
}

// go-sqlite3 只对声明为 DATETIME 的列自动转换；聚合结果以文本返回
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

func parseSQLiteTime(s string) (time.Time, error) {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
