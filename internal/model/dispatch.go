package model

import "time"

// Reason 跳过/告警原因
type Reason string

const (
	ReasonEmptySupplierName  Reason = "empty_supplier_name"
	ReasonInvalidQuantity    Reason = "invalid_quantity"
	ReasonInvalidDate        Reason = "invalid_creation_date"
	ReasonDuplicateDirectory Reason = "duplicate_directory_entry"
	ReasonNoDirectoryMatch   Reason = "no_directory_match"
	ReasonMissingPrimary     Reason = "missing_primary_email"
	ReasonInvalidPrimary     Reason = "invalid_primary_email"
	ReasonInvalidCC          Reason = "invalid_cc_email"
	ReasonAttachmentMissing  Reason = "attachment_missing"
	ReasonSendFailed         Reason = "send_failed"
)

// Issue 行级问题或被跳过的供应商
type Issue struct {
	Source   string `json:"source,omitempty"` // orders/directory/plan/dispatch
	Row      int    `json:"row,omitempty"`
	Supplier string `json:"supplier,omitempty"`
	Reason   Reason `json:"reason"`
	Detail   string `json:"detail,omitempty"`
}

// DispatchRow 关联成功、待发送的供应商
type DispatchRow struct {
	SupplierName string   `json:"supplierName"`
	SendTo       string   `json:"sendTo"`
	CC           []string `json:"cc"` // 原始 CC 列（未校验，可能为空）
	OpenOrders   int      `json:"openOrders"`
}

// Plan 发送计划
type Plan struct {
	Rows       []DispatchRow `json:"rows"`
	Skipped    []Issue       `json:"skipped"`
	OpenOrders int           `json:"openOrders"`
	Suppliers  int           `json:"suppliers"` // 有未结订单的供应商数
}

// DispatchStatus 单个供应商的发送结果
type DispatchStatus string

const (
	StatusSent    DispatchStatus = "sent"
	StatusSkipped DispatchStatus = "skipped"
	StatusFailed  DispatchStatus = "failed"
)

// DispatchResult 单个供应商的发送记录
type DispatchResult struct {
	SupplierName string         `json:"supplierName"`
	Recipients   string         `json:"recipients"`
	Subject      string         `json:"subject"`
	Attachment   string         `json:"attachment"`
	Status       DispatchStatus `json:"status"`
	Reason       Reason         `json:"reason,omitempty"`
	Detail       string         `json:"detail,omitempty"`
	Notes        []Issue        `json:"notes,omitempty"`
	At           time.Time      `json:"at"`
}

// RunReport 一次运行的汇总
type RunReport struct {
	RunID      string           `json:"runId"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Location   string           `json:"location,omitempty"` // dry-run 时 .eml 所在目录
	Results    []DispatchResult `json:"results"`
}

// Count 统计某状态的数量
func (r *RunReport) Count(status DispatchStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}
