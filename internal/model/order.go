package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 采购订单行（来自订单报表）
type Order struct {
	Row          int             `json:"row"`          // Excel 行号（含表头，从 1 开始）
	SupplierName string          `json:"supplierName"` // 规范化后的供应商名称
	RawSupplier  string          `json:"rawSupplier"`  // 原始供应商名称
	Buyer        string          `json:"buyer"`
	CreatedAt    time.Time       `json:"createdAt"` // 零值表示日期缺失或无法解析
	QtyDue       decimal.Decimal `json:"qtyDue"`
	Cells        []string        `json:"-"` // 原始单元格，按表头顺序，用于生成报表
}

// IsOpen 是否仍有未交数量
func (o Order) IsOpen() bool {
	return o.QtyDue.IsPositive()
}

// AgeDays 订单创建至 now 的天数；日期缺失返回 -1
func (o Order) AgeDays(now time.Time) int {
	if o.CreatedAt.IsZero() {
		return -1
	}
	return int(now.Sub(o.CreatedAt).Hours() / 24)
}

// OrderTable 订单报表加载结果
type OrderTable struct {
	Sheet  string   `json:"sheet"`
	Header []string `json:"header"`
	Orders []Order  `json:"orders"`
	Issues []Issue  `json:"issues"`
}
