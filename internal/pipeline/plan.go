package pipeline

import (
	"fmt"
	"strings"

	"openpo/internal/model"
	"openpo/internal/parser"
)

// FilterOpen 保留未交数量大于 0 的订单
func FilterOpen(orders []model.Order) []model.Order {
	open := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsOpen() {
			open = append(open, o)
		}
	}
	return open
}

// UniqueSuppliers 去重后的供应商名称，按首次出现顺序
func UniqueSuppliers(orders []model.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	out := make([]string, 0)
	for _, o := range orders {
		if _, ok := seen[o.SupplierName]; ok {
			continue
		}
		seen[o.SupplierName] = struct{}{}
		out = append(out, o.SupplierName)
	}
	return out
}

// Join 供应商与通讯录按规范化名称内连接
// 通讯录中找不到、主邮箱为空或格式错误的供应商进入跳过列表
func Join(suppliers []string, dir *model.Directory) ([]model.DispatchRow, []model.Issue) {
	rows := make([]model.DispatchRow, 0, len(suppliers))
	var skipped []model.Issue
	seen := make(map[string]struct{}, len(suppliers))

	for _, name := range suppliers {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		entry, ok := dir.Lookup(name)
		if !ok {
			skipped = append(skipped, model.Issue{
				Source:   "plan",
				Supplier: name,
				Reason:   model.ReasonNoDirectoryMatch,
			})
			continue
		}
		sendTo := strings.TrimSpace(entry.SendTo)
		if sendTo == "" {
			skipped = append(skipped, model.Issue{
				Source:   "plan",
				Row:      entry.Row,
				Supplier: name,
				Reason:   model.ReasonMissingPrimary,
			})
			continue
		}
		if !parser.IsValidEmail(sendTo) {
			skipped = append(skipped, model.Issue{
				Source:   "plan",
				Row:      entry.Row,
				Supplier: name,
				Reason:   model.ReasonInvalidPrimary,
				Detail:   sendTo,
			})
			continue
		}

		rows = append(rows, model.DispatchRow{
			SupplierName: name,
			SendTo:       sendTo,
			CC:           append([]string(nil), entry.CC[:]...),
		})
	}
	return rows, skipped
}

// PlanOptions 计划选项
type PlanOptions struct {
	Only []string // 仅处理这些供应商（原始名称，内部规范化）
}

// SelectSuppliers 有未结订单的供应商；only 非空时仅保留其中列出的（原始名称，内部规范化）
func SelectSuppliers(orders []model.Order, only []string) []string {
	suppliers := UniqueSuppliers(FilterOpen(orders))
	if len(only) == 0 {
		return suppliers
	}

	wanted := make(map[string]struct{}, len(only))
	for _, n := range only {
		wanted[parser.NormalizeSupplierName(n)] = struct{}{}
	}
	filtered := suppliers[:0]
	for _, s := range suppliers {
		if _, ok := wanted[s]; ok {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// BuildPlan 过滤 → 去重 → 关联，生成发送计划
func BuildPlan(table *model.OrderTable, dir *model.Directory, opts PlanOptions) *model.Plan {
	open := FilterOpen(table.Orders)
	suppliers := SelectSuppliers(open, opts.Only)

	counts := make(map[string]int, len(suppliers))
	for _, o := range open {
		counts[o.SupplierName]++
	}

	rows, skipped := Join(suppliers, dir)
	for i := range rows {
		rows[i].OpenOrders = counts[rows[i].SupplierName]
	}

	return &model.Plan{
		Rows:       rows,
		Skipped:    skipped,
		OpenOrders: len(open),
		Suppliers:  len(suppliers),
	}
}

// ValidCC 逐个校验 CC 地址；空值忽略，格式错误的记入 notes
func ValidCC(supplier string, cc []string) ([]string, []model.Issue) {
	valid := make([]string, 0, len(cc))
	var notes []model.Issue
	for i, addr := range cc {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !parser.IsValidEmail(addr) {
			notes = append(notes, model.Issue{
				Source:   "dispatch",
				Supplier: supplier,
				Reason:   model.ReasonInvalidCC,
				Detail:   fmt.Sprintf("CC%d: %s", i+1, addr),
			})
			continue
		}
		valid = append(valid, addr)
	}
	return valid, notes
}

// RecipientString 主邮箱 + 有效 CC，以 ";" 连接
func RecipientString(primary string, cc []string) string {
	return strings.Join(append([]string{strings.TrimSpace(primary)}, cc...), ";")
}
