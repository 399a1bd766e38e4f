package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"openpo/internal/model"
	"openpo/internal/parser"
)

// Priority 未结订单的紧急程度（按订单账龄）
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityNormal   Priority = "Normal"
)

// 报表配色：Red - Critical, Orange - High
const (
	colorCritical = "#FF9999"
	colorHigh     = "#FFCC99"
	colorHeader   = "#E2E8F0"
)

const (
	reportSheet = "Open PO"
	legendSheet = "Legend"
)

// ReportOptions 供应商报表选项
type ReportOptions struct {
	Prefix          string
	Ext             string
	CriticalAgeDays int
	HighAgeDays     int
	Now             time.Time
}

// ReportExporter 供应商未结订单报表导出器
type ReportExporter struct {
	opts ReportOptions
}

// NewReportExporter 创建导出器
func NewReportExporter(opts ReportOptions) *ReportExporter {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &ReportExporter{opts: opts}
}

// PriorityFor 根据账龄判定优先级；日期缺失视为普通
func (e *ReportExporter) PriorityFor(o model.Order) Priority {
	age := o.AgeDays(e.opts.Now)
	switch {
	case age < 0:
		return PriorityNormal
	case age > e.opts.CriticalAgeDays:
		return PriorityCritical
	case age > e.opts.HighAgeDays:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

type reportStyles struct {
	header int
	fill   map[Priority]int
	date   map[Priority]int
}

func (e *ReportExporter) newStyles(f *excelize.File) (*reportStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeader}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	s := &reportStyles{
		header: header,
		fill:   make(map[Priority]int),
		date:   make(map[Priority]int),
	}
	colors := map[Priority]string{
		PriorityCritical: colorCritical,
		PriorityHigh:     colorHigh,
		PriorityNormal:   "",
	}
	for p, color := range colors {
		base := excelize.Style{}
		if color != "" {
			base.Fill = excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
		}
		if s.fill[p], err = f.NewStyle(&base); err != nil {
			return nil, err
		}
		dateStyle := base
		dateStyle.NumFmt = 14
		if s.date[p], err = f.NewStyle(&dateStyle); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Export 生成单个供应商的报表：原始列 + Priority 列，按账龄着色
func (e *ReportExporter) Export(supplier string, header []string, orders []model.Order) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	styles, err := e.newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create styles: %w", err)
	}

	dateCol, qtyCol := -1, -1
	for i, h := range header {
		switch parser.NormalizeColumnName(h) {
		case parser.NormalizeColumnName(ColCreationDate):
			dateCol = i
		case parser.NormalizeColumnName(ColQtyDue):
			qtyCol = i
		}
	}

	headers := append(append([]string{}, header...), "Priority")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reportSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(reportSheet, "A1", lastCol+"1", styles.header)

	for i, o := range orders {
		row := i + 2
		priority := e.PriorityFor(o)

		for j := range header {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			var value any
			switch {
			case j == dateCol && !o.CreatedAt.IsZero():
				value = o.CreatedAt
			case j == qtyCol:
				value = o.QtyDue.InexactFloat64()
			default:
				value = cellValue(o.Cells, j)
			}
			if err := f.SetCellValue(reportSheet, cell, value); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
			style := styles.fill[priority]
			if j == dateCol && !o.CreatedAt.IsZero() {
				style = styles.date[priority]
			}
			_ = f.SetCellStyle(reportSheet, cell, cell, style)
		}

		cell, _ := excelize.CoordinatesToCellName(len(headers), row)
		_ = f.SetCellValue(reportSheet, cell, string(priority))
		_ = f.SetCellStyle(reportSheet, cell, cell, styles.fill[priority])
	}

	_ = f.SetColWidth(reportSheet, "A", lastCol, 18)
	_ = f.SetPanes(reportSheet, &excelize.Panes{Freeze: true, Split: false, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := e.writeLegend(f, supplier, styles); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (e *ReportExporter) writeLegend(f *excelize.File, supplier string, styles *reportStyles) error {
	if _, err := f.NewSheet(legendSheet); err != nil {
		return fmt.Errorf("create legend sheet: %w", err)
	}
	rows := [][]any{
		{"Supplier", supplier},
		{"Generated", e.opts.Now.Format("2006-01-02")},
		{},
		{"Priority", "Rule"},
		{string(PriorityCritical), fmt.Sprintf("older than %d days", e.opts.CriticalAgeDays)},
		{string(PriorityHigh), fmt.Sprintf("older than %d days", e.opts.HighAgeDays)},
		{string(PriorityNormal), "recent or undated"},
	}
	for i, r := range rows {
		for j, v := range r {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			_ = f.SetCellValue(legendSheet, cell, v)
		}
	}
	_ = f.SetCellStyle(legendSheet, "A4", "B4", styles.header)
	_ = f.SetCellStyle(legendSheet, "A5", "A5", styles.fill[PriorityCritical])
	_ = f.SetCellStyle(legendSheet, "A6", "A6", styles.fill[PriorityHigh])
	_ = f.SetColWidth(legendSheet, "A", "B", 22)
	return nil
}

// cellValue 原样写回原始单元格；可解析为数字的写成数字
func cellValue(cells []string, idx int) any {
	s := parser.CellText(cells, idx)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// GroupOpenOrders 按供应商分组未结订单，保持订单表中的先后顺序
func GroupOpenOrders(orders []model.Order) map[string][]model.Order {
	groups := make(map[string][]model.Order)
	for _, o := range orders {
		if o.IsOpen() {
			groups[o.SupplierName] = append(groups[o.SupplierName], o)
		}
	}
	return groups
}

// WriteAll 为 suppliers 中每个有未结订单的供应商写出报表，返回写出的文件路径
func (e *ReportExporter) WriteAll(dir string, table *model.OrderTable, suppliers []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	groups := GroupOpenOrders(table.Orders)
	written := make([]string, 0, len(suppliers))
	for _, name := range suppliers {
		orders := groups[name]
		if len(orders) == 0 {
			continue
		}

		f, err := e.Export(name, table.Header, orders)
		if err != nil {
			return written, fmt.Errorf("export %s: %w", name, err)
		}
		path := filepath.Join(dir, parser.AttachmentName(e.opts.Prefix, name, e.opts.Ext))
		err = f.SaveAs(path)
		_ = f.Close()
		if err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
