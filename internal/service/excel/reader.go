package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"openpo/internal/model"
	"openpo/internal/parser"
)

// 订单报表列
const (
	ColSupplierName = "Supplier Name"
	ColBuyer        = "Buyer"
	ColCreationDate = "Po Creation Date"
	ColQtyDue       = "PO Qty Due"
)

// 供应商通讯录列
const (
	ColSendTo = "Send_to_mail"
)

// CCColumns 抄送列（可选）
var CCColumns = [model.MaxCC]string{"CC1_mail", "CC2_mail", "CC3_mail", "CC4_mail"}

var (
	// ErrSheetNotFound 指定的工作表不存在
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrEmptySheet 工作表没有表头
	ErrEmptySheet = errors.New("empty sheet")
	// ErrMissingColumns 缺少必需列
	ErrMissingColumns = errors.New("missing required columns")
)

// SheetData 工作表原始数据（单元格原始值）
type SheetData struct {
	Name   string
	Header []string
	Rows   [][]string // 不含表头
}

// OpenWorkbook 打开 Excel 文件
func OpenWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel %s: %w", path, err)
	}
	return f, nil
}

// OpenWorkbookReader 从 reader 打开 Excel
func OpenWorkbookReader(r io.Reader) (*excelize.File, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	return f, nil
}

// ReadSheet 读取工作表；sheet 为空时取第一个工作表
func ReadSheet(f *excelize.File, sheet string) (*SheetData, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySheet
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	// 读原始值：日期保持 Excel 序列号，数量不带格式化
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySheet, sheet)
	}

	return &SheetData{
		Name:   sheet,
		Header: rows[0],
		Rows:   rows[1:],
	}, nil
}

// ColumnIndex 按规范化列名解析列位置；缺少 required 中任意一列时返回 ErrMissingColumns
func (d *SheetData) ColumnIndex(required, optional []string) (map[string]int, error) {
	byKey := make(map[string]int, len(d.Header))
	for i, h := range d.Header {
		key := parser.NormalizeColumnName(h)
		if key == "" {
			continue
		}
		if _, dup := byKey[key]; !dup {
			byKey[key] = i
		}
	}

	index := make(map[string]int, len(required)+len(optional))
	var missing []string
	for _, col := range required {
		i, ok := byKey[parser.NormalizeColumnName(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		index[col] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in sheet %q: %s", ErrMissingColumns, d.Name, strings.Join(missing, ", "))
	}

	for _, col := range optional {
		if i, ok := byKey[parser.NormalizeColumnName(col)]; ok {
			index[col] = i
		} else {
			index[col] = -1
		}
	}
	return index, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// LoadOrders 从文件加载订单报表
func LoadOrders(path, sheet string) (*model.OrderTable, error) {
	f, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseOrders(f, sheet)
}

// ParseOrders 解析订单报表
func ParseOrders(f *excelize.File, sheet string) (*model.OrderTable, error) {
	data, err := ReadSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	cols, err := data.ColumnIndex([]string{ColSupplierName, ColBuyer, ColCreationDate, ColQtyDue}, nil)
	if err != nil {
		return nil, err
	}

	table := &model.OrderTable{
		Sheet:  data.Name,
		Header: data.Header,
		Orders: make([]model.Order, 0, len(data.Rows)),
	}

	for i, row := range data.Rows {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		raw := parser.CellText(row, cols[ColSupplierName])
		name := parser.NormalizeSupplierName(raw)
		if strings.TrimSpace(name) == "" {
			table.Issues = append(table.Issues, model.Issue{
				Source: "orders",
				Row:    rowNum,
				Reason: model.ReasonEmptySupplierName,
				Detail: raw,
			})
			continue
		}

		qty, err := parser.ParseQuantity(parser.CellText(row, cols[ColQtyDue]))
		if err != nil {
			table.Issues = append(table.Issues, model.Issue{
				Source:   "orders",
				Row:      rowNum,
				Supplier: name,
				Reason:   model.ReasonInvalidQuantity,
				Detail:   err.Error(),
			})
			continue
		}

		created, err := parser.ParseDate(parser.CellText(row, cols[ColCreationDate]))
		if err != nil {
			// 日期仅用于报表着色，解析失败不影响发送
			table.Issues = append(table.Issues, model.Issue{
				Source:   "orders",
				Row:      rowNum,
				Supplier: name,
				Reason:   model.ReasonInvalidDate,
				Detail:   err.Error(),
			})
		}

		cells := make([]string, len(data.Header))
		copy(cells, row)

		table.Orders = append(table.Orders, model.Order{
			Row:          rowNum,
			SupplierName: name,
			RawSupplier:  raw,
			Buyer:        parser.CellText(row, cols[ColBuyer]),
			CreatedAt:    created,
			QtyDue:       qty,
			Cells:        cells,
		})
	}

	return table, nil
}

// LoadDirectory 从文件加载供应商通讯录
func LoadDirectory(path, sheet string) (*model.Directory, error) {
	f, err := OpenWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseDirectory(f, sheet)
}

// ParseDirectory 解析供应商通讯录
// 同名（规范化后）供应商取第一条主邮箱有效的行，均无效时取第一行；
// 完全相同的重复行直接忽略，内容不同的记为问题
func ParseDirectory(f *excelize.File, sheet string) (*model.Directory, error) {
	data, err := ReadSheet(f, sheet)
	if err != nil {
		return nil, err
	}
	cols, err := data.ColumnIndex([]string{ColSupplierName, ColSendTo}, CCColumns[:])
	if err != nil {
		return nil, err
	}

	dir := &model.Directory{
		Sheet:   data.Name,
		Entries: make([]model.DirectoryEntry, 0, len(data.Rows)),
	}
	seen := make(map[string]int) // 规范化名称 → Entries 下标

	for i, row := range data.Rows {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		raw := parser.CellText(row, cols[ColSupplierName])
		name := parser.NormalizeSupplierName(raw)
		if strings.TrimSpace(name) == "" {
			dir.Issues = append(dir.Issues, model.Issue{
				Source: "directory",
				Row:    rowNum,
				Reason: model.ReasonEmptySupplierName,
				Detail: raw,
			})
			continue
		}

		entry := model.DirectoryEntry{
			Row:          rowNum,
			SupplierName: name,
			SendTo:       parser.CellText(row, cols[ColSendTo]),
		}
		for j, col := range CCColumns {
			entry.CC[j] = parser.CellText(row, cols[col])
		}

		idx, ok := seen[name]
		if !ok {
			seen[name] = len(dir.Entries)
			dir.Entries = append(dir.Entries, entry)
			continue
		}

		first := dir.Entries[idx]
		if first.SendTo == entry.SendTo && first.CC == entry.CC {
			continue
		}
		// 首行没有可用主邮箱时，由后面第一条有效行替换
		if !parser.IsValidEmail(first.SendTo) && parser.IsValidEmail(entry.SendTo) {
			dir.Entries[idx] = entry
			dir.Issues = append(dir.Issues, model.Issue{
				Source:   "directory",
				Row:      first.Row,
				Supplier: name,
				Reason:   model.ReasonDuplicateDirectory,
				Detail:   fmt.Sprintf("no usable Send_to_mail, row %d used instead", entry.Row),
			})
			continue
		}
		dir.Issues = append(dir.Issues, model.Issue{
			Source:   "directory",
			Row:      rowNum,
			Supplier: name,
			Reason:   model.ReasonDuplicateDirectory,
			Detail:   fmt.Sprintf("row %d already defines this supplier", first.Row),
		})
	}

	return dir, nil
}
