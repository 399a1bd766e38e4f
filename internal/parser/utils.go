package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var (
	supplierNameStrip = regexp.MustCompile(`[^A-Za-z0-9 ]+`)
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	columnNameStrip   = regexp.MustCompile(`[\s_]+`)
)

// ErrInvalidQuantity 数量无法解析
var ErrInvalidQuantity = errors.New("invalid quantity")

// ErrInvalidDate 日期无法解析
var ErrInvalidDate = errors.New("invalid date")

// NormalizeSupplierName 供应商名称规范化：仅保留 ASCII 字母、数字和空格
// 订单表与通讯录必须使用同一规则，否则关联时会静默丢行
func NormalizeSupplierName(name string) string {
	return supplierNameStrip.ReplaceAllString(name, "")
}

// NormalizeColumnName 规范化列名：小写并去除空白、换行和下划线
// "Send_to_mail" / "Send To Mail" / " send_to_mail\n" 视为同一列
func NormalizeColumnName(name string) string {
	return strings.ToLower(columnNameStrip.ReplaceAllString(name, ""))
}

// IsValidEmail 简单邮箱校验：local@domain.tld，且只能有一个 @
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// CellText 取单元格文本；越界视为空字符串（不产生 "nan"）
func CellText(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseQuantity 解析数量，空值视为 0
func ParseQuantity(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	// 移除千分位分隔符
	s = strings.ReplaceAll(s, ",", "")
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return q, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"02-Jan-2006",
	"2006/01/02",
}

// ParseDate 解析日期：支持 Excel 序列号与常见文本格式；空值返回零值
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		return t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// AttachmentName 附件文件名：前缀 + 供应商名 + 扩展名
func AttachmentName(prefix, supplier, ext string) string {
	return prefix + supplier + ext
}
