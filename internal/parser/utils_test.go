package parser

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeSupplierName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Acme, Inc.":          "Acme Inc",
		"O'Brien & Sons Ltd.": "OBrien  Sons Ltd",
		"Müller GmbH":         "Mller GmbH",
		"3M (Europe)":         "3M Europe",
		"":                    "",
		"Plain Name 42":       "Plain Name 42",
	}
	for in, want := range cases {
		if got := NormalizeSupplierName(in); got != want {
			t.Fatalf("NormalizeSupplierName(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestNormalizeSupplierName_OnlyAllowedCharsInOrder(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"A-b_c!d@e#f$g%h^i&j*k(l)m",
		"~!@#$%^&*()_+{}|:\"<>?",
		"Tab\there\nnewline",
		"中文 Supplier 7",
	}
	for _, in := range inputs {
		got := NormalizeSupplierName(in)
		for _, r := range got {
			ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' '
			if !ok {
				t.Fatalf("NormalizeSupplierName(%q)=%q contains %q", in, got, r)
			}
		}
		// 保留字符的相对顺序不变：结果是输入的子序列
		i := 0
		for _, r := range in {
			if i < len(got) && rune(got[i]) == r {
				i++
			}
		}
		if i != len(got) {
			t.Fatalf("NormalizeSupplierName(%q)=%q is not a subsequence", in, got)
		}
	}
}

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Send_to_mail", "Send To Mail", " send_to_mail\n", "SEND\tTO_MAIL"} {
		if got := NormalizeColumnName(in); got != "sendtomail" {
			t.Fatalf("NormalizeColumnName(%q)=%q", in, got)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{"buyer@acme.com", "a.b@sub.domain.org", " padded@acme.io "}
	invalid := []string{"", "notanemail", "nodot@domain", "two@@acme.com", "a@b@c.com", "@acme.com", "user@.", "nan", "has space@acme.com"}

	for _, s := range valid {
		if !IsValidEmail(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if IsValidEmail(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestCellText(t *testing.T) {
	t.Parallel()

	row := []string{" a ", "b"}
	if got := CellText(row, 0); got != "a" {
		t.Fatalf("CellText(0)=%q", got)
	}
	if got := CellText(row, 5); got != "" {
		t.Fatalf("CellText(5)=%q want empty", got)
	}
	if got := CellText(row, -1); got != "" {
		t.Fatalf("CellText(-1)=%q want empty", got)
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	q, err := ParseQuantity("1,250.5")
	if err != nil {
		t.Fatalf("ParseQuantity: %v", err)
	}
	if q.String() != "1250.5" {
		t.Fatalf("q=%s", q)
	}

	q, err = ParseQuantity("")
	if err != nil || !q.IsZero() {
		t.Fatalf("empty quantity: q=%s err=%v", q, err)
	}

	if _, err := ParseQuantity("five"); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-03-15", "03/15/2024", "3/15/2024", "15-Mar-2024", "45366"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseDate(%q)=%v want=%v", in, got, want)
		}
	}

	if got, err := ParseDate(""); err != nil || !got.IsZero() {
		t.Fatalf("empty date: %v %v", got, err)
	}
	if _, err := ParseDate("someday"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestAttachmentName(t *testing.T) {
	t.Parallel()

	if got := AttachmentName("Open_PO_", "Acme Inc", ".xlsx"); got != "Open_PO_Acme Inc.xlsx" {
		t.Fatalf("AttachmentName=%q", got)
	}
}
