package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	return buf
}

func TestParseTestCasesXLSX(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Notes", "Input", "Expected", "Visible"},
		{"sample", "2", "100", "yes"},
		{"", "7", "350", ""},
		{"blank input skipped", "", "0"},
	})

	cases, err := ParseTestCasesXLSX(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cases) != 2 || !cases[0].IsVisible || cases[1].IsVisible || cases[1].Expected != "350" {
		t.Fatalf("unexpected cases %+v", cases)
	}
}

func TestParseTestCasesXLSX_RejectsUnusableFiles(t *testing.T) {
	if _, err := ParseTestCasesXLSX(strings.NewReader("not a workbook")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for garbage, got %v", err)
	}
	buf := workbook(t, [][]interface{}{{"Name", "Email"}, {"a", "b"}})
	if _, err := ParseTestCasesXLSX(buf); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error without the needed columns, got %v", err)
	}
}
