package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseTestCasesXLSX reads test cases from the first sheet that has Input and Expected columns.
// An optional Visible column accepts yes/true/1/x.
func ParseTestCasesXLSX(r io.Reader) ([]TestCaseInput, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XLSX file: %w", ErrValidation)
	}
	defer book.Close()

	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) < 2 {
			continue
		}

		inputIdx, expectedIdx, visibleIdx := -1, -1, -1
		for i, cell := range rows[0] {
			switch strings.ToLower(strings.TrimSpace(cell)) {
			case "input", "inputs":
				inputIdx = i
			case "expected", "expected output", "output":
				expectedIdx = i
			case "visible", "is_visible", "public":
				visibleIdx = i
			}
		}
		if inputIdx == -1 || expectedIdx == -1 {
			continue
		}

		var cases []TestCaseInput
		for _, row := range rows[1:] {
			if len(row) <= inputIdx || len(row) <= expectedIdx || row[inputIdx] == "" {
				continue
			}
			tc := TestCaseInput{Input: row[inputIdx], Expected: row[expectedIdx]}
			if visibleIdx != -1 && len(row) > visibleIdx {
				switch strings.ToLower(strings.TrimSpace(row[visibleIdx])) {
				case "yes", "true", "1", "x":
					tc.IsVisible = true
				}
			}
			cases = append(cases, tc)
		}
		if len(cases) > 0 {
			return cases, nil
		}
	}
	return nil, &ValidationError{Fields: map[string]string{"file": "no sheet with Input and Expected columns and at least one row"}}
}
