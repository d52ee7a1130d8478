package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/vocabdeck/internal/domain"
)

// Workbook columns, left to right.
const (
	colHeadword = iota
	colPronunciation
	colDefinition
	colExample
	colLevel
)

// ParseWorkbookFile reads an xlsx deck from disk.
func ParseWorkbookFile(path string) ([]domain.CardContent, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return parseWorkbook(f)
}

// ParseWorkbook reads an xlsx deck. Every sheet is read; within a sheet each
// row is headword, pronunciation, definition, example, level. A first row
// whose first cell is "headword" is treated as a header.
func ParseWorkbook(r io.Reader) ([]domain.CardContent, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f)
}

func parseWorkbook(f *excelize.File) ([]domain.CardContent, error) {
	var cards []domain.CardContent
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of sheet %s: %w", sheet, err)
		}
		for i, row := range rows {
			if i == 0 && strings.EqualFold(cell(row, colHeadword), "headword") {
				continue
			}
			c := domain.CardContent{
				Headword:      cell(row, colHeadword),
				Pronunciation: cell(row, colPronunciation),
				Definition:    cell(row, colDefinition),
				Example:       cell(row, colExample),
				Level:         domain.Level(strings.ToUpper(cell(row, colLevel))),
			}
			if c.Headword == "" {
				continue
			}
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// cell returns the trimmed value at col; GetRows drops trailing empty cells.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
