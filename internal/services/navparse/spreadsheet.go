package navparse

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1} // legacy .xls (OLE2 compound file)
	zipMagic = []byte{'P', 'K', 0x03, 0x04}                         // .xlsx (OOXML zip)
)

// Payload formats.
const (
	FormatText = "text"
	FormatXLS  = "xls"
	FormatXLSX = "xlsx"
)

// detectFormat inspects the leading bytes of a payload.
func detectFormat(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, oleMagic):
		return FormatXLS
	case bytes.HasPrefix(raw, zipMagic):
		return FormatXLSX
	default:
		return FormatText
	}
}

// readXLS returns the cell text of the first worksheet of a legacy workbook.
// The decoder panics on some malformed files, so panics are turned into errors.
func readXLS(raw []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt xls workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("xls workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls workbook has no readable sheet")
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			continue
		}
		var cells []string
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// sheetRow returns nil for rows the sheet holds no record for; the decoder
// dereferences a nil row in that case.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// readXLSX returns the cell text of the first worksheet of an OOXML workbook.
func readXLSX(raw []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open xlsx workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("xlsx workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %s: %w", sheet, err)
	}
	return rows, nil
}
