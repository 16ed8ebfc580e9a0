package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SheetSource returns the rows of the first sheet of a workbook, header included.
type SheetSource interface {
	Rows(ctx context.Context, path string) ([][]string, error)
}

// ExcelSource reads workbooks from the filesystem with excelize.
type ExcelSource struct {
	Logger *zap.Logger
}

// NewExcelSource creates a new ExcelSource
func NewExcelSource(logger *zap.Logger) *ExcelSource {
	return &ExcelSource{Logger: logger}
}

// Rows opens path and returns the raw cell values of its first sheet.
func (s *ExcelSource) Rows(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer file.Close()

	rows, err := s.readRows(file)
	if err != nil {
		return nil, fmt.Errorf("workbook %s: %w", path, err)
	}
	s.Logger.Debug("Read workbook", zap.String("path", path), zap.Int("rows", len(rows)))
	return rows, nil
}

func (s *ExcelSource) readRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.Logger.Warn("Error closing excel file", zap.Error(err))
		}
	}()

	// Data is always in the first sheet
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}
	return rows, nil
}
