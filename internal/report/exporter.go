// Package report renders audit records into an XLSX review sheet for
// paralegals working the needs-review queue.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
)

const sheetName = "Classifications"

var headers = []string{
	"ID", "Filename", "Category", "Document Type", "Confidence",
	"Tier", "Needs Review", "Entailment", "Validator Degraded", "Classified At",
}

// WriteXLSX writes records to path, newest first as given.
func WriteXLSX(records []domain.AuditRecord, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, record := range records {
		row := i + 2
		values := []any{
			record.ID,
			record.Filename,
			record.Category,
			record.DocumentType,
			record.ConfidenceScore,
			string(record.TierUsed),
			record.NeedsReview,
			record.Entailment,
			record.ValidatorDegraded,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
