package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet    = "Cotizaciones"
	quotationSheet = "Cotización"
	dateLayout     = "2006-01-02 15:04"
)

var ledgerHeaders = []string{
	"ID", "Chat ID", "Nombre", "Teléfono", "Correo",
	"Línea de materiales", "Área (m²)", "Etapa 1", "Etapa 2",
	"Subtotal", "IVA", "Total", "Costo construcción", "Estado", "Fecha",
}

// ExportQuotationsToExcel renders the whole ledger as an xlsx workbook.
func (s *PostgresStorage) ExportQuotationsToExcel(ctx context.Context) ([]byte, error) {
	const operation = "storage.ExportQuotationsToExcel"

	quotations, err := s.ListQuotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	data, err := LedgerWorkbook(quotations)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return data, nil
}

// ExportQuotationToExcel renders a single ledger entry.
func (s *PostgresStorage) ExportQuotationToExcel(ctx context.Context, id string) ([]byte, error) {
	q, err := s.GetQuotationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := QuotationWorkbook(*q)
	if err != nil {
		return nil, fmt.Errorf("storage.ExportQuotationToExcel: %w", err)
	}
	return data, nil
}

func LedgerWorkbook(quotations []Quotation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	for col, header := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ledgerSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(ledgerHeaders), 1)
	_ = f.SetCellStyle(ledgerSheet, "A1", lastHeader, headerStyle)

	for row, q := range quotations {
		data := []interface{}{
			q.ID,
			q.ChatID,
			q.ClientName,
			q.ClientPhone,
			q.ClientEmail,
			q.MaterialGrade,
			q.AreaTotal,
			q.Stage1Subtotal,
			q.Stage2Subtotal,
			q.Subtotal,
			q.Tax,
			q.Total,
			q.ConstructionCost,
			q.Status,
			q.CreatedAt.Format(dateLayout),
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(ledgerSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	_ = f.SetColWidth(ledgerSheet, "A", "A", 38)
	_ = f.SetColWidth(ledgerSheet, "C", "F", 22)

	return writeWorkbook(f)
}

func QuotationWorkbook(q Quotation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", quotationSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := []struct {
		label string
		value interface{}
	}{
		{"ID", q.ID},
		{"Chat ID", q.ChatID},
		{"Fecha", q.CreatedAt.Format(dateLayout)},
		{"Nombre", q.ClientName},
		{"Teléfono", q.ClientPhone},
		{"Correo", q.ClientEmail},
		{"Área total (m²)", q.AreaTotal},
		{"Línea de materiales", q.MaterialGrade},
		{"Subtotal etapa 1", q.Stage1Subtotal},
		{"Subtotal etapa 2", q.Stage2Subtotal},
		{"Subtotal sin IVA", q.Subtotal},
		{"IVA", q.Tax},
		{"Total diseño", q.Total},
		{"Costo construcción", q.ConstructionCost},
		{"Estado", q.Status},
		{"Respuestas", string(q.Responses)},
	}
	for i, r := range rows {
		if err := f.SetCellValue(quotationSheet, fmt.Sprintf("A%d", i+1), r.label); err != nil {
			return nil, fmt.Errorf("failed to write label: %w", err)
		}
		if err := f.SetCellValue(quotationSheet, fmt.Sprintf("B%d", i+1), r.value); err != nil {
			return nil, fmt.Errorf("failed to write value: %w", err)
		}
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(quotationSheet, "A1", fmt.Sprintf("A%d", len(rows)), style)
	_ = f.SetColWidth(quotationSheet, "A", "A", 24)
	_ = f.SetColWidth(quotationSheet, "B", "B", 48)

	return writeWorkbook(f)
}

func writeWorkbook(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
