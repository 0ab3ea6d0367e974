// Package reporting generates XLSX exports of the completed-treatment
// ledger and the treatment catalog price list.
package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// LedgerRow is one completed treatment in the billing ledger export.
type LedgerRow struct {
	Date         time.Time
	PatientName  string
	Description  string
	Quantity     int
	UnitPrice    float64
	Total        float64
	Currency     string
	PaymentState string
}

// CatalogRow is one treatment in the price list export.
type CatalogRow struct {
	Code      string
	Name      string
	Specialty string
	Price     float64
	Currency  string
	UsedCount int
}

var ledgerHeader = []string{
	"Fecha", "Paciente", "Tratamiento", "Cantidad",
	"Precio Unitario", "Total", "Moneda", "Estado de Pago",
}

var catalogHeader = []string{
	"Código", "Nombre", "Especialidad", "Precio", "Moneda", "Usos",
}

// GenerateLedger builds the completed-treatments ledger workbook.
func GenerateLedger(rows []LedgerRow) ([]byte, error) {
	return generate("Tratamientos Realizados", ledgerHeader, len(rows), func(f *excelize.File, sheet string, i int) error {
		r := rows[i]
		values := []interface{}{
			r.Date.Format("2006-01-02"), r.PatientName, r.Description, r.Quantity,
			r.UnitPrice, r.Total, r.Currency, r.PaymentState,
		}
		return setRow(f, sheet, i+2, values)
	})
}

// GenerateCatalog builds the treatment price list workbook.
func GenerateCatalog(rows []CatalogRow) ([]byte, error) {
	return generate("Catálogo de Tratamientos", catalogHeader, len(rows), func(f *excelize.File, sheet string, i int) error {
		r := rows[i]
		values := []interface{}{r.Code, r.Name, r.Specialty, r.Price, r.Currency, r.UsedCount}
		return setRow(f, sheet, i+2, values)
	})
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("converting coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("setting cell %s: %w", cell, err)
		}
	}
	return nil
}

func generate(sheetName string, headers []string, rowCount int, fill func(f *excelize.File, sheet string, i int) error) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("converting coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("setting header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("styling header cell %s: %w", cell, err)
		}
	}

	for i := 0; i < rowCount; i++ {
		if err := fill(f, sheetName, i); err != nil {
			f.Close()
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
