package reporting

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

func TestGenerateLedger(t *testing.T) {
	rows := []LedgerRow{
		{
			Date:         time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			PatientName:  "María López",
			Description:  "Limpieza dental",
			Quantity:     1,
			UnitPrice:    800,
			Total:        800,
			Currency:     "HNL",
			PaymentState: "pagado",
		},
		{
			Date:         time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
			PatientName:  "Carlos Mejía",
			Description:  "Corona de porcelana",
			Quantity:     2,
			UnitPrice:    150,
			Total:        300,
			Currency:     "USD",
			PaymentState: "firmado",
		},
	}

	data, err := GenerateLedger(rows)
	if err != nil {
		t.Fatalf("generate ledger: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheet := "Tratamientos Realizados"
	got, err := f.GetCellValue(sheet, "B2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if got != "María López" {
		t.Errorf("B2 = %q, want María López", got)
	}

	header, _ := f.GetCellValue(sheet, "A1")
	if header != "Fecha" {
		t.Errorf("A1 = %q, want Fecha", header)
	}

	currency, _ := f.GetCellValue(sheet, "G3")
	if currency != "USD" {
		t.Errorf("G3 = %q, want USD", currency)
	}
}

func TestGenerateCatalogEmpty(t *testing.T) {
	data, err := GenerateCatalog(nil)
	if err != nil {
		t.Fatalf("generate catalog: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue("Catálogo de Tratamientos", "A1")
	if header != "Código" {
		t.Errorf("A1 = %q, want Código", header)
	}
}

type stubLedger struct {
	rows []LedgerRow
	from time.Time
	to   time.Time
}

func (s *stubLedger) LedgerRows(_ context.Context, from, to time.Time) ([]LedgerRow, error) {
	s.from, s.to = from, to
	return s.rows, nil
}

type stubCatalog struct{ rows []CatalogRow }

func (s *stubCatalog) CatalogRows(_ context.Context) ([]CatalogRow, error) {
	return s.rows, nil
}

func TestHandleLedgerPeriod(t *testing.T) {
	ledger := &stubLedger{}
	h := NewHandler(ledger, &stubCatalog{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/treatments.xlsx?from=2026-01-01&to=2026-01-31", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleLedger(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("content type = %q", got)
	}

	wantFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !ledger.from.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", ledger.from, wantFrom)
	}
	// "to" is end-of-day inclusive.
	wantTo := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !ledger.to.Equal(wantTo) {
		t.Errorf("to = %v, want %v", ledger.to, wantTo)
	}
}

func TestHandleLedgerBadDate(t *testing.T) {
	h := NewHandler(&stubLedger{}, &stubCatalog{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/treatments.xlsx?from=notadate", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleLedger(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCatalog(t *testing.T) {
	h := NewHandler(&stubLedger{}, &stubCatalog{rows: []CatalogRow{
		{Code: "ORT-001", Name: "Brackets metálicos", Specialty: "ortodoncia", Price: 25000, Currency: "HNL", UsedCount: 4},
	}})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/reports/catalog.xlsx", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleCatalog(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()
	code, _ := f.GetCellValue("Catálogo de Tratamientos", "A2")
	if code != "ORT-001" {
		t.Errorf("A2 = %q, want ORT-001", code)
	}
}
