package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// LedgerSource supplies completed-treatment rows for a period.
type LedgerSource interface {
	LedgerRows(ctx context.Context, from, to time.Time) ([]LedgerRow, error)
}

// CatalogSource supplies the current treatment catalog.
type CatalogSource interface {
	CatalogRows(ctx context.Context) ([]CatalogRow, error)
}

// Handler streams XLSX reports.
type Handler struct {
	ledger  LedgerSource
	catalog CatalogSource
}

// NewHandler creates a reporting Handler.
func NewHandler(ledger LedgerSource, catalog CatalogSource) *Handler {
	return &Handler{ledger: ledger, catalog: catalog}
}

// RegisterRoutes registers report routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/reports/treatments.xlsx", h.HandleLedger)
	g.GET("/reports/catalog.xlsx", h.HandleCatalog)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleLedger handles GET /reports/treatments.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD.
// The period defaults to the last 30 days.
func (h *Handler) HandleLedger(c echo.Context) error {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid from date"})
		}
		from = parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid to date"})
		}
		// End of day inclusive.
		to = parsed.AddDate(0, 0, 1)
	}

	rows, err := h.ledger.LedgerRows(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	data, err := GenerateLedger(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	filename := fmt.Sprintf("tratamientos_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

// HandleCatalog handles GET /reports/catalog.xlsx.
func (h *Handler) HandleCatalog(c echo.Context) error {
	rows, err := h.catalog.CatalogRows(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	data, err := GenerateCatalog(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	c.Response().Header().Set("Content-Disposition", `attachment; filename="catalogo.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
