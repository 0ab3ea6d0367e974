package notification

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
)

// Handler exposes notification operations over HTTP via Echo.
type Handler struct {
	service *Service
}

// NewHandler creates a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers notification routes on the given Echo group.
// The clinic inbox holds events with no acting user (expired quotes and the
// like) and is worked by the front desk.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications", h.HandleList)
	g.POST("/notifications/:id/read", h.HandleMarkRead)

	shared := g.Group("", auth.RequireRole("admin", "staff"))
	shared.GET("/notifications/clinic", h.HandleListClinic)
	shared.POST("/notifications/clinic/:id/read", h.HandleMarkClinicRead)
}

// HandleList handles GET /notifications for the authenticated user.
func (h *Handler) HandleList(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	if recipient == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	list, err := h.service.List(c.Request().Context(), recipient, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if list == nil {
		list = []*Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleListClinic handles GET /notifications/clinic, the shared inbox.
func (h *Handler) HandleListClinic(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	list, err := h.service.List(c.Request().Context(), RecipientClinic, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if list == nil {
		list = []*Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleMarkClinicRead handles POST /notifications/clinic/:id/read.
func (h *Handler) HandleMarkClinicRead(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.MarkRead(c.Request().Context(), RecipientClinic, id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleMarkRead handles POST /notifications/:id/read.
func (h *Handler) HandleMarkRead(c echo.Context) error {
	recipient := auth.UserIDFromContext(c.Request().Context())
	if recipient == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}

	id := c.Param("id")
	if err := h.service.MarkRead(c.Request().Context(), recipient, id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
