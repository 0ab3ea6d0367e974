package calendar

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/odonto/clinic/internal/platform/auth"
)

// Handler exposes the calendar link/unlink endpoints.
type Handler struct {
	client *Client
	tokens TokenStore
}

// NewHandler creates a Handler.
func NewHandler(client *Client, tokens TokenStore) *Handler {
	return &Handler{client: client, tokens: tokens}
}

// RegisterRoutes registers calendar routes on the given Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/calendar/link", h.HandleLink)
	g.DELETE("/calendar/link", h.HandleUnlink)
	g.GET("/calendar/status", h.HandleStatus)
}

type linkRequest struct {
	Code string `json:"code"`
}

// HandleLink handles POST /calendar/link: the OAuth callback posts the
// authorization code here.
func (h *Handler) HandleLink(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	if !h.client.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "calendar integration not configured"})
	}

	var req linkRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "authorization code required"})
	}

	token, err := h.client.ExchangeCode(c.Request().Context(), userID, req.Code)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, token)
}

// HandleUnlink handles DELETE /calendar/link.
func (h *Handler) HandleUnlink(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}
	if err := h.tokens.Delete(c.Request().Context(), userID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleStatus handles GET /calendar/status.
func (h *Handler) HandleStatus(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	}

	token, err := h.tokens.Get(c.Request().Context(), userID)
	if err == ErrTokenNotFound {
		return c.JSON(http.StatusOK, map[string]interface{}{"linked": false})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"linked":     true,
		"expires_at": token.ExpiresAt,
	})
}
