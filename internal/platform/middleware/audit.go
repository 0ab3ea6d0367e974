package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry represents a single audited API request.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	RemoteIP  string    `json:"remote_ip"`
	RequestID string    `json:"request_id,omitempty"`
}

// Audit logs clinical data access for API routes. Only requests under
// /api/v1/ are recorded; health and static routes are skipped.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp: time.Now().UTC(),
				Action:    methodToAction(c.Request().Method),
				Resource:  resourceFromPath(path),
				Path:      path,
				Method:    c.Request().Method,
				Status:    c.Response().Status,
				RemoteIP:  c.RealIP(),
			}
			if uid, ok := c.Get("user_id").(string); ok {
				entry.UserID = uid
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			logger.Info().
				Str("audit_action", entry.Action).
				Str("audit_resource", entry.Resource).
				Str("user_id", entry.UserID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Int("status", entry.Status).
				Str("remote_ip", entry.RemoteIP).
				Str("request_id", entry.RequestID).
				Msg("audit")

			return err
		}
	}
}

func methodToAction(method string) string {
	switch method {
	case "GET":
		return "read"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// resourceFromPath extracts the resource segment after /api/v1/.
func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if idx := strings.IndexByte(rest, '/'); idx > 0 {
		return rest[:idx]
	}
	return rest
}
