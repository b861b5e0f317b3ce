package legacy

import (
	"net/http"

	"github.com/Ramsey-B/laurel/pkg/legacy"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// Handler handles legacy migration API endpoints
type Handler struct {
	migrator *legacy.Migrator
}

// NewHandler creates a new legacy migration handler
func NewHandler(migrator *legacy.Migrator) *Handler {
	return &Handler{migrator: migrator}
}

// Register registers legacy migration routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/migrate", h.Migrate)
}

// Migrate backfills event records from the flat legacy lineage columns.
// Safe to call repeatedly; it is a no-op once events exist.
func (h *Handler) Migrate(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "legacy_handler.Migrate")
	defer span.End()

	result, err := h.migrator.Run(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
