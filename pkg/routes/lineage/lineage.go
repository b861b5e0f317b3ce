package lineage

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Ramsey-B/laurel/pkg/lineage"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// Projector receives full lineage snapshots for the graph database mirror.
type Projector interface {
	SyncLineage(ctx context.Context, g *models.LineageGraph) error
}

// Handler handles lineage graph API endpoints
type Handler struct {
	service   *lineage.Service
	projector Projector
}

// NewHandler creates a new lineage handler. The projector may be nil when the
// graph database mirror is disabled.
func NewHandler(service *lineage.Service, projector Projector) *Handler {
	return &Handler{service: service, projector: projector}
}

// Register registers lineage routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/graph", h.GetGraph)
	g.POST("/sync", h.Sync)
}

func (h *Handler) requireService(c echo.Context) (*lineage.Service, error) {
	if h != nil && h.service != nil {
		return h.service, nil
	}

	ctx := c.Request().Context()
	_, svc, err := ectoinject.GetContext[*lineage.Service](ctx)
	if err != nil || svc == nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "lineage service unavailable")
	}
	return svc, nil
}

// GetGraph returns the full lineage graph as nodes and edges
func (h *Handler) GetGraph(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "lineage_handler.GetGraph")
	defer span.End()

	svc, err := h.requireService(c)
	if err != nil {
		return err
	}

	graph, err := svc.BuildGraph(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, graph)
}

// Sync rebuilds the graph database mirror from a fresh lineage snapshot
func (h *Handler) Sync(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "lineage_handler.Sync")
	defer span.End()

	if h == nil || h.projector == nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "lineage projection disabled")
	}

	svc, err := h.requireService(c)
	if err != nil {
		return err
	}

	graph, err := svc.BuildGraph(ctx)
	if err != nil {
		return err
	}
	if err := h.projector.SyncLineage(ctx, graph); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int{
		"nodes": len(graph.Nodes),
		"edges": len(graph.Edges),
	})
}
