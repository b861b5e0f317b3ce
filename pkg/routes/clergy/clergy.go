package clergy

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/records"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Handler handles clergy record API endpoints
type Handler struct {
	service *records.Service
}

// NewHandler creates a new clergy handler
func NewHandler(service *records.Service) *Handler {
	return &Handler{service: service}
}

// Register registers clergy routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/resolve", h.ResolveOfficiant)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/ordinations", h.ListOrdinations)
	g.GET("/:id/consecrations", h.ListConsecrations)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// List returns clergy records with pagination
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	if name := c.QueryParam("name"); name != "" {
		match, err := h.service.FindClergyByName(ctx, name)
		if err != nil {
			return err
		}
		items := []models.Clergy{}
		if match != nil {
			items = append(items, *match)
		}
		return c.JSON(http.StatusOK, models.ClergyListResponse{
			Items:      items,
			TotalCount: len(items),
			Page:       1,
			PageSize:   pageSize,
		})
	}

	result, err := h.service.ListClergy(ctx, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Create creates a new clergy record
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.Create")
	defer span.End()

	var req models.CreateClergyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.CreateClergy(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ResolveOfficiant resolves free-text officiant input to a clergy record
func (h *Handler) ResolveOfficiant(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.ResolveOfficiant")
	defer span.End()

	var req models.ResolveOfficiantRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.ResolveOrCreateOfficiant(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get returns a single clergy record by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.Get")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	result, err := h.service.GetClergy(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Update updates a clergy record
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.Update")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req models.UpdateClergyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.UpdateClergy(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Delete soft deletes a clergy record and detaches its lineage references
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.Delete")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	result, err := h.service.DeleteClergy(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListOrdinations returns a clergy member's ordination events
func (h *Handler) ListOrdinations(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.ListOrdinations")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	items, err := h.service.ListOrdinationsByClergy(ctx, id)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.OrdinationEvent{}
	}
	return c.JSON(http.StatusOK, items)
}

// ListConsecrations returns a clergy member's consecration events
func (h *Handler) ListConsecrations(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "clergy_handler.ListConsecrations")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	items, err := h.service.ListConsecrationsByClergy(ctx, id)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.ConsecrationEvent{}
	}
	return c.JSON(http.StatusOK, items)
}
