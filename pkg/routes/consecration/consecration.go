package consecration

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

// Handler handles consecration event API endpoints
type Handler struct {
	service *records.Service
}

// NewHandler creates a new consecration handler
func NewHandler(service *records.Service) *Handler {
	return &Handler{service: service}
}

// Register registers consecration routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/co-consecrators", h.SetCoConsecrators)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// List returns consecration events with pagination
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "consecration_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	result, err := h.service.ListConsecrations(ctx, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Create creates a new consecration event with its co-consecrator set
func (h *Handler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "consecration_handler.Create")
	defer span.End()

	var req models.CreateConsecrationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.CreateConsecration(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// Get returns a single consecration event by id
func (h *Handler) Get(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "consecration_handler.Get")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	result, err := h.service.GetConsecration(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Update updates a consecration event
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "consecration_handler.Update")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req models.UpdateConsecrationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.UpdateConsecration(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Delete removes a consecration event and its co-consecrator rows
func (h *Handler) Delete(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "consecration_handler.Delete")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteConsecration(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetCoConsecrators replaces the full co-consecrator set for an event
func (h *Handler) SetCoConsecrators(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "consecration_handler.SetCoConsecrators")
	defer span.End()

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req models.SetCoConsecratorsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.SetCoConsecrators(ctx, id, req.ClergyIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
