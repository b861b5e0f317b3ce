package organization

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// OrganizationRepository defines the interface for organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
	GetByID(ctx context.Context, id int64) (*models.Organization, error)
	GetByName(ctx context.Context, name string) (*models.Organization, error)
	List(ctx context.Context, page, pageSize int) ([]models.Organization, int, error)
	Update(ctx context.Context, id int64, req models.UpdateOrganizationRequest) (*models.Organization, error)
	Delete(ctx context.Context, id int64) error
}

// Repository implements OrganizationRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new organization repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "organizations"

var columns = []string{"id", "name", "abbreviation", "description", "created_at", "updated_at", "deleted_at"}

// Create creates a new organization
func (r *Repository) Create(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error) {
	ctx, span := tracing.StartSpan(ctx, "OrganizationRepository.Create")
	defer span.End()

	now := time.Now()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("name", "abbreviation", "description", "created_at", "updated_at")
	sb.Values(req.Name, req.Abbreviation, req.Description, now, now)
	sb.SQL("RETURNING id")

	query, args := sb.Build()

	var id int64
	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create organization")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to create organization")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"name": req.Name,
	}).Info("created organization")

	return r.GetByID(ctx, id)
}

// GetByID gets an organization by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Organization, error) {
	ctx, span := tracing.StartSpan(ctx, "OrganizationRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var org models.Organization
	err := r.db.GetContext(ctx, &org, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get organization by ID")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get organization")
	}

	return &org, nil
}

// GetByName gets an organization by name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	ctx, span := tracing.StartSpan(ctx, "OrganizationRepository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("name", name),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var org models.Organization
	err := r.db.GetContext(ctx, &org, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get organization by name")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get organization")
	}

	return &org, nil
}

// List lists organizations with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.Organization, int, error) {
	ctx, span := tracing.StartSpan(ctx, "OrganizationRepository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	countSb.Where(countSb.IsNull("deleted_at"))
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count organizations")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count organizations")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("name ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.Organization
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list organizations")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list organizations")
	}

	return items, totalCount, nil
}

// Update updates an organization. Returns nil when it does not exist.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateOrganizationRequest) (*models.Organization, error) {
	ctx, span := tracing.StartSpan(ctx, "OrganizationRepository.Update")
	defer span.End()

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now()))

	if req.Name != nil {
		sb.SetMore(sb.Assign("name", *req.Name))
	}
	if req.Abbreviation != nil {
		sb.SetMore(sb.Assign("abbreviation", *req.Abbreviation))
	}
	if req.Description != nil {
		sb.SetMore(sb.Assign("description", *req.Description))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update organization")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to update organization")
	}

	return r.GetByID(ctx, id)
}

// Delete soft deletes an organization
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "OrganizationRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete organization")
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to delete organization")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "organization not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Info("deleted organization")

	return nil
}
