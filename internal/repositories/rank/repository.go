package rank

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

// RankRepository defines the interface for rank operations
type RankRepository interface {
	Create(ctx context.Context, req models.CreateRankRequest) (*models.Rank, error)
	GetByID(ctx context.Context, id int64) (*models.Rank, error)
	GetByName(ctx context.Context, name string) (*models.Rank, error)
	List(ctx context.Context, page, pageSize int) ([]models.Rank, int, error)
	Update(ctx context.Context, id int64, req models.UpdateRankRequest) (*models.Rank, error)
	Delete(ctx context.Context, id int64) error
}

// Repository implements RankRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new rank repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "ranks"

var columns = []string{"id", "name", "description", "is_episcopal", "created_at", "updated_at", "deleted_at"}

// Create creates a new rank
func (r *Repository) Create(ctx context.Context, req models.CreateRankRequest) (*models.Rank, error) {
	ctx, span := tracing.StartSpan(ctx, "RankRepository.Create")
	defer span.End()

	now := time.Now()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("name", "description", "is_episcopal", "created_at", "updated_at")
	sb.Values(req.Name, req.Description, req.IsEpiscopal, now, now)
	sb.SQL("RETURNING id")

	query, args := sb.Build()

	var id int64
	err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create rank")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to create rank")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"name": req.Name,
	}).Info("created rank")

	return r.GetByID(ctx, id)
}

// GetByID gets a rank by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Rank, error) {
	ctx, span := tracing.StartSpan(ctx, "RankRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rank models.Rank
	err := r.db.GetContext(ctx, &rank, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get rank by ID")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get rank")
	}

	return &rank, nil
}

// GetByName gets a rank by name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Rank, error) {
	ctx, span := tracing.StartSpan(ctx, "RankRepository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("name", name),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rank models.Rank
	err := r.db.GetContext(ctx, &rank, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get rank by name")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get rank")
	}

	return &rank, nil
}

// List lists ranks with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.Rank, int, error) {
	ctx, span := tracing.StartSpan(ctx, "RankRepository.List")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count ranks")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count ranks")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("name ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.Rank
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list ranks")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list ranks")
	}

	return items, totalCount, nil
}

// Update updates a rank. Returns nil when the rank does not exist.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateRankRequest) (*models.Rank, error) {
	ctx, span := tracing.StartSpan(ctx, "RankRepository.Update")
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
	if req.Description != nil {
		sb.SetMore(sb.Assign("description", *req.Description))
	}
	if req.IsEpiscopal != nil {
		sb.SetMore(sb.Assign("is_episcopal", *req.IsEpiscopal))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update rank")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to update rank")
	}

	return r.GetByID(ctx, id)
}

// Delete soft deletes a rank
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "RankRepository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete rank")
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to delete rank")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "rank not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Info("deleted rank")

	return nil
}
