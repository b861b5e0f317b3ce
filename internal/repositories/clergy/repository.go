package clergy

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// ClergyRepository defines the interface for clergy record operations
type ClergyRepository interface {
	Create(ctx context.Context, req models.CreateClergyRequest) (*models.Clergy, error)
	GetByID(ctx context.Context, id int64) (*models.Clergy, error)
	FindByName(ctx context.Context, name string) (*models.Clergy, error)
	List(ctx context.Context, page, pageSize int) ([]models.Clergy, int, error)
	ListAllActive(ctx context.Context) ([]models.Clergy, error)
	ExistsActive(ctx context.Context, id int64) (bool, error)
	Update(ctx context.Context, id int64, req models.UpdateClergyRequest) (*models.Clergy, error)
	LockActive(ctx context.Context, id int64) (*models.Clergy, error)
	MarkDeleted(ctx context.Context, id int64) error
	ListLegacyLineage(ctx context.Context) ([]models.LegacyClergyLineage, error)
	DB() database.DB
}

// Repository implements ClergyRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new clergy repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "clergy"

var columns = []string{
	"id", "name", "rank", "organization", "date_of_birth", "date_of_death",
	"notes", "created_at", "updated_at", "deleted_at",
}

// DB exposes the underlying database handle so services can own transactions
func (r *Repository) DB() database.DB {
	return r.db
}

// Create creates a new clergy record
func (r *Repository) Create(ctx context.Context, req models.CreateClergyRequest) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.Create")
	defer span.End()

	dateOfBirth, err := models.ParseEventDate(req.DateOfBirth)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth")
	}
	dateOfDeath, err := models.ParseEventDate(req.DateOfDeath)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date_of_death")
	}

	now := time.Now()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("name", "rank", "organization", "date_of_birth", "date_of_death", "notes", "created_at", "updated_at")
	sb.Values(req.Name, req.Rank, req.Organization, dateOfBirth, dateOfDeath, req.Notes, now, now)
	sb.SQL("RETURNING id")

	query, args := sb.Build()

	var id int64
	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create clergy record")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to create clergy record")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"name": req.Name,
	}).Info("created clergy record")

	return r.GetByID(ctx, id)
}

// GetByID gets a non-deleted clergy record by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var c models.Clergy
	err := r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get clergy record by ID")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get clergy record")
	}

	return &c, nil
}

// FindByName returns the first non-deleted clergy record whose name contains
// the given text, case-insensitively, ordered by insertion order. Returns nil
// when nothing matches so the caller can offer "create new".
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.FindByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Like("lower(name)", "%"+strings.ToLower(name)+"%"),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("id ASC")
	sb.Limit(1)

	query, args := sb.Build()

	var c models.Clergy
	err := r.db.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to find clergy record by name")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to find clergy record")
	}

	return &c, nil
}

// List lists non-deleted clergy records with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.Clergy, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.List")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count clergy records")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count clergy records")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("id ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.Clergy
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list clergy records")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list clergy records")
	}

	return items, totalCount, nil
}

// ListAllActive returns every non-deleted clergy record in insertion order
func (r *Repository) ListAllActive(ctx context.Context) ([]models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.ListAllActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.IsNull("deleted_at"))
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.Clergy
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list clergy records")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list clergy records")
	}

	return items, nil
}

// ExistsActive reports whether the id resolves to a non-deleted clergy record.
// The check joins the ambient transaction and takes a share lock on the row,
// holding it until the owning transaction commits.
func (r *Repository) ExistsActive(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.ExistsActive")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return false, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)
	sb.SQL("FOR SHARE")

	query, args := sb.Build()

	var got int64
	err = tx.GetContext(ctx, &got, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			if err := tx.Commit(ctx); err != nil {
				return false, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
			}
			return false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to check clergy record existence")
		return false, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to check clergy record")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return true, nil
}

// Update updates a non-deleted clergy record. Returns nil when the record
// does not exist.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateClergyRequest) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.Update")
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
	if req.Rank != nil {
		sb.SetMore(sb.Assign("rank", *req.Rank))
	}
	if req.Organization != nil {
		sb.SetMore(sb.Assign("organization", *req.Organization))
	}
	if req.DateOfBirth != nil {
		dateOfBirth, err := models.ParseEventDate(req.DateOfBirth)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date_of_birth")
		}
		sb.SetMore(sb.Assign("date_of_birth", dateOfBirth))
	}
	if req.DateOfDeath != nil {
		dateOfDeath, err := models.ParseEventDate(req.DateOfDeath)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date_of_death")
		}
		sb.SetMore(sb.Assign("date_of_death", dateOfDeath))
	}
	if req.Notes != nil {
		sb.SetMore(sb.Assign("notes", *req.Notes))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update clergy record")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to update clergy record")
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated clergy record")

	return r.GetByID(ctx, id)
}

// LockActive loads a non-deleted clergy record and locks its row for the
// duration of the ambient transaction. Returns nil when the record does not
// exist or is already deleted.
func (r *Repository) LockActive(ctx context.Context, id int64) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.LockActive")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)
	sb.SQL("FOR UPDATE")

	query, args := sb.Build()

	var c models.Clergy
	err = tx.GetContext(ctx, &c, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to lock clergy record")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to lock clergy record")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return &c, nil
}

// MarkDeleted soft deletes a clergy record
func (r *Repository) MarkDeleted(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.MarkDeleted")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete clergy record")
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to delete clergy record")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "clergy record not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Info("soft deleted clergy record")

	return nil
}

// ListLegacyLineage returns the denormalized lineage columns for every clergy
// row that still carries legacy lineage data, in insertion order.
func (r *Repository) ListLegacyLineage(ctx context.Context) ([]models.LegacyClergyLineage, error) {
	ctx, span := tracing.StartSpan(ctx, "ClergyRepository.ListLegacyLineage")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "ordaining_bishop_id", "date_of_ordination", "consecrator_id", "date_of_consecration", "co_consecrators")
	sb.From(tableName)
	sb.Where(
		sb.Or(
			sb.IsNotNull("ordaining_bishop_id"),
			sb.IsNotNull("date_of_ordination"),
			sb.IsNotNull("consecrator_id"),
			sb.IsNotNull("date_of_consecration"),
			sb.IsNotNull("co_consecrators"),
		),
	)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.LegacyClergyLineage
	err = tx.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list legacy lineage rows")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list legacy lineage rows")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return items, nil
}
