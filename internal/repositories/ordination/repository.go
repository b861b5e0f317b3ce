package ordination

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

// OrdinationRepository defines the interface for ordination event operations
type OrdinationRepository interface {
	Create(ctx context.Context, req models.CreateOrdinationRequest) (*models.OrdinationEvent, error)
	GetByID(ctx context.Context, id int64) (*models.OrdinationEvent, error)
	Update(ctx context.Context, id int64, req models.UpdateOrdinationRequest) (*models.OrdinationEvent, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, pageSize int) ([]models.OrdinationEvent, int, error)
	ListByClergy(ctx context.Context, clergyID int64) ([]models.OrdinationEvent, error)
	ListAll(ctx context.Context) ([]models.OrdinationEvent, error)
	ClearOfficiant(ctx context.Context, officiantID int64) (int64, error)
	CountAll(ctx context.Context) (int, error)
}

// Repository implements OrdinationRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new ordination event repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "ordination_events"

var columns = []string{
	"id", "clergy_id", "date", "year", "officiant_id",
	"is_doubtfully_valid", "is_doubtful", "is_invalid",
	"notes", "created_at", "updated_at",
}

// Create creates a new ordination event. Joins the ambient transaction when
// one is open.
func (r *Repository) Create(ctx context.Context, req models.CreateOrdinationRequest) (*models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.Create")
	defer span.End()

	date, err := models.ParseEventDate(req.Date)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("clergy_id", "date", "year", "officiant_id", "is_doubtfully_valid", "is_doubtful", "is_invalid", "notes", "created_at", "updated_at")
	sb.Values(req.ClergyID, date, req.Year, req.OfficiantID, req.IsDoubtfullyValid, req.IsDoubtful, req.IsInvalid, req.Notes, now, now)
	sb.SQL("RETURNING id")

	query, args := sb.Build()

	var id int64
	err = tx.QueryRowxContext(ctx, query, args...).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create ordination event")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to create ordination event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        id,
		"clergy_id": req.ClergyID,
	}).Info("created ordination event")

	return r.GetByID(ctx, id)
}

// GetByID gets an ordination event by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.GetByID")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var event models.OrdinationEvent
	err = tx.GetContext(ctx, &event, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get ordination event")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get ordination event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return &event, nil
}

// Update updates an ordination event. Returns nil when the event does not exist.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateOrdinationRequest) (*models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.Update")
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

	if req.Date != nil {
		date, err := models.ParseEventDate(req.Date)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		sb.SetMore(sb.Assign("date", date))
	}
	if req.Year != nil {
		sb.SetMore(sb.Assign("year", *req.Year))
	}
	if req.ClearOfficiant {
		sb.SetMore("officiant_id = NULL")
	} else if req.OfficiantID != nil {
		sb.SetMore(sb.Assign("officiant_id", *req.OfficiantID))
	}
	if req.IsDoubtfullyValid != nil {
		sb.SetMore(sb.Assign("is_doubtfully_valid", *req.IsDoubtfullyValid))
	}
	if req.IsDoubtful != nil {
		sb.SetMore(sb.Assign("is_doubtful", *req.IsDoubtful))
	}
	if req.IsInvalid != nil {
		sb.SetMore(sb.Assign("is_invalid", *req.IsInvalid))
	}
	if req.Notes != nil {
		sb.SetMore(sb.Assign("notes", *req.Notes))
	}

	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update ordination event")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to update ordination event")
	}

	return r.GetByID(ctx, id)
}

// Delete hard deletes an ordination event
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete ordination event")
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to delete ordination event")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "ordination event not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Info("deleted ordination event")

	return nil
}

// List lists ordination events with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.OrdinationEvent, int, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.List")
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
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count ordination events")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count ordination events")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("id ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.OrdinationEvent
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list ordination events")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list ordination events")
	}

	return items, totalCount, nil
}

// ListByClergy lists a clergy member's ordination events in insertion order
func (r *Repository) ListByClergy(ctx context.Context, clergyID int64) ([]models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.ListByClergy")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("clergy_id", clergyID))
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.OrdinationEvent
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list ordination events by clergy")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list ordination events")
	}

	return items, nil
}

// ListAll returns every ordination event in insertion order
func (r *Repository) ListAll(ctx context.Context) ([]models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.OrdinationEvent
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list ordination events")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list ordination events")
	}

	return items, nil
}

// ClearOfficiant nulls the officiant reference on every ordination event that
// names the given clergy id. Joins the ambient transaction when one is open.
func (r *Repository) ClearOfficiant(ctx context.Context, officiantID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.ClearOfficiant")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set("officiant_id = NULL")
	sb.SetMore(sb.Assign("updated_at", time.Now()))
	sb.Where(sb.Equal("officiant_id", officiantID))

	query, args := sb.Build()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to clear ordination officiant references")
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to clear officiant references")
	}

	rowsAffected, _ := result.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return rowsAffected, nil
}

// CountAll counts every ordination event. Joins the ambient transaction when
// one is open.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "OrdinationRepository.CountAll")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(tableName)

	query, args := sb.Build()

	var count int
	err = tx.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count ordination events")
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count ordination events")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return count, nil
}
