package consecration

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

// ConsecrationRepository defines the interface for consecration event operations
type ConsecrationRepository interface {
	Create(ctx context.Context, req models.CreateConsecrationRequest) (*models.ConsecrationEvent, error)
	GetByID(ctx context.Context, id int64) (*models.ConsecrationEvent, error)
	Update(ctx context.Context, id int64, req models.UpdateConsecrationRequest) (*models.ConsecrationEvent, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, pageSize int) ([]models.ConsecrationEvent, int, error)
	ListByClergy(ctx context.Context, clergyID int64) ([]models.ConsecrationEvent, error)
	ListAll(ctx context.Context) ([]models.ConsecrationEvent, error)
	GetCoConsecrators(ctx context.Context, eventID int64) ([]int64, error)
	ReplaceCoConsecrators(ctx context.Context, eventID int64, clergyIDs []int64) (added int, removed int, err error)
	ListAllCoConsecrators(ctx context.Context) ([]models.CoConsecrator, error)
	ClearConsecrator(ctx context.Context, consecratorID int64) (int64, error)
	DeleteCoConsecratorsByClergy(ctx context.Context, clergyID int64) (int64, error)
	CountAll(ctx context.Context) (int, error)
}

// Repository implements ConsecrationRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new consecration event repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "consecration_events"
const coConsecratorTable = "co_consecrators"

var columns = []string{
	"id", "clergy_id", "date", "year", "consecrator_id",
	"is_doubtfully_valid", "is_doubtful", "is_invalid",
	"notes", "created_at", "updated_at",
}

// Create creates a new consecration event. Co-consecrators are set separately
// so their guards live in one place. Joins the ambient transaction when one
// is open.
func (r *Repository) Create(ctx context.Context, req models.CreateConsecrationRequest) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.Create")
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
	sb.Cols("clergy_id", "date", "year", "consecrator_id", "is_doubtfully_valid", "is_doubtful", "is_invalid", "notes", "created_at", "updated_at")
	sb.Values(req.ClergyID, date, req.Year, req.ConsecratorID, req.IsDoubtfullyValid, req.IsDoubtful, req.IsInvalid, req.Notes, now, now)
	sb.SQL("RETURNING id")

	query, args := sb.Build()

	var id int64
	err = tx.QueryRowxContext(ctx, query, args...).Scan(&id)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create consecration event")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to create consecration event")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        id,
		"clergy_id": req.ClergyID,
	}).Info("created consecration event")

	return r.GetByID(ctx, id)
}

// GetByID gets a consecration event by ID, including its co-consecrator ids
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.GetByID")
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

	var event models.ConsecrationEvent
	err = tx.GetContext(ctx, &event, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get consecration event")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get consecration event")
	}

	event.CoConsecratorIDs, err = r.getCoConsecratorIDs(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return &event, nil
}

func (r *Repository) getCoConsecratorIDs(ctx context.Context, tx database.Tx, eventID int64) ([]int64, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("co_consecrator_id")
	sb.From(coConsecratorTable)
	sb.Where(sb.Equal("consecration_event_id", eventID))
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var ids []int64
	err := tx.SelectContext(ctx, &ids, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get co-consecrators")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to get co-consecrators")
	}

	return ids, nil
}

// Update updates a consecration event. Returns nil when the event does not
// exist. The co-consecrator set is replaced through ReplaceCoConsecrators.
func (r *Repository) Update(ctx context.Context, id int64, req models.UpdateConsecrationRequest) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.Update")
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
	if req.ClearConsecrator {
		sb.SetMore("consecrator_id = NULL")
	} else if req.ConsecratorID != nil {
		sb.SetMore(sb.Assign("consecrator_id", *req.ConsecratorID))
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to update consecration event")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to update consecration event")
	}

	return r.GetByID(ctx, id)
}

// Delete hard deletes a consecration event. Its co-consecrator rows cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete consecration event")
		return httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to delete consecration event")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "consecration event not found")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Info("deleted consecration event")

	return nil
}

// List lists consecration events with pagination
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.ConsecrationEvent, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.List")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count consecration events")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count consecration events")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("id ASC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.ConsecrationEvent
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list consecration events")
		return nil, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list consecration events")
	}

	return items, totalCount, nil
}

// ListByClergy lists a clergy member's consecration events in insertion order
func (r *Repository) ListByClergy(ctx context.Context, clergyID int64) ([]models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.ListByClergy")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("clergy_id", clergyID))
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.ConsecrationEvent
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list consecration events by clergy")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list consecration events")
	}

	return items, nil
}

// ListAll returns every consecration event in insertion order
func (r *Repository) ListAll(ctx context.Context) ([]models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.ConsecrationEvent
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list consecration events")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list consecration events")
	}

	return items, nil
}

// GetCoConsecrators returns a consecration event's co-consecrator clergy ids
// in insertion order
func (r *Repository) GetCoConsecrators(ctx context.Context, eventID int64) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.GetCoConsecrators")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	ids, err := r.getCoConsecratorIDs(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return ids, nil
}

// ReplaceCoConsecrators replaces the full co-officiant set atomically via
// symmetric difference against the current members. Joins the ambient
// transaction when one is open.
func (r *Repository) ReplaceCoConsecrators(ctx context.Context, eventID int64, clergyIDs []int64) (int, int, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.ReplaceCoConsecrators")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	current, err := r.getCoConsecratorIDs(ctx, tx, eventID)
	if err != nil {
		return 0, 0, err
	}

	currentSet := make(map[int64]bool, len(current))
	for _, id := range current {
		currentSet[id] = true
	}
	wantedSet := make(map[int64]bool, len(clergyIDs))
	for _, id := range clergyIDs {
		wantedSet[id] = true
	}

	var toAdd, toRemove []int64
	for _, id := range clergyIDs {
		if !currentSet[id] {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if !wantedSet[id] {
			toRemove = append(toRemove, id)
		}
	}

	if len(toRemove) > 0 {
		removeArgs := make([]any, len(toRemove))
		for i, id := range toRemove {
			removeArgs[i] = id
		}

		sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
		sb.DeleteFrom(coConsecratorTable)
		sb.Where(
			sb.Equal("consecration_event_id", eventID),
			sb.In("co_consecrator_id", removeArgs...),
		)

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to remove co-consecrators")
			return 0, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to remove co-consecrators")
		}
	}

	if len(toAdd) > 0 {
		now := time.Now()
		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto(coConsecratorTable)
		sb.Cols("consecration_event_id", "co_consecrator_id", "created_at")
		for _, id := range toAdd {
			sb.Values(eventID, id, now)
		}

		query, args := sb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to add co-consecrators")
			return 0, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to add co-consecrators")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"consecration_event_id": eventID,
		"added":                 len(toAdd),
		"removed":               len(toRemove),
	}).Info("replaced co-consecrators")

	return len(toAdd), len(toRemove), nil
}

// ListAllCoConsecrators returns every co-consecrator row in insertion order
func (r *Repository) ListAllCoConsecrators(ctx context.Context) ([]models.CoConsecrator, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.ListAllCoConsecrators")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "consecration_event_id", "co_consecrator_id", "created_at")
	sb.From(coConsecratorTable)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var items []models.CoConsecrator
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list co-consecrators")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to list co-consecrators")
	}

	return items, nil
}

// ClearConsecrator nulls the principal consecrator reference on every
// consecration event that names the given clergy id. Joins the ambient
// transaction when one is open.
func (r *Repository) ClearConsecrator(ctx context.Context, consecratorID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.ClearConsecrator")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set("consecrator_id = NULL")
	sb.SetMore(sb.Assign("updated_at", time.Now()))
	sb.Where(sb.Equal("consecrator_id", consecratorID))

	query, args := sb.Build()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to clear consecrator references")
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to clear consecrator references")
	}

	rowsAffected, _ := result.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return rowsAffected, nil
}

// DeleteCoConsecratorsByClergy removes every co-consecrator row that names
// the given clergy id. The slot is vacated, there is no unknown placeholder.
// Joins the ambient transaction when one is open.
func (r *Repository) DeleteCoConsecratorsByClergy(ctx context.Context, clergyID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.DeleteCoConsecratorsByClergy")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(coConsecratorTable)
	sb.Where(sb.Equal("co_consecrator_id", clergyID))

	query, args := sb.Build()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete co-consecrator rows")
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to delete co-consecrator rows")
	}

	rowsAffected, _ := result.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return rowsAffected, nil
}

// CountAll counts every consecration event. Joins the ambient transaction
// when one is open.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ConsecrationRepository.CountAll")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to count consecration events")
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to count consecration events")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	return count, nil
}
