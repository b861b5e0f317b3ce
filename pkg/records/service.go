// Package records exposes the CRUD entry points for clergy and their
// ordination/consecration events.
package records

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/consecration"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/metrics"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// DefaultOfficiantRank is assigned when resolving free-text officiant input
// creates a new record without an explicit rank.
const DefaultOfficiantRank = "Bishop"

// IntegrityMaintainer runs the atomic reference cleanup for a clergy soft delete
type IntegrityMaintainer interface {
	SoftDeleteClergy(ctx context.Context, id int64) (*models.ClergyDeleteResponse, error)
}

// ChangeEmitter publishes record change events. May be nil when eventing is
// disabled; emission failures never fail the write path.
type ChangeEmitter interface {
	EmitClergyCreated(ctx context.Context, c *models.Clergy) error
	EmitClergyUpdated(ctx context.Context, c *models.Clergy) error
	EmitClergyDeleted(ctx context.Context, clergyID int64) error
	EmitLineageChanged(ctx context.Context, reason string, clergyID int64) error
}

// LineageProjector mirrors clergy nodes into the graph database. May be nil
// when the projection is disabled; failures never fail the write path.
type LineageProjector interface {
	UpsertClergy(ctx context.Context, c *models.Clergy) error
	DeleteClergy(ctx context.Context, clergyID int64) error
}

// Service implements the record store operations
type Service struct {
	db               database.DB
	clergyRepo       clergy.ClergyRepository
	ordinationRepo   ordination.OrdinationRepository
	consecrationRepo consecration.ConsecrationRepository
	maintainer       IntegrityMaintainer
	emitter          ChangeEmitter
	projector        LineageProjector
	logger           ectologger.Logger
}

// NewService creates a new records service
func NewService(
	db database.DB,
	clergyRepo clergy.ClergyRepository,
	ordinationRepo ordination.OrdinationRepository,
	consecrationRepo consecration.ConsecrationRepository,
	maintainer IntegrityMaintainer,
	emitter ChangeEmitter,
	projector LineageProjector,
	logger ectologger.Logger,
) *Service {
	return &Service{
		db:               db,
		clergyRepo:       clergyRepo,
		ordinationRepo:   ordinationRepo,
		consecrationRepo: consecrationRepo,
		maintainer:       maintainer,
		emitter:          emitter,
		projector:        projector,
		logger:           logger,
	}
}

// checkClergyRef verifies an id resolves to a non-deleted clergy record
func (s *Service) checkClergyRef(ctx context.Context, id int64, field string) error {
	exists, err := s.clergyRepo.ExistsActive(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "%s references clergy id %d which does not exist or is deleted", field, id)
	}
	return nil
}

// CreateClergy creates a new clergy record
func (s *Service) CreateClergy(ctx context.Context, req models.CreateClergyRequest) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.CreateClergy")
	defer span.End()

	created, err := s.clergyRepo.Create(ctx, req)
	if err != nil {
		metrics.RecordMutation("clergy", "create", "error")
		return nil, err
	}
	metrics.RecordMutation("clergy", "create", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitClergyCreated(ctx, created)
	}
	if s.projector != nil {
		_ = s.projector.UpsertClergy(ctx, created)
	}

	return created, nil
}

// GetClergy gets a clergy record by id
func (s *Service) GetClergy(ctx context.Context, id int64) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.GetClergy")
	defer span.End()

	c, err := s.clergyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "clergy record not found")
	}
	return c, nil
}

// ListClergy lists clergy records with pagination
func (s *Service) ListClergy(ctx context.Context, page, pageSize int) (*models.ClergyListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.ListClergy")
	defer span.End()

	items, totalCount, err := s.clergyRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Clergy{}
	}

	return &models.ClergyListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// UpdateClergy updates a clergy record
func (s *Service) UpdateClergy(ctx context.Context, id int64, req models.UpdateClergyRequest) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.UpdateClergy")
	defer span.End()

	updated, err := s.clergyRepo.Update(ctx, id, req)
	if err != nil {
		metrics.RecordMutation("clergy", "update", "error")
		return nil, err
	}
	if updated == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "clergy record not found")
	}
	metrics.RecordMutation("clergy", "update", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitClergyUpdated(ctx, updated)
	}
	if s.projector != nil {
		_ = s.projector.UpsertClergy(ctx, updated)
	}

	return updated, nil
}

// DeleteClergy soft deletes a clergy record with full integrity maintenance
func (s *Service) DeleteClergy(ctx context.Context, id int64) (*models.ClergyDeleteResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.DeleteClergy")
	defer span.End()

	result, err := s.maintainer.SoftDeleteClergy(ctx, id)
	if err != nil {
		metrics.RecordMutation("clergy", "delete", "error")
		return nil, err
	}
	metrics.RecordMutation("clergy", "delete", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitClergyDeleted(ctx, id)
		_ = s.emitter.EmitLineageChanged(ctx, "deletion", id)
	}
	if s.projector != nil {
		_ = s.projector.DeleteClergy(ctx, id)
	}

	return result, nil
}

// FindClergyByName returns the first case-insensitive substring match in
// insertion order, or nil when nothing matches
func (s *Service) FindClergyByName(ctx context.Context, name string) (*models.Clergy, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.FindClergyByName")
	defer span.End()

	return s.clergyRepo.FindByName(ctx, name)
}

// ResolveOrCreateOfficiant resolves free-text officiant input to an existing
// clergy record. When no record matches and CreateIfMissing is set, a new
// record is created; otherwise the caller is told nothing matched so it can
// offer "create new".
func (s *Service) ResolveOrCreateOfficiant(ctx context.Context, req models.ResolveOfficiantRequest) (*models.ResolveOfficiantResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.ResolveOrCreateOfficiant")
	defer span.End()

	match, err := s.clergyRepo.FindByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return &models.ResolveOfficiantResponse{Clergy: match, Matched: true}, nil
	}

	if !req.CreateIfMissing {
		return &models.ResolveOfficiantResponse{}, nil
	}

	rank := req.Rank
	if rank == "" {
		rank = DefaultOfficiantRank
	}

	created, err := s.CreateClergy(ctx, models.CreateClergyRequest{
		Name: req.Name,
		Rank: rank,
	})
	if err != nil {
		return nil, err
	}

	return &models.ResolveOfficiantResponse{Clergy: created, Created: true}, nil
}

// CreateOrdination creates an ordination event
func (s *Service) CreateOrdination(ctx context.Context, req models.CreateOrdinationRequest) (*models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.CreateOrdination")
	defer span.End()

	if err := ValidatePrincipal(req.ClergyID, req.OfficiantID, "officiant_id"); err != nil {
		return nil, err
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordMutation("ordination", "create", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctxTx)

	// reference checks share the write transaction and hold a share lock on
	// each clergy row, so a concurrent delete cannot land between the check
	// and the insert
	if err := s.checkClergyRef(ctxTx, req.ClergyID, "clergy_id"); err != nil {
		return nil, err
	}
	if req.OfficiantID != nil {
		if err := s.checkClergyRef(ctxTx, *req.OfficiantID, "officiant_id"); err != nil {
			return nil, err
		}
	}

	created, err := s.ordinationRepo.Create(ctxTx, req)
	if err != nil {
		metrics.RecordMutation("ordination", "create", "error")
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.RecordMutation("ordination", "create", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}
	metrics.RecordMutation("ordination", "create", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "ordination", req.ClergyID)
	}

	return created, nil
}

// GetOrdination gets an ordination event by id
func (s *Service) GetOrdination(ctx context.Context, id int64) (*models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.GetOrdination")
	defer span.End()

	event, err := s.ordinationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "ordination event not found")
	}
	return event, nil
}

// ListOrdinations lists ordination events with pagination
func (s *Service) ListOrdinations(ctx context.Context, page, pageSize int) (*models.OrdinationListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.ListOrdinations")
	defer span.End()

	items, totalCount, err := s.ordinationRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.OrdinationEvent{}
	}

	return &models.OrdinationListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// ListOrdinationsByClergy lists a clergy member's ordination events
func (s *Service) ListOrdinationsByClergy(ctx context.Context, clergyID int64) ([]models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.ListOrdinationsByClergy")
	defer span.End()

	return s.ordinationRepo.ListByClergy(ctx, clergyID)
}

// UpdateOrdination updates an ordination event
func (s *Service) UpdateOrdination(ctx context.Context, id int64, req models.UpdateOrdinationRequest) (*models.OrdinationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.UpdateOrdination")
	defer span.End()

	if req.OfficiantID != nil && !req.ClearOfficiant {
		existing, err := s.ordinationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "ordination event not found")
		}
		if err := ValidatePrincipal(existing.ClergyID, req.OfficiantID, "officiant_id"); err != nil {
			return nil, err
		}
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordMutation("ordination", "update", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctxTx)

	if req.OfficiantID != nil && !req.ClearOfficiant {
		if err := s.checkClergyRef(ctxTx, *req.OfficiantID, "officiant_id"); err != nil {
			return nil, err
		}
	}

	updated, err := s.ordinationRepo.Update(ctxTx, id, req)
	if err != nil {
		metrics.RecordMutation("ordination", "update", "error")
		return nil, err
	}
	if updated == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "ordination event not found")
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.RecordMutation("ordination", "update", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}
	metrics.RecordMutation("ordination", "update", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "ordination", updated.ClergyID)
	}

	return updated, nil
}

// DeleteOrdination hard deletes an ordination event
func (s *Service) DeleteOrdination(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "records.Service.DeleteOrdination")
	defer span.End()

	if err := s.ordinationRepo.Delete(ctx, id); err != nil {
		metrics.RecordMutation("ordination", "delete", "error")
		return err
	}
	metrics.RecordMutation("ordination", "delete", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "ordination", 0)
	}

	return nil
}

// CreateConsecration creates a consecration event together with its
// co-consecrator set in one transaction
func (s *Service) CreateConsecration(ctx context.Context, req models.CreateConsecrationRequest) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.CreateConsecration")
	defer span.End()

	if err := ValidatePrincipal(req.ClergyID, req.ConsecratorID, "consecrator_id"); err != nil {
		return nil, err
	}
	if err := ValidateCoConsecrators(req.ClergyID, req.ConsecratorID, req.CoConsecratorIDs); err != nil {
		return nil, err
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordMutation("consecration", "create", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctxTx)

	if err := s.checkClergyRef(ctxTx, req.ClergyID, "clergy_id"); err != nil {
		return nil, err
	}
	if req.ConsecratorID != nil {
		if err := s.checkClergyRef(ctxTx, *req.ConsecratorID, "consecrator_id"); err != nil {
			return nil, err
		}
	}
	for _, id := range req.CoConsecratorIDs {
		if err := s.checkClergyRef(ctxTx, id, "co_consecrator_ids"); err != nil {
			return nil, err
		}
	}

	created, err := s.consecrationRepo.Create(ctxTx, req)
	if err != nil {
		metrics.RecordMutation("consecration", "create", "error")
		return nil, err
	}

	if len(req.CoConsecratorIDs) > 0 {
		if _, _, err := s.consecrationRepo.ReplaceCoConsecrators(ctxTx, created.ID, req.CoConsecratorIDs); err != nil {
			metrics.RecordMutation("consecration", "create", "error")
			return nil, err
		}
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.RecordMutation("consecration", "create", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}
	metrics.RecordMutation("consecration", "create", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "consecration", req.ClergyID)
	}

	return s.GetConsecration(ctx, created.ID)
}

// GetConsecration gets a consecration event by id
func (s *Service) GetConsecration(ctx context.Context, id int64) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.GetConsecration")
	defer span.End()

	event, err := s.consecrationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "consecration event not found")
	}
	return event, nil
}

// ListConsecrations lists consecration events with pagination
func (s *Service) ListConsecrations(ctx context.Context, page, pageSize int) (*models.ConsecrationListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.ListConsecrations")
	defer span.End()

	items, totalCount, err := s.consecrationRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ConsecrationEvent{}
	}

	return &models.ConsecrationListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// ListConsecrationsByClergy lists a clergy member's consecration events
func (s *Service) ListConsecrationsByClergy(ctx context.Context, clergyID int64) ([]models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.ListConsecrationsByClergy")
	defer span.End()

	return s.consecrationRepo.ListByClergy(ctx, clergyID)
}

// UpdateConsecration updates a consecration event
func (s *Service) UpdateConsecration(ctx context.Context, id int64, req models.UpdateConsecrationRequest) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.UpdateConsecration")
	defer span.End()

	if req.ConsecratorID != nil && !req.ClearConsecrator {
		existing, err := s.consecrationRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if err := ValidatePrincipal(existing.ClergyID, req.ConsecratorID, "consecrator_id"); err != nil {
				return nil, err
			}
			// the incoming principal may already sit in the co-officiant set
			if err := ValidateCoConsecrators(existing.ClergyID, req.ConsecratorID, existing.CoConsecratorIDs); err != nil {
				return nil, err
			}
		}
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordMutation("consecration", "update", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctxTx)

	if req.ConsecratorID != nil && !req.ClearConsecrator {
		if err := s.checkClergyRef(ctxTx, *req.ConsecratorID, "consecrator_id"); err != nil {
			return nil, err
		}
	}

	updated, err := s.consecrationRepo.Update(ctxTx, id, req)
	if err != nil {
		metrics.RecordMutation("consecration", "update", "error")
		return nil, err
	}
	if updated == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "consecration event not found")
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.RecordMutation("consecration", "update", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}
	metrics.RecordMutation("consecration", "update", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "consecration", updated.ClergyID)
	}

	return updated, nil
}

// DeleteConsecration hard deletes a consecration event and its co-consecrator rows
func (s *Service) DeleteConsecration(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "records.Service.DeleteConsecration")
	defer span.End()

	if err := s.consecrationRepo.Delete(ctx, id); err != nil {
		metrics.RecordMutation("consecration", "delete", "error")
		return err
	}
	metrics.RecordMutation("consecration", "delete", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "consecration", 0)
	}

	return nil
}

// SetCoConsecrators replaces a consecration event's full co-officiant set
func (s *Service) SetCoConsecrators(ctx context.Context, eventID int64, clergyIDs []int64) (*models.ConsecrationEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "records.Service.SetCoConsecrators")
	defer span.End()

	event, err := s.consecrationRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "consecration event not found")
	}

	if err := ValidateCoConsecrators(event.ClergyID, event.ConsecratorID, clergyIDs); err != nil {
		return nil, err
	}

	ctxTx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordMutation("co_consecrators", "set", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctxTx)

	// reference checks share the write transaction and hold a share lock on
	// each clergy row, so a concurrent delete cannot land between the check
	// and the insert
	for _, id := range clergyIDs {
		if err := s.checkClergyRef(ctxTx, id, "clergy_ids"); err != nil {
			return nil, err
		}
	}

	if _, _, err := s.consecrationRepo.ReplaceCoConsecrators(ctxTx, eventID, clergyIDs); err != nil {
		metrics.RecordMutation("co_consecrators", "set", "error")
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.RecordMutation("co_consecrators", "set", "error")
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}
	metrics.RecordMutation("co_consecrators", "set", "success")

	if s.emitter != nil {
		_ = s.emitter.EmitLineageChanged(ctx, "co-consecration", event.ClergyID)
	}

	return s.GetConsecration(ctx, eventID)
}
