// Package integrity keeps relationship events consistent when clergy records
// are soft deleted.
package integrity

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/consecration"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/metrics"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Maintainer runs the reference cleanup that accompanies a clergy soft
// delete: officiant references are nulled, co-consecrator rows removed, and
// the record marked deleted, all in one transaction. A failure midway leaves
// the prior state fully intact.
type Maintainer struct {
	clergyRepo       clergy.ClergyRepository
	ordinationRepo   ordination.OrdinationRepository
	consecrationRepo consecration.ConsecrationRepository
	logger           ectologger.Logger
}

// NewMaintainer creates a new integrity maintainer
func NewMaintainer(
	clergyRepo clergy.ClergyRepository,
	ordinationRepo ordination.OrdinationRepository,
	consecrationRepo consecration.ConsecrationRepository,
	logger ectologger.Logger,
) *Maintainer {
	return &Maintainer{
		clergyRepo:       clergyRepo,
		ordinationRepo:   ordinationRepo,
		consecrationRepo: consecrationRepo,
		logger:           logger,
	}
}

// SoftDeleteClergy soft deletes a clergy record and detaches every reference
// to it. The clergy row is locked for the duration so a concurrent edit
// cannot re-introduce a reference to the id mid-delete.
func (m *Maintainer) SoftDeleteClergy(ctx context.Context, id int64) (*models.ClergyDeleteResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "integrity.Maintainer.SoftDeleteClergy")
	defer span.End()

	ctxTx, tx, err := m.clergyRepo.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start integrity maintenance")
	}
	defer tx.Rollback(ctxTx)

	locked, err := m.clergyRepo.LockActive(ctxTx, id)
	if err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "integrity maintenance failed")
	}
	if locked == nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "clergy record not found")
	}

	ordinationsDetached, err := m.ordinationRepo.ClearOfficiant(ctxTx, id)
	if err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		m.logger.WithContext(ctxTx).WithError(err).Error("integrity maintenance failed clearing ordination officiants")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "integrity maintenance failed")
	}

	consecrationsDetached, err := m.consecrationRepo.ClearConsecrator(ctxTx, id)
	if err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		m.logger.WithContext(ctxTx).WithError(err).Error("integrity maintenance failed clearing consecrators")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "integrity maintenance failed")
	}

	coConsecratorsDetached, err := m.consecrationRepo.DeleteCoConsecratorsByClergy(ctxTx, id)
	if err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		m.logger.WithContext(ctxTx).WithError(err).Error("integrity maintenance failed removing co-consecrators")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "integrity maintenance failed")
	}

	if err := m.clergyRepo.MarkDeleted(ctxTx, id); err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		m.logger.WithContext(ctxTx).WithError(err).Error("integrity maintenance failed marking clergy deleted")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "integrity maintenance failed")
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.RecordIntegrityCleanup("error", 0, 0, 0)
		m.logger.WithContext(ctxTx).WithError(err).Error("integrity maintenance failed to commit")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "integrity maintenance failed")
	}

	metrics.RecordIntegrityCleanup("success", int(ordinationsDetached), int(consecrationsDetached), int(coConsecratorsDetached))
	m.logger.WithContext(ctx).WithFields(map[string]any{
		"id":                       id,
		"ordinations_detached":     ordinationsDetached,
		"consecrations_detached":   consecrationsDetached,
		"co_consecrators_detached": coConsecratorsDetached,
	}).Info("soft deleted clergy record with integrity maintenance")

	return &models.ClergyDeleteResponse{
		ID:                     id,
		OrdinationsDetached:    int(ordinationsDetached),
		ConsecrationsDetached:  int(consecrationsDetached),
		CoConsecratorsDetached: int(coConsecratorsDetached),
	}, nil
}
