// Package legacy backfills ordination and consecration events from the flat
// lineage columns carried over from the previous system.
package legacy

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/consecration"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/metrics"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/records"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Migrator converts the flat legacy lineage columns on clergy rows into event
// records. The run is idempotent: it only writes when the event tables are
// empty, so re-running against a migrated database is a no-op.
type Migrator struct {
	db               database.DB
	clergyRepo       clergy.ClergyRepository
	ordinationRepo   ordination.OrdinationRepository
	consecrationRepo consecration.ConsecrationRepository
	logger           ectologger.Logger
}

// NewMigrator creates a new legacy lineage migrator
func NewMigrator(
	db database.DB,
	clergyRepo clergy.ClergyRepository,
	ordinationRepo ordination.OrdinationRepository,
	consecrationRepo consecration.ConsecrationRepository,
	logger ectologger.Logger,
) *Migrator {
	return &Migrator{
		db:               db,
		clergyRepo:       clergyRepo,
		ordinationRepo:   ordinationRepo,
		consecrationRepo: consecrationRepo,
		logger:           logger,
	}
}

// parseLegacyCoConsecrators decodes the legacy co_consecrators column, a JSON
// array of clergy ids. Malformed content is reported so the caller can log and
// continue rather than abort the whole run.
func parseLegacyCoConsecrators(raw *string) ([]int64, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	var ids []int64
	if err := json.Unmarshal([]byte(*raw), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Run performs the migration inside a single transaction. Partial failures
// roll back everything so a retry starts from a clean slate.
func (m *Migrator) Run(ctx context.Context) (*models.LegacyMigrationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "legacy.Migrator.Run")
	defer span.End()

	ctxTx, tx, err := m.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to start transaction")
	}
	defer tx.Rollback(ctxTx)

	ordinationCount, err := m.ordinationRepo.CountAll(ctxTx)
	if err != nil {
		metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	consecrationCount, err := m.consecrationRepo.CountAll(ctxTx)
	if err != nil {
		metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if ordinationCount > 0 || consecrationCount > 0 {
		m.logger.WithContext(ctx).Info("legacy migration skipped, event tables already populated")
		metrics.LegacyMigrationsTotal.WithLabelValues("skipped").Inc()
		return &models.LegacyMigrationResult{AlreadyMigrated: true}, nil
	}

	rows, err := m.clergyRepo.ListLegacyLineage(ctxTx)
	if err != nil {
		metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	result := &models.LegacyMigrationResult{}
	for _, row := range rows {
		if err := m.migrateOrdination(ctxTx, row, result); err != nil {
			metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		if err := m.migrateConsecration(ctxTx, row, result); err != nil {
			metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
	}

	if err := tx.Commit(ctxTx); err != nil {
		metrics.LegacyMigrationsTotal.WithLabelValues("error").Inc()
		return nil, httperror.NewHTTPError(http.StatusServiceUnavailable, "failed to commit")
	}

	m.logger.WithContext(ctx).WithFields(map[string]any{
		"ordinations_created":     result.OrdinationsCreated,
		"consecrations_created":   result.ConsecrationsCreated,
		"co_consecrators_created": result.CoConsecratorsCreated,
	}).Info("legacy lineage migration complete")
	metrics.LegacyMigrationsTotal.WithLabelValues("migrated").Inc()

	return result, nil
}

// resolveRef returns the id when it points at an active clergy record, nil
// otherwise. Legacy data holds ids of records that were since deleted; those
// references are dropped with a log line instead of failing the run.
func (m *Migrator) resolveRef(ctx context.Context, clergyID int64, refID int64, field string) (*int64, error) {
	exists, err := m.clergyRepo.ExistsActive(ctx, refID)
	if err != nil {
		return nil, err
	}
	if !exists {
		m.logger.WithContext(ctx).WithFields(map[string]any{
			"clergy_id": clergyID,
			"field":     field,
			"ref_id":    refID,
		}).Warn("legacy lineage reference does not resolve, dropping")
		return nil, nil
	}
	return &refID, nil
}

func (m *Migrator) migrateOrdination(ctx context.Context, row models.LegacyClergyLineage, result *models.LegacyMigrationResult) error {
	if row.OrdainingBishopID == nil && row.DateOfOrdination == nil {
		return nil
	}

	req := models.CreateOrdinationRequest{ClergyID: row.ID}
	if row.DateOfOrdination != nil {
		formatted := row.DateOfOrdination.Format(models.EventDateFormat)
		req.Date = &formatted
	}
	if row.OrdainingBishopID != nil {
		officiantID, err := m.resolveRef(ctx, row.ID, *row.OrdainingBishopID, "ordaining_bishop_id")
		if err != nil {
			return err
		}
		req.OfficiantID = officiantID
	}

	if _, err := m.ordinationRepo.Create(ctx, req); err != nil {
		return err
	}
	result.OrdinationsCreated++
	return nil
}

func (m *Migrator) migrateConsecration(ctx context.Context, row models.LegacyClergyLineage, result *models.LegacyMigrationResult) error {
	coConsecratorIDs, parseErr := parseLegacyCoConsecrators(row.CoConsecrators)
	if parseErr != nil {
		m.logger.WithContext(ctx).WithError(parseErr).WithFields(map[string]any{
			"clergy_id": row.ID,
		}).Warn("malformed legacy co_consecrators value, dropping")
		coConsecratorIDs = nil
	}

	if row.ConsecratorID == nil && row.DateOfConsecration == nil && len(coConsecratorIDs) == 0 {
		return nil
	}

	req := models.CreateConsecrationRequest{ClergyID: row.ID}
	if row.DateOfConsecration != nil {
		formatted := row.DateOfConsecration.Format(models.EventDateFormat)
		req.Date = &formatted
	}
	if row.ConsecratorID != nil {
		consecratorID, err := m.resolveRef(ctx, row.ID, *row.ConsecratorID, "consecrator_id")
		if err != nil {
			return err
		}
		req.ConsecratorID = consecratorID
	}

	event, err := m.consecrationRepo.Create(ctx, req)
	if err != nil {
		return err
	}
	result.ConsecrationsCreated++

	filtered := records.FilterCoConsecrators(row.ID, req.ConsecratorID, coConsecratorIDs)
	var resolvable []int64
	for _, id := range filtered {
		ref, err := m.resolveRef(ctx, row.ID, id, "co_consecrators")
		if err != nil {
			return err
		}
		if ref != nil {
			resolvable = append(resolvable, *ref)
		}
	}

	if len(resolvable) > 0 {
		added, _, err := m.consecrationRepo.ReplaceCoConsecrators(ctx, event.ID, resolvable)
		if err != nil {
			return err
		}
		result.CoConsecratorsCreated += added
	}

	return nil
}
