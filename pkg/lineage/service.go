package lineage

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/consecration"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/metrics"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
)

// Service loads the current records and builds lineage graph snapshots. Reads
// are lock-free; the snapshot reflects some recent committed state.
type Service struct {
	clergyRepo       clergy.ClergyRepository
	ordinationRepo   ordination.OrdinationRepository
	consecrationRepo consecration.ConsecrationRepository
	logger           ectologger.Logger
}

// NewService creates a new lineage service
func NewService(
	clergyRepo clergy.ClergyRepository,
	ordinationRepo ordination.OrdinationRepository,
	consecrationRepo consecration.ConsecrationRepository,
	logger ectologger.Logger,
) *Service {
	return &Service{
		clergyRepo:       clergyRepo,
		ordinationRepo:   ordinationRepo,
		consecrationRepo: consecrationRepo,
		logger:           logger,
	}
}

// BuildGraph builds a lineage graph snapshot from the current records
func (s *Service) BuildGraph(ctx context.Context) (*models.LineageGraph, error) {
	ctx, span := tracing.StartSpan(ctx, "lineage.Service.BuildGraph")
	defer span.End()

	start := time.Now()

	clergyRecords, err := s.clergyRepo.ListAllActive(ctx)
	if err != nil {
		metrics.RecordLineageBuild("error", time.Since(start).Seconds())
		return nil, err
	}

	ordinations, err := s.ordinationRepo.ListAll(ctx)
	if err != nil {
		metrics.RecordLineageBuild("error", time.Since(start).Seconds())
		return nil, err
	}

	consecrations, err := s.consecrationRepo.ListAll(ctx)
	if err != nil {
		metrics.RecordLineageBuild("error", time.Since(start).Seconds())
		return nil, err
	}

	coConsecrators, err := s.consecrationRepo.ListAllCoConsecrators(ctx)
	if err != nil {
		metrics.RecordLineageBuild("error", time.Since(start).Seconds())
		return nil, err
	}

	graph := Build(clergyRecords, ordinations, consecrations, coConsecrators)

	metrics.RecordLineageBuild("success", time.Since(start).Seconds())
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"nodes": len(graph.Nodes),
		"edges": len(graph.Edges),
	}).Debug("built lineage graph")

	return graph, nil
}
