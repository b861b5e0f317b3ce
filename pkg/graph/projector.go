package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/pkg/metrics"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/Ramsey-B/laurel/pkg/tracing"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// edge type to relationship label
var edgeLabels = map[string]string{
	models.EdgeTypeOrdination:     "ORDAINED",
	models.EdgeTypeConsecration:   "CONSECRATED",
	models.EdgeTypeCoConsecration: "CO_CONSECRATED",
}

// Projector mirrors the lineage graph into the graph database. All writes are
// best-effort; callers log failures and never fail the primary write path on
// them.
type Projector struct {
	client *Client
	logger ectologger.Logger
}

// NewProjector creates a new lineage graph projector
func NewProjector(client *Client, logger ectologger.Logger) *Projector {
	return &Projector{
		client: client,
		logger: logger,
	}
}

// UpsertClergy creates or updates a clergy node
func (p *Projector) UpsertClergy(ctx context.Context, c *models.Clergy) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.UpsertClergy")
	defer span.End()

	props := map[string]any{
		"id":   c.ID,
		"name": c.Name,
		"rank": c.Rank,
	}
	if c.Organization != nil {
		props["organization"] = *c.Organization
	}

	cypher := `
		MERGE (c:Clergy {id: $id})
		SET c = $props
		RETURN c
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"id":    c.ID,
			"props": props,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		metrics.GraphSyncsTotal.WithLabelValues("error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to upsert clergy node in graph")
		return fmt.Errorf("failed to upsert clergy node in graph: %w", err)
	}

	metrics.GraphSyncsTotal.WithLabelValues("success").Inc()
	return nil
}

// DeleteClergy marks a clergy node deleted and removes its outgoing lineage
// edges, mirroring the integrity maintenance the primary store performs.
func (p *Projector) DeleteClergy(ctx context.Context, clergyID int64) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.DeleteClergy")
	defer span.End()

	cypher := `
		MATCH (c:Clergy {id: $id})
		SET c.deleted_at = datetime()
		WITH c
		OPTIONAL MATCH (c)-[r]->()
		DELETE r
	`

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"id": clergyID})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})

	if err != nil {
		metrics.GraphSyncsTotal.WithLabelValues("error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to delete clergy node in graph")
		return fmt.Errorf("failed to delete clergy node in graph: %w", err)
	}

	metrics.GraphSyncsTotal.WithLabelValues("success").Inc()
	return nil
}

// SyncLineage rebuilds the full lineage projection from a graph snapshot
func (p *Projector) SyncLineage(ctx context.Context, g *models.LineageGraph) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.SyncLineage")
	defer span.End()

	_, err := p.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// drop old edges, nodes are merged in place
		if _, err := tx.Run(ctx, `MATCH (:Clergy)-[r]->(:Clergy) DELETE r`, nil); err != nil {
			return nil, err
		}

		for _, node := range g.Nodes {
			props := map[string]any{
				"id":   node.ID,
				"name": node.Name,
				"rank": node.Rank,
			}
			if node.Organization != "" {
				props["organization"] = node.Organization
			}
			cypher := `
				MERGE (c:Clergy {id: $id})
				SET c = $props
			`
			if _, err := tx.Run(ctx, cypher, map[string]any{"id": node.ID, "props": props}); err != nil {
				return nil, err
			}
		}

		for _, edge := range g.Edges {
			label, ok := edgeLabels[edge.Type]
			if !ok {
				continue
			}
			cypher := fmt.Sprintf(`
				MATCH (from:Clergy {id: $source}), (to:Clergy {id: $target})
				CREATE (from)-[r:%s {date: $date, is_doubtfully_valid: $doubtfully_valid, is_doubtful: $doubtful, is_invalid: $invalid}]->(to)
			`, label)
			params := map[string]any{
				"source":           edge.Source,
				"target":           edge.Target,
				"date":             edge.Date,
				"doubtfully_valid": edge.IsDoubtfullyValid,
				"doubtful":         edge.IsDoubtful,
				"invalid":          edge.IsInvalid,
			}
			if _, err := tx.Run(ctx, cypher, params); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})

	if err != nil {
		metrics.GraphSyncsTotal.WithLabelValues("error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to sync lineage projection")
		return fmt.Errorf("failed to sync lineage projection: %w", err)
	}

	metrics.GraphSyncsTotal.WithLabelValues("success").Inc()
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"nodes": len(g.Nodes),
		"edges": len(g.Edges),
	}).Debug("Synced lineage projection")

	return nil
}
