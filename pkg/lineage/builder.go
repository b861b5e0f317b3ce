// Package lineage derives the renderable who-ordained/consecrated-whom graph
package lineage

import (
	"github.com/Ramsey-B/laurel/pkg/models"
)

// Build derives a lineage graph snapshot from loaded records. One node per
// non-deleted clergy record; one typed edge per event with a known officiant.
// Edges whose source or target is not a loaded node are omitted entirely, so
// an event with a nulled officiant contributes no edge, only the subject's
// node. Output order is the insertion order of the inputs, so repeated calls
// over unchanged data produce identical graphs.
func Build(
	clergy []models.Clergy,
	ordinations []models.OrdinationEvent,
	consecrations []models.ConsecrationEvent,
	coConsecrators []models.CoConsecrator,
) *models.LineageGraph {
	nodes := make([]models.LineageNode, 0, len(clergy))
	nodeSet := make(map[int64]bool, len(clergy))

	for _, c := range clergy {
		node := models.LineageNode{
			ID:   c.ID,
			Name: c.Name,
			Rank: c.Rank,
		}
		if c.Organization != nil {
			node.Organization = *c.Organization
		}
		nodes = append(nodes, node)
		nodeSet[c.ID] = true
	}

	edges := make([]models.LineageEdge, 0, len(ordinations)+len(consecrations)+len(coConsecrators))

	for _, event := range ordinations {
		if event.OfficiantID == nil || !nodeSet[*event.OfficiantID] || !nodeSet[event.ClergyID] {
			continue
		}
		edges = append(edges, models.LineageEdge{
			Source:            *event.OfficiantID,
			Target:            event.ClergyID,
			Type:              models.EdgeTypeOrdination,
			Date:              models.EventDateLabel(event.Date, event.Year),
			IsDoubtfullyValid: event.IsDoubtfullyValid,
			IsDoubtful:        event.IsDoubtful,
			IsInvalid:         event.IsInvalid,
		})
	}

	eventsByID := make(map[int64]models.ConsecrationEvent, len(consecrations))
	for _, event := range consecrations {
		eventsByID[event.ID] = event

		if event.ConsecratorID == nil || !nodeSet[*event.ConsecratorID] || !nodeSet[event.ClergyID] {
			continue
		}
		edges = append(edges, models.LineageEdge{
			Source:            *event.ConsecratorID,
			Target:            event.ClergyID,
			Type:              models.EdgeTypeConsecration,
			Date:              models.EventDateLabel(event.Date, event.Year),
			IsDoubtfullyValid: event.IsDoubtfullyValid,
			IsDoubtful:        event.IsDoubtful,
			IsInvalid:         event.IsInvalid,
		})
	}

	for _, row := range coConsecrators {
		event, ok := eventsByID[row.ConsecrationEventID]
		if !ok || !nodeSet[row.CoConsecratorID] || !nodeSet[event.ClergyID] {
			continue
		}
		// co-consecration edges share the parent event's date and flags
		edges = append(edges, models.LineageEdge{
			Source:            row.CoConsecratorID,
			Target:            event.ClergyID,
			Type:              models.EdgeTypeCoConsecration,
			Date:              models.EventDateLabel(event.Date, event.Year),
			IsDoubtfullyValid: event.IsDoubtfullyValid,
			IsDoubtful:        event.IsDoubtful,
			IsInvalid:         event.IsInvalid,
		})
	}

	return &models.LineageGraph{
		Nodes: nodes,
		Edges: edges,
	}
}
