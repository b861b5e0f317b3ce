package lineage

import (
	"testing"
	"time"

	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
func timePtr(v time.Time) *time.Time {
	return &v
}

func testClergy(id int64, name string) models.Clergy {
	return models.Clergy{ID: id, Name: name, Rank: "Bishop"}
}

func TestBuildConsecrationWithCoConsecrator(t *testing.T) {
	date := time.Date(1988, 6, 30, 0, 0, 0, 0, time.UTC)

	clergy := []models.Clergy{
		testClergy(1, "A"),
		testClergy(2, "B"),
		testClergy(3, "C"),
	}
	consecrations := []models.ConsecrationEvent{
		{ID: 10, ClergyID: 2, ConsecratorID: int64Ptr(1), Date: timePtr(date)},
	}
	coConsecrators := []models.CoConsecrator{
		{ID: 100, ConsecrationEventID: 10, CoConsecratorID: 3},
	}

	graph := Build(clergy, nil, consecrations, coConsecrators)

	require.Len(t, graph.Nodes, 3)
	require.Len(t, graph.Edges, 2)

	assert.Equal(t, models.LineageEdge{
		Source: 1,
		Target: 2,
		Type:   models.EdgeTypeConsecration,
		Date:   "1988-06-30",
	}, graph.Edges[0])
	assert.Equal(t, models.LineageEdge{
		Source: 3,
		Target: 2,
		Type:   models.EdgeTypeCoConsecration,
		Date:   "1988-06-30",
	}, graph.Edges[1])
}

func TestBuildOmitsDanglingEdges(t *testing.T) {
	date := time.Date(1988, 6, 30, 0, 0, 0, 0, time.UTC)

	// clergy 1 was soft deleted: not a node, its consecration reference was
	// nulled, and its co-consecrator rows were removed
	clergy := []models.Clergy{
		testClergy(2, "B"),
		testClergy(3, "C"),
	}
	consecrations := []models.ConsecrationEvent{
		{ID: 10, ClergyID: 2, ConsecratorID: nil, Date: timePtr(date)},
	}
	coConsecrators := []models.CoConsecrator{
		{ID: 100, ConsecrationEventID: 10, CoConsecratorID: 3},
	}

	graph := Build(clergy, nil, consecrations, coConsecrators)

	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, int64(2), graph.Nodes[0].ID)

	// the nulled consecration contributes no edge; the co-consecration edge
	// survives since both of its endpoints still exist
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, models.EdgeTypeCoConsecration, graph.Edges[0].Type)

	// an officiant id pointing outside the node set is omitted too
	consecrations[0].ConsecratorID = int64Ptr(99)
	graph = Build(clergy, nil, consecrations, coConsecrators)
	require.Len(t, graph.Edges, 1)
}

func TestBuildOrdinationEdges(t *testing.T) {
	clergy := []models.Clergy{
		testClergy(1, "A"),
		testClergy(2, "B"),
	}
	year := 1950
	ordinations := []models.OrdinationEvent{
		{ID: 20, ClergyID: 2, OfficiantID: int64Ptr(1), Year: &year},
		{ID: 21, ClergyID: 2, OfficiantID: nil},
	}

	graph := Build(clergy, ordinations, nil, nil)

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, models.LineageEdge{
		Source: 1,
		Target: 2,
		Type:   models.EdgeTypeOrdination,
		Date:   "1950",
	}, graph.Edges[0])
}

func TestBuildDateAnnotations(t *testing.T) {
	clergy := []models.Clergy{
		testClergy(1, "A"),
		testClergy(2, "B"),
	}
	ordinations := []models.OrdinationEvent{
		{ID: 20, ClergyID: 2, OfficiantID: int64Ptr(1)},
	}

	graph := Build(clergy, ordinations, nil, nil)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "unknown", graph.Edges[0].Date)
}

func TestBuildPassesValidityFlagsVerbatim(t *testing.T) {
	clergy := []models.Clergy{
		testClergy(1, "A"),
		testClergy(2, "B"),
	}
	// conflicting flags are passed through, never rejected
	consecrations := []models.ConsecrationEvent{
		{ID: 10, ClergyID: 2, ConsecratorID: int64Ptr(1), IsDoubtfullyValid: true, IsInvalid: true},
	}

	graph := Build(clergy, nil, consecrations, nil)

	require.Len(t, graph.Edges, 1)
	assert.True(t, graph.Edges[0].IsDoubtfullyValid)
	assert.True(t, graph.Edges[0].IsInvalid)
	assert.False(t, graph.Edges[0].IsDoubtful)
}

func TestBuildIsDeterministic(t *testing.T) {
	date := time.Date(1988, 6, 30, 0, 0, 0, 0, time.UTC)

	clergy := []models.Clergy{
		testClergy(1, "A"),
		testClergy(2, "B"),
		testClergy(3, "C"),
	}
	ordinations := []models.OrdinationEvent{
		{ID: 20, ClergyID: 2, OfficiantID: int64Ptr(1), Year: intPtr(1950)},
	}
	consecrations := []models.ConsecrationEvent{
		{ID: 10, ClergyID: 2, ConsecratorID: int64Ptr(1), Date: timePtr(date)},
		{ID: 11, ClergyID: 3, ConsecratorID: int64Ptr(2), Date: timePtr(date)},
	}
	coConsecrators := []models.CoConsecrator{
		{ID: 100, ConsecrationEventID: 10, CoConsecratorID: 3},
	}

	first := Build(clergy, ordinations, consecrations, coConsecrators)
	second := Build(clergy, ordinations, consecrations, coConsecrators)

	assert.Equal(t, first, second)
}

func TestBuildEmptyInputs(t *testing.T) {
	graph := Build(nil, nil, nil, nil)

	require.NotNil(t, graph)
	assert.NotNil(t, graph.Nodes)
	assert.NotNil(t, graph.Edges)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}
