package integration

import (
	"context"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/consecration"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/integrity"
	"github.com/Ramsey-B/laurel/pkg/lineage"
	"github.com/Ramsey-B/laurel/pkg/models"
)

// testContext holds shared test context
type testContext struct {
	db               database.DB
	logger           ectologger.Logger
	clergyRepo       *clergy.Repository
	ordinationRepo   *ordination.Repository
	consecrationRepo *consecration.Repository
	maintainer       *integrity.Maintainer
	lineageService   *lineage.Service
	ctx              context.Context
}

func setupTestContext(t *testing.T) *testContext {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "laurel"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	sqlxDB, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	zapLogger, _ := zap.NewDevelopment()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)
	db := database.NewDatabaseInstance(sqlxDB, logger)

	tc := &testContext{
		db:               db,
		logger:           logger,
		clergyRepo:       clergy.NewRepository(db, logger),
		ordinationRepo:   ordination.NewRepository(db, logger),
		consecrationRepo: consecration.NewRepository(db, logger),
		ctx:              context.Background(),
	}
	tc.maintainer = integrity.NewMaintainer(tc.clergyRepo, tc.ordinationRepo, tc.consecrationRepo, logger)
	tc.lineageService = lineage.NewService(tc.clergyRepo, tc.ordinationRepo, tc.consecrationRepo, logger)

	return tc
}

func (tc *testContext) createClergy(t *testing.T, rank string) *models.Clergy {
	t.Helper()
	created, err := tc.clergyRepo.Create(tc.ctx, models.CreateClergyRequest{
		Name: rank + " " + uuid.NewString(),
		Rank: rank,
	})
	require.NoError(t, err)
	return created
}

func findEdge(graph *models.LineageGraph, source, target int64, edgeType string) *models.LineageEdge {
	for i := range graph.Edges {
		e := &graph.Edges[i]
		if e.Source == source && e.Target == target && e.Type == edgeType {
			return e
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

// TestSoftDeleteDetachesLineage covers the full cleanup a clergy deletion
// performs: officiant references, consecrator references, and co-consecrator
// memberships all drop while the events themselves survive.
func TestSoftDeleteDetachesLineage(t *testing.T) {
	tc := setupTestContext(t)

	subject := tc.createClergy(t, "Bishop")
	bishop := tc.createClergy(t, "Archbishop")
	assistant := tc.createClergy(t, "Bishop")

	// bishop ordains the subject
	ordinationEvent, err := tc.ordinationRepo.Create(tc.ctx, models.CreateOrdinationRequest{
		ClergyID:    subject.ID,
		Date:        strPtr("1947-09-21"),
		OfficiantID: &bishop.ID,
	})
	require.NoError(t, err)

	// bishop consecrates the subject with an assistant
	consecrationEvent, err := tc.consecrationRepo.Create(tc.ctx, models.CreateConsecrationRequest{
		ClergyID:      subject.ID,
		Date:          strPtr("1988-06-30"),
		ConsecratorID: &bishop.ID,
	})
	require.NoError(t, err)
	_, _, err = tc.consecrationRepo.ReplaceCoConsecrators(tc.ctx, consecrationEvent.ID, []int64{assistant.ID})
	require.NoError(t, err)

	// bishop also co-consecrated someone else
	otherEvent, err := tc.consecrationRepo.Create(tc.ctx, models.CreateConsecrationRequest{
		ClergyID: assistant.ID,
	})
	require.NoError(t, err)
	_, _, err = tc.consecrationRepo.ReplaceCoConsecrators(tc.ctx, otherEvent.ID, []int64{bishop.ID})
	require.NoError(t, err)

	result, err := tc.maintainer.SoftDeleteClergy(tc.ctx, bishop.ID)
	require.NoError(t, err)
	assert.Equal(t, bishop.ID, result.ID)
	assert.Equal(t, 1, result.OrdinationsDetached)
	assert.Equal(t, 1, result.ConsecrationsDetached)
	assert.Equal(t, 1, result.CoConsecratorsDetached)

	// the record is gone but the events survive with nulled references
	gone, err := tc.clergyRepo.GetByID(tc.ctx, bishop.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	ord, err := tc.ordinationRepo.GetByID(tc.ctx, ordinationEvent.ID)
	require.NoError(t, err)
	require.NotNil(t, ord)
	assert.Nil(t, ord.OfficiantID)

	cons, err := tc.consecrationRepo.GetByID(tc.ctx, consecrationEvent.ID)
	require.NoError(t, err)
	require.NotNil(t, cons)
	assert.Nil(t, cons.ConsecratorID)
	assert.Equal(t, []int64{assistant.ID}, cons.CoConsecratorIDs)

	other, err := tc.consecrationRepo.GetByID(tc.ctx, otherEvent.ID)
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Empty(t, other.CoConsecratorIDs)
}

func TestSoftDeleteNotFound(t *testing.T) {
	tc := setupTestContext(t)

	_, err := tc.maintainer.SoftDeleteClergy(tc.ctx, -1)
	require.Error(t, err)
}

// TestLineageGraphReflectsDeletion builds the graph before and after a
// deletion and checks the deleted node and its edges disappear.
func TestLineageGraphReflectsDeletion(t *testing.T) {
	tc := setupTestContext(t)

	subject := tc.createClergy(t, "Bishop")
	principal := tc.createClergy(t, "Archbishop")
	assistant := tc.createClergy(t, "Bishop")

	event, err := tc.consecrationRepo.Create(tc.ctx, models.CreateConsecrationRequest{
		ClergyID:      subject.ID,
		Date:          strPtr("1988-06-30"),
		ConsecratorID: &principal.ID,
	})
	require.NoError(t, err)
	_, _, err = tc.consecrationRepo.ReplaceCoConsecrators(tc.ctx, event.ID, []int64{assistant.ID})
	require.NoError(t, err)

	graph, err := tc.lineageService.BuildGraph(tc.ctx)
	require.NoError(t, err)

	consEdge := findEdge(graph, principal.ID, subject.ID, models.EdgeTypeConsecration)
	require.NotNil(t, consEdge)
	assert.Equal(t, "1988-06-30", consEdge.Date)

	coEdge := findEdge(graph, assistant.ID, subject.ID, models.EdgeTypeCoConsecration)
	require.NotNil(t, coEdge)
	assert.Equal(t, "1988-06-30", coEdge.Date)

	_, err = tc.maintainer.SoftDeleteClergy(tc.ctx, principal.ID)
	require.NoError(t, err)

	graph, err = tc.lineageService.BuildGraph(tc.ctx)
	require.NoError(t, err)

	assert.Nil(t, findEdge(graph, principal.ID, subject.ID, models.EdgeTypeConsecration))
	assert.NotNil(t, findEdge(graph, assistant.ID, subject.ID, models.EdgeTypeCoConsecration))

	for _, node := range graph.Nodes {
		assert.NotEqual(t, principal.ID, node.ID, "deleted clergy should not appear in the graph")
	}
}
