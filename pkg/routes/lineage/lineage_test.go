package lineage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clergyrepo "github.com/Ramsey-B/laurel/internal/repositories/clergy"
	consecrationrepo "github.com/Ramsey-B/laurel/internal/repositories/consecration"
	ordinationrepo "github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/lineage"
	"github.com/Ramsey-B/laurel/pkg/models"
	lineageroute "github.com/Ramsey-B/laurel/pkg/routes/lineage"
)

type fakeClergyRepo struct {
	clergyrepo.ClergyRepository
	records []models.Clergy
}

func (r *fakeClergyRepo) ListAllActive(ctx context.Context) ([]models.Clergy, error) {
	return r.records, nil
}

type fakeOrdinationRepo struct {
	ordinationrepo.OrdinationRepository
	events []models.OrdinationEvent
}

func (r *fakeOrdinationRepo) ListAll(ctx context.Context) ([]models.OrdinationEvent, error) {
	return r.events, nil
}

type fakeConsecrationRepo struct {
	consecrationrepo.ConsecrationRepository
	events []models.ConsecrationEvent
	coCons []models.CoConsecrator
}

func (r *fakeConsecrationRepo) ListAll(ctx context.Context) ([]models.ConsecrationEvent, error) {
	return r.events, nil
}

func (r *fakeConsecrationRepo) ListAllCoConsecrators(ctx context.Context) ([]models.CoConsecrator, error) {
	return r.coCons, nil
}

type fakeProjector struct {
	synced *models.LineageGraph
}

func (p *fakeProjector) SyncLineage(ctx context.Context, g *models.LineageGraph) error {
	p.synced = g
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func newTestLineageService(clergyRepo *fakeClergyRepo, ordinationRepo *fakeOrdinationRepo, consecrationRepo *fakeConsecrationRepo) *lineage.Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return lineage.NewService(clergyRepo, ordinationRepo, consecrationRepo, logger)
}

func TestSyncRebuildsProjection(t *testing.T) {
	svc := newTestLineageService(
		&fakeClergyRepo{records: []models.Clergy{
			{ID: 1, Name: "Bishop One", Rank: "Bishop"},
			{ID: 2, Name: "Bishop Two", Rank: "Bishop"},
		}},
		&fakeOrdinationRepo{events: []models.OrdinationEvent{
			{ID: 1, ClergyID: 2, OfficiantID: int64Ptr(1)},
		}},
		&fakeConsecrationRepo{},
	)
	projector := &fakeProjector{}

	e := echo.New()
	lineageroute.NewHandler(svc, projector).Register(e.Group("/api/v1/lineage"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lineage/sync", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body["nodes"])
	assert.Equal(t, 1, body["edges"])

	require.NotNil(t, projector.synced)
	assert.Len(t, projector.synced.Nodes, 2)
	require.Len(t, projector.synced.Edges, 1)
	assert.Equal(t, models.EdgeTypeOrdination, projector.synced.Edges[0].Type)
}

func TestSyncUnavailableWithoutProjector(t *testing.T) {
	svc := newTestLineageService(&fakeClergyRepo{}, &fakeOrdinationRepo{}, &fakeConsecrationRepo{})
	h := lineageroute.NewHandler(svc, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lineage/sync", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Sync(c)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, httperror.GetStatusCode(err))
}
