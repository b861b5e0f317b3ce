package legacy

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/consecration"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	database.Tx
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

type fakeDB struct {
	database.DB
	tx fakeTx
}

func (d *fakeDB) GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error) {
	return ctx, &d.tx, nil
}

type fakeClergyRepo struct {
	clergy.ClergyRepository
	active map[int64]bool
	rows   []models.LegacyClergyLineage
}

func (r *fakeClergyRepo) ExistsActive(ctx context.Context, id int64) (bool, error) {
	return r.active[id], nil
}

func (r *fakeClergyRepo) ListLegacyLineage(ctx context.Context) ([]models.LegacyClergyLineage, error) {
	return r.rows, nil
}

type fakeOrdinationRepo struct {
	ordination.OrdinationRepository
	count   int
	created []models.CreateOrdinationRequest
}

func (r *fakeOrdinationRepo) CountAll(ctx context.Context) (int, error) {
	return r.count, nil
}

func (r *fakeOrdinationRepo) Create(ctx context.Context, req models.CreateOrdinationRequest) (*models.OrdinationEvent, error) {
	r.created = append(r.created, req)
	return &models.OrdinationEvent{ID: int64(len(r.created)), ClergyID: req.ClergyID, OfficiantID: req.OfficiantID}, nil
}

type fakeConsecrationRepo struct {
	consecration.ConsecrationRepository
	count         int
	created       []models.CreateConsecrationRequest
	coConsecrator map[int64][]int64
}

func (r *fakeConsecrationRepo) CountAll(ctx context.Context) (int, error) {
	return r.count, nil
}

func (r *fakeConsecrationRepo) Create(ctx context.Context, req models.CreateConsecrationRequest) (*models.ConsecrationEvent, error) {
	r.created = append(r.created, req)
	return &models.ConsecrationEvent{ID: int64(len(r.created)), ClergyID: req.ClergyID, ConsecratorID: req.ConsecratorID}, nil
}

func (r *fakeConsecrationRepo) ReplaceCoConsecrators(ctx context.Context, eventID int64, clergyIDs []int64) (int, int, error) {
	if r.coConsecrator == nil {
		r.coConsecrator = map[int64][]int64{}
	}
	r.coConsecrator[eventID] = clergyIDs
	return len(clergyIDs), 0, nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func newTestMigrator(clergyRepo *fakeClergyRepo, ordinationRepo *fakeOrdinationRepo, consecrationRepo *fakeConsecrationRepo) (*Migrator, *fakeDB) {
	db := &fakeDB{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewMigrator(db, clergyRepo, ordinationRepo, consecrationRepo, logger), db
}

func TestParseLegacyCoConsecrators(t *testing.T) {
	ids, err := parseLegacyCoConsecrators(strPtr("[3, 5, 8]"))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 8}, ids)

	ids, err = parseLegacyCoConsecrators(nil)
	require.NoError(t, err)
	assert.Nil(t, ids)

	ids, err = parseLegacyCoConsecrators(strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseLegacyCoConsecrators(strPtr("not json"))
	require.Error(t, err)
}

func TestMigratorSkipsWhenAlreadyMigrated(t *testing.T) {
	clergyRepo := &fakeClergyRepo{active: map[int64]bool{1: true}}
	ordinationRepo := &fakeOrdinationRepo{count: 4}
	consecrationRepo := &fakeConsecrationRepo{}
	migrator, _ := newTestMigrator(clergyRepo, ordinationRepo, consecrationRepo)

	result, err := migrator.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.AlreadyMigrated)
	assert.Empty(t, ordinationRepo.created)
	assert.Empty(t, consecrationRepo.created)
}

func TestMigratorCreatesEvents(t *testing.T) {
	ordinationDate := time.Date(1947, 9, 21, 0, 0, 0, 0, time.UTC)
	consecrationDate := time.Date(1988, 6, 30, 0, 0, 0, 0, time.UTC)

	clergyRepo := &fakeClergyRepo{
		active: map[int64]bool{1: true, 2: true, 3: true, 4: true},
		rows: []models.LegacyClergyLineage{
			{
				ID:                 1,
				Name:               "Subject",
				OrdainingBishopID:  int64Ptr(2),
				DateOfOrdination:   timePtr(ordinationDate),
				ConsecratorID:      int64Ptr(2),
				DateOfConsecration: timePtr(consecrationDate),
				CoConsecrators:     strPtr("[3, 4]"),
			},
			{ID: 2, Name: "No lineage"},
		},
	}
	ordinationRepo := &fakeOrdinationRepo{}
	consecrationRepo := &fakeConsecrationRepo{}
	migrator, db := newTestMigrator(clergyRepo, ordinationRepo, consecrationRepo)

	result, err := migrator.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result.AlreadyMigrated)
	assert.Equal(t, 1, result.OrdinationsCreated)
	assert.Equal(t, 1, result.ConsecrationsCreated)
	assert.Equal(t, 2, result.CoConsecratorsCreated)

	require.Len(t, ordinationRepo.created, 1)
	assert.Equal(t, int64(1), ordinationRepo.created[0].ClergyID)
	require.NotNil(t, ordinationRepo.created[0].Date)
	assert.Equal(t, "1947-09-21", *ordinationRepo.created[0].Date)

	require.Len(t, consecrationRepo.created, 1)
	require.NotNil(t, consecrationRepo.created[0].Date)
	assert.Equal(t, "1988-06-30", *consecrationRepo.created[0].Date)
	assert.Equal(t, []int64{3, 4}, consecrationRepo.coConsecrator[1])

	assert.Equal(t, 1, db.tx.commits)
}

func TestMigratorCreatesEventsFromDateOnlyRows(t *testing.T) {
	ordinationDate := time.Date(1929, 10, 28, 0, 0, 0, 0, time.UTC)
	consecrationDate := time.Date(1976, 8, 29, 0, 0, 0, 0, time.UTC)

	clergyRepo := &fakeClergyRepo{
		active: map[int64]bool{1: true},
		rows: []models.LegacyClergyLineage{
			{
				ID:                 1,
				Name:               "Subject",
				DateOfOrdination:   timePtr(ordinationDate),
				DateOfConsecration: timePtr(consecrationDate),
			},
		},
	}
	ordinationRepo := &fakeOrdinationRepo{}
	consecrationRepo := &fakeConsecrationRepo{}
	migrator, _ := newTestMigrator(clergyRepo, ordinationRepo, consecrationRepo)

	result, err := migrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdinationsCreated)
	assert.Equal(t, 1, result.ConsecrationsCreated)

	require.Len(t, ordinationRepo.created, 1)
	assert.Nil(t, ordinationRepo.created[0].OfficiantID)
	require.NotNil(t, ordinationRepo.created[0].Date)
	assert.Equal(t, "1929-10-28", *ordinationRepo.created[0].Date)

	require.Len(t, consecrationRepo.created, 1)
	assert.Nil(t, consecrationRepo.created[0].ConsecratorID)
	require.NotNil(t, consecrationRepo.created[0].Date)
	assert.Equal(t, "1976-08-29", *consecrationRepo.created[0].Date)
}

func TestMigratorDropsDanglingReferences(t *testing.T) {
	clergyRepo := &fakeClergyRepo{
		active: map[int64]bool{1: true},
		rows: []models.LegacyClergyLineage{
			{
				ID:                1,
				Name:              "Subject",
				OrdainingBishopID: int64Ptr(99),
				ConsecratorID:     int64Ptr(98),
				CoConsecrators:    strPtr("[97]"),
			},
		},
	}
	ordinationRepo := &fakeOrdinationRepo{}
	consecrationRepo := &fakeConsecrationRepo{}
	migrator, _ := newTestMigrator(clergyRepo, ordinationRepo, consecrationRepo)

	result, err := migrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdinationsCreated)
	assert.Equal(t, 1, result.ConsecrationsCreated)
	assert.Equal(t, 0, result.CoConsecratorsCreated)

	require.Len(t, ordinationRepo.created, 1)
	assert.Nil(t, ordinationRepo.created[0].OfficiantID)
	require.Len(t, consecrationRepo.created, 1)
	assert.Nil(t, consecrationRepo.created[0].ConsecratorID)
	assert.Empty(t, consecrationRepo.coConsecrator[1])
}

func TestMigratorToleratesMalformedCoConsecrators(t *testing.T) {
	clergyRepo := &fakeClergyRepo{
		active: map[int64]bool{1: true, 2: true},
		rows: []models.LegacyClergyLineage{
			{
				ID:             1,
				Name:           "Subject",
				ConsecratorID:  int64Ptr(2),
				CoConsecrators: strPtr("{broken"),
			},
		},
	}
	ordinationRepo := &fakeOrdinationRepo{}
	consecrationRepo := &fakeConsecrationRepo{}
	migrator, _ := newTestMigrator(clergyRepo, ordinationRepo, consecrationRepo)

	result, err := migrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ConsecrationsCreated)
	assert.Equal(t, 0, result.CoConsecratorsCreated)
}
