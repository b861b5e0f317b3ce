package consecration_test

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
	"github.com/Ramsey-B/laurel/pkg/database"
	"github.com/Ramsey-B/laurel/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
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
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

func createTestClergy(t *testing.T, db database.DB, rank string) *models.Clergy {
	t.Helper()
	repo := clergy.NewRepository(db, getTestLogger())
	created, err := repo.Create(context.Background(), models.CreateClergyRequest{
		Name: rank + " " + uuid.NewString(),
		Rank: rank,
	})
	require.NoError(t, err)
	return created
}

func strPtr(s string) *string { return &s }

func TestConsecrationRepository_CRUDWithCoConsecrators(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := consecration.NewRepository(db, getTestLogger())
	ctx := context.Background()

	subject := createTestClergy(t, db, "Bishop")
	principal := createTestClergy(t, db, "Archbishop")
	assistant := createTestClergy(t, db, "Bishop")
	assistantTwo := createTestClergy(t, db, "Bishop")

	created, err := repo.Create(ctx, models.CreateConsecrationRequest{
		ClergyID:      subject.ID,
		Date:          strPtr("1988-06-30"),
		ConsecratorID: &principal.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, subject.ID, created.ClergyID)
	require.NotNil(t, created.Date)
	assert.Equal(t, "1988-06-30", created.Date.Format("2006-01-02"))

	added, removed, err := repo.ReplaceCoConsecrators(ctx, created.ID, []int64{assistant.ID, assistantTwo.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, removed)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.ElementsMatch(t, []int64{assistant.ID, assistantTwo.ID}, fetched.CoConsecratorIDs)

	// replacing computes the set difference
	added, removed, err = repo.ReplaceCoConsecrators(ctx, created.ID, []int64{assistant.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, removed)

	ids, err := repo.GetCoConsecrators(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{assistant.ID}, ids)

	err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	gone, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// co-consecrator rows cascade with the event
	ids, err = repo.GetCoConsecrators(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestConsecrationRepository_ClearConsecrator(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := consecration.NewRepository(db, getTestLogger())
	ctx := context.Background()

	subject := createTestClergy(t, db, "Bishop")
	principal := createTestClergy(t, db, "Archbishop")

	created, err := repo.Create(ctx, models.CreateConsecrationRequest{
		ClergyID:      subject.ID,
		ConsecratorID: &principal.ID,
	})
	require.NoError(t, err)

	cleared, err := repo.ClearConsecrator(ctx, principal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Nil(t, fetched.ConsecratorID)
}

func TestConsecrationRepository_DeleteCoConsecratorsByClergy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := consecration.NewRepository(db, getTestLogger())
	ctx := context.Background()

	subject := createTestClergy(t, db, "Bishop")
	assistant := createTestClergy(t, db, "Bishop")
	other := createTestClergy(t, db, "Bishop")

	created, err := repo.Create(ctx, models.CreateConsecrationRequest{
		ClergyID: subject.ID,
	})
	require.NoError(t, err)
	_, _, err = repo.ReplaceCoConsecrators(ctx, created.ID, []int64{assistant.ID, other.ID})
	require.NoError(t, err)

	deleted, err := repo.DeleteCoConsecratorsByClergy(ctx, assistant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	ids, err := repo.GetCoConsecrators(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{other.ID}, ids)
}
