package ordination_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/laurel/internal/repositories/clergy"
	"github.com/Ramsey-B/laurel/internal/repositories/ordination"
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

func TestOrdinationRepository_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := ordination.NewRepository(db, getTestLogger())
	ctx := context.Background()

	subject := createTestClergy(t, db, "Priest")
	officiant := createTestClergy(t, db, "Bishop")

	created, err := repo.Create(ctx, models.CreateOrdinationRequest{
		ClergyID:    subject.ID,
		Date:        strPtr("1947-09-21"),
		OfficiantID: &officiant.ID,
		Notes:       "test ordination",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, subject.ID, created.ClergyID)
	require.NotNil(t, created.OfficiantID)
	assert.Equal(t, officiant.ID, *created.OfficiantID)
	require.NotNil(t, created.Date)
	assert.Equal(t, "1947-09-21", created.Date.Format("2006-01-02"))

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, created.ID, fetched.ID)

	updated, err := repo.Update(ctx, created.ID, models.UpdateOrdinationRequest{
		IsDoubtful: boolPtr(true),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.IsDoubtful)

	updated, err = repo.Update(ctx, created.ID, models.UpdateOrdinationRequest{
		ClearOfficiant: true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Nil(t, updated.OfficiantID)

	byClergy, err := repo.ListByClergy(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, byClergy, 1)

	err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	gone, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestOrdinationRepository_DeleteNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := ordination.NewRepository(db, getTestLogger())

	err := repo.Delete(context.Background(), -1)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestOrdinationRepository_ClearOfficiant(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := ordination.NewRepository(db, getTestLogger())
	ctx := context.Background()

	officiant := createTestClergy(t, db, "Bishop")
	first := createTestClergy(t, db, "Priest")
	second := createTestClergy(t, db, "Priest")

	for _, subject := range []*models.Clergy{first, second} {
		_, err := repo.Create(ctx, models.CreateOrdinationRequest{
			ClergyID:    subject.ID,
			OfficiantID: &officiant.ID,
		})
		require.NoError(t, err)
	}

	cleared, err := repo.ClearOfficiant(ctx, officiant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	events, err := repo.ListByClergy(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].OfficiantID)
}

func boolPtr(b bool) *bool { return &b }
