package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permits/api/internal/config"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/models"
	"github.com/stwalsh4118/permits/api/internal/seed"
)

// getTestConfig returns the database named by the DB_* environment.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "host.docker.internal"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "permits"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  2,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupSeededDatabase migrates and seeds the test database.
func setupSeededDatabase(t *testing.T) *database.Database {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, postgresTestConfig(t))
	if err != nil {
		t.Fatalf("Failed to create database connection: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))

	data, err := seed.Default()
	require.NoError(t, err)
	_, err = SeedPostgres(ctx, db, data)
	require.NoError(t, err)

	return db
}

func TestSeedPostgres_Idempotent(t *testing.T) {
	db := setupSeededDatabase(t)

	data, err := seed.Default()
	require.NoError(t, err)

	counts, err := SeedPostgres(context.Background(), db, data)
	require.NoError(t, err)
	assert.Equal(t, 5, counts.Properties)
	assert.Equal(t, 6, counts.PermitTypes)
	assert.Equal(t, 9, counts.Rules)
	assert.Equal(t, 19, counts.Goals)
}

func TestPropertyRepository_Postgres(t *testing.T) {
	db := setupSeededDatabase(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	p, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "123 Main Street", p.Address)
	assert.Equal(t, "R1", p.Zoning)

	missing, err := repo.FindByID(ctx, 999999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	results, err := repo.Search(ctx, "RIVER", MaxSearchResults)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "456 River Road", results[0].Address)

	// Wildcards in user input match literally.
	none, err := repo.Search(ctx, "%", MaxSearchResults)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPermitTypeRepository_Postgres(t *testing.T) {
	db := setupSeededDatabase(t)
	repo := NewPermitTypeRepository(db)
	ctx := context.Background()

	pt, err := repo.FindByCode(ctx, models.PermitFence)
	require.NoError(t, err)
	require.NotNil(t, pt)
	assert.Equal(t, int64(4), pt.ID)

	byID, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.NotEmpty(t, byID.RequiredDocuments)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(list), 6)
}

func TestRuleStore_Postgres(t *testing.T) {
	db := setupSeededDatabase(t)
	store := NewRuleStore(db)
	ctx := context.Background()

	rules, err := store.RulesForDistrict(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, rules, 3)

	kinds := map[models.RuleKind]bool{}
	for _, r := range rules {
		kinds[r.Kind] = true
	}
	assert.True(t, kinds[models.RuleSetback])
	assert.True(t, kinds[models.RuleHeightLimit])
	assert.True(t, kinds[models.RuleLotCoverage])

	goals, err := store.AllGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 19)
	assert.True(t, goals[0].Trigger.Always)

	reqs, err := store.RequirementsForGoal(ctx, goals[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, reqs)
}

func TestCheckRepository_Postgres(t *testing.T) {
	db := setupSeededDatabase(t)
	repo := NewCheckRepository(db)
	ctx := context.Background()

	propertyID := time.Now().UnixNano()
	first := newRecord(propertyID, time.Now().Add(-time.Minute))
	second := newRecord(propertyID, time.Now())
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))
	assert.ErrorIs(t, repo.Append(ctx, first), ErrDuplicateCheck)

	got, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, string(second.Report), string(got.Report))

	list, err := repo.ListByProperty(ctx, propertyID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestApplicationRepository_Postgres(t *testing.T) {
	db := setupSeededDatabase(t)
	_, err := db.Pool.Exec(context.Background(), "TRUNCATE permit_applications")
	require.NoError(t, err)

	testApplicationRepository(t, NewApplicationRepository(db))
}
