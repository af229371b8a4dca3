package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/permits/api/internal/config"
	"github.com/stwalsh4118/permits/api/internal/database"
	"github.com/stwalsh4118/permits/api/internal/logger"
	"github.com/stwalsh4118/permits/api/internal/seed"
)

// Stores bundles the repositories selected by configuration.
type Stores struct {
	Properties   PropertyRepository
	Permits      PermitTypeRepository
	Rules        RuleStore
	Checks       CheckRepository
	Applications ApplicationRepository
	closers      []func() error
}

// OpenStores builds the reference data and history stores named in
// cfg.Store. db must be non-nil when either store is postgres. Applications
// live in PostgreSQL alongside postgres reference data and in memory otherwise.
func OpenStores(ctx context.Context, cfg *config.Config, db *database.Database, log *logger.Logger) (*Stores, error) {
	if cfg.UsesPostgres() && db == nil {
		return nil, errors.New("postgres store selected without a database pool")
	}

	st := &Stores{}

	switch cfg.Store.Data {
	case config.StorePostgres:
		st.Properties = NewPropertyRepository(db)
		st.Permits = NewPermitTypeRepository(db)
		st.Rules = NewCachedRuleStore(NewRuleStore(db), cfg.Compliance.RuleCacheTTL)
		st.Applications = NewApplicationRepository(db)
	case config.StoreMemory:
		data, err := loadSeed(cfg.Store.SeedPath)
		if err != nil {
			return nil, err
		}
		mem := NewMemoryStore(data)
		st.Properties = mem
		st.Permits = mem.Permits()
		st.Rules = mem
		st.Applications = NewMemoryApplicationRepository()
		log.Info("Using in-memory reference data", map[string]interface{}{
			"jurisdiction": data.Jurisdiction,
			"properties":   len(data.Properties),
			"seed_path":    cfg.Store.SeedPath,
		})
	default:
		return nil, fmt.Errorf("unknown data store %q", cfg.Store.Data)
	}

	switch cfg.Store.Checks {
	case config.StorePostgres:
		st.Checks = NewCheckRepository(db)
	case config.StoreSQLite:
		repo, err := OpenSQLiteCheckRepository(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		st.Checks = repo
		st.closers = append(st.closers, repo.Close)
	case config.StoreDynamoDB:
		client, err := NewDynamoDBClient(ctx, cfg.Store.AWSRegion, cfg.Store.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		st.Checks = NewDynamoDBCheckRepository(client, cfg.Store.DynamoDBTable)
	case config.StoreMemory:
		st.Checks = NewMemoryCheckRepository()
	default:
		return nil, fmt.Errorf("unknown check store %q", cfg.Store.Checks)
	}

	return st, nil
}

// Close releases stores that hold their own connections.
func (s *Stores) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func loadSeed(path string) (*seed.Data, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.LoadFile(path)
}
