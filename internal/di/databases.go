package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. advisor.db - Recommendation snapshots (never silently lost)
	advisorDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    database.NameAdvisor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize advisor database: %w", err)
	}
	container.AdvisorDB = advisorDB

	// 2. cache.db - Upstream signal responses
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    database.NameCache,
	})
	if err != nil {
		advisorDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range []*database.DB{advisorDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			advisorDB.Close()
			cacheDB.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized and schemas applied")

	return container, nil
}
