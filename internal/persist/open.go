package persist

import (
	"context"
	"fmt"

	"github.com/kiwari-pos/ledger/internal/config"
	"github.com/kiwari-pos/ledger/internal/store"
	"github.com/kiwari-pos/ledger/internal/store/postgres"
	"github.com/kiwari-pos/ledger/internal/store/sqlite"
	"github.com/rs/zerolog/log"
)

// Store drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects the backend named by cfg.StoreDriver. On success the
// returned func releases it.
func Open(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	switch cfg.StoreDriver {
	case DriverMemory, "":
		log.Warn().Msg("using in-memory store; state is lost on restart")
		return store.NewMemory(), func() {}, nil

	case DriverPostgres:
		s, pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("connected to postgres store")
		return s, pool.Close, nil

	case DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("close sqlite store")
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
