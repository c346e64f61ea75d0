package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/kiwari-pos/ledger/internal/config"
	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/logger"
	"github.com/kiwari-pos/ledger/internal/persist"
	"github.com/kiwari-pos/ledger/internal/users"
	"github.com/rs/zerolog/log"
)

func main() {
	// CLI flags
	username := flag.String("username", "", "Admin username")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	reset := flag.Bool("reset", false, "Discard stored menu, orders and settings and write the defaults")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Fall back to environment variables
	if *username == "" {
		*username = os.Getenv("SEED_USERNAME")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *username == "" {
		*username = "admin"
	}
	if *password == "" {
		*password = "admin123"
		log.Warn().Msg("using default password 'admin123'; change it immediately in production")
	}
	if *name == "" {
		*name = "Administrator"
	}

	if cfg.StoreDriver == persist.DriverMemory {
		log.Fatal().Msg("seeding the memory store has no effect; set STORE_DRIVER to postgres or sqlite")
	}

	ctx := context.Background()
	kv, closeStore, err := persist.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	snap, err := persist.Load(ctx, kv)
	if err != nil {
		log.Fatal().Err(err).Msg("load state")
	}

	l := ledger.NewFromState(snap.Ledger)
	if *reset {
		l = ledger.New()
		log.Info().Msg("resetting ledger to the default menu and settings")
	}

	dir := users.NewDirectory(snap.Users)
	u, err := dir.Create(*username, *name, *password, enum.UserRoleAdmin)
	switch {
	case errors.Is(err, users.ErrDuplicateUsername):
		log.Info().Str("username", *username).Msg("admin already exists, skipping")
	case err != nil:
		log.Fatal().Err(err).Msg("create admin")
	default:
		log.Info().Str("username", u.Username).Str("id", u.ID.String()).Msg("admin created")
	}

	if err := persist.NewSaver(kv, l, dir).Save(ctx); err != nil {
		log.Fatal().Err(err).Msg("save state")
	}
	log.Info().Str("store", cfg.StoreDriver).Msg("seed complete")
}
