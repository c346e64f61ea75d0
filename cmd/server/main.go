package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiwari-pos/ledger/internal/config"
	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/kiwari-pos/ledger/internal/handler"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/logger"
	"github.com/kiwari-pos/ledger/internal/persist"
	"github.com/kiwari-pos/ledger/internal/router"
	"github.com/kiwari-pos/ledger/internal/users"
	"github.com/kiwari-pos/ledger/internal/ws"
	"github.com/rs/zerolog/log"
)

const defaultAdminPassword = "admin123"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	kv, closeStore, err := persist.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	snap, err := persist.Load(ctx, kv)
	if err != nil {
		log.Fatal().Err(err).Msg("load ledger state")
	}

	l := ledger.NewFromState(snap.Ledger, ledger.WithFeatures(ledger.Features(cfg.Features)))
	dir := users.NewDirectory(snap.Users)
	saver := persist.NewSaver(kv, l, dir)

	if err := bootstrapAdmin(ctx, cfg, dir, saver); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin")
	}

	// Realtime
	ongoing := func() any { return handler.OngoingPayload(l.Ongoing()) }
	hub := ws.NewHub()
	hub.Greet(ongoing)
	go hub.Run(ctx)

	publishers := events.Fanout{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing events to kafka")
	}

	refresher := ws.NewRefresher(func() (any, time.Duration) {
		every := time.Duration(l.Settings().AutoRefresh) * time.Second
		return ongoing(), every
	}, hub)
	go refresher.Run(ctx)

	saveDone := make(chan struct{})
	go func() {
		saver.Run(ctx, cfg.Autosave)
		close(saveDone)
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, l, dir, saver, publishers, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	<-saveDone
}

// bootstrapAdmin creates the first admin account on an empty directory and
// saves it straight away.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, dir *users.Directory, saver *persist.Saver) error {
	password := cfg.AdminPassword
	if password == "" {
		password = defaultAdminPassword
	}
	created, err := dir.EnsureAdmin(cfg.AdminUsername, password)
	if err != nil || !created {
		return err
	}
	if cfg.AdminPassword == "" {
		log.Warn().Str("username", cfg.AdminUsername).Msg("created admin with the default password; change it immediately")
	} else {
		log.Info().Str("username", cfg.AdminUsername).Msg("created admin account")
	}
	return saver.Save(ctx)
}
