package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/clearwater-ims/homestead/internal/config"
	"github.com/clearwater-ims/homestead/internal/diameter"
	"github.com/clearwater-ims/homestead/internal/logger"
	"github.com/clearwater-ims/homestead/internal/realmmanager"
	"github.com/clearwater-ims/homestead/pkg/homestead"
)

func main() {
	configPath := flag.String("config", "configs/local.yaml", "path to config yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "homestead",
		Environment: cfg.Logging.Environment,
	})

	// A real deployment supplies its own Diameter driver and DNS/SRV
	// resolver ahead of this call (see pkg/homestead.WithStack/WithResolver);
	// the wire codec and peer resolution are external collaborators per
	// spec.md §1. The noop fallbacks below let this binary boot and serve
	// the HTTP surface, cache reads included, with the HSS reachable later.
	stack := diameter.NoopStack{Realm: cfg.Diameter.DestRealm, Host: cfg.Diameter.ServerName}
	resolver := realmmanager.NoopResolver{Floor: cfg.RealmManager.ResolverFloor.Duration}

	app, err := homestead.New(cfg, homestead.WithStack(stack), homestead.WithResolver(resolver))
	if err != nil {
		log.Fatal().Err(err).Msg("homestead: failed to build app")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("homestead: listening")
		if err := app.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("homestead: shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("homestead: server error")
		}
	}

	shutdownDeadline := time.AfterFunc(30*time.Second, func() {
		log.Fatal().Msg("homestead: shutdown deadline exceeded, forcing exit")
	})
	defer shutdownDeadline.Stop()

	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("homestead: error during shutdown")
		os.Exit(1)
	}
}
