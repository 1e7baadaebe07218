package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"hemostats/internal/config"
	distHnd "hemostats/internal/distribution/handler"
	"hemostats/internal/distribution/service"
	"hemostats/internal/fetcher"
	"hemostats/internal/insights"
	"hemostats/internal/poles"
	"hemostats/internal/store"
	serverhttp "hemostats/server/http"
)

func main() {
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		runtime.GOMAXPROCS(runtime.NumCPU())
	}

	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	table, err := poles.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("pole reference table")
	}

	st := store.New()
	svc := service.New(table)
	fetch := fetcher.New(cfg.SheetURL, cfg.FetchTimeout)
	ai := insights.New(cfg.GeminiAPIKey, cfg.GeminiModel, logger)

	dist := distHnd.New(cfg, logger, st, svc, fetch, ai)
	r := serverhttp.NewRouter(cfg, logger, dist)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	logger.Info().Str("addr", cfg.Addr()).Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// load the sheet once at startup so the dashboard has data before the
	// first manual refresh
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+10*time.Second)
		defer cancel()
		text, err := fetch.Fetch(ctx)
		if err != nil {
			st.SetError(err, "sheet")
			logger.Warn().Err(err).Msg("initial sheet fetch failed")
			return
		}
		rows, err := svc.IngestText(text)
		if err != nil {
			st.SetError(err, "sheet")
			logger.Warn().Err(err).Msg("initial sheet ingest failed")
			return
		}
		st.SetRows(rows, "sheet")
		logger.Info().Int("rows", len(rows)).Msg("initial sync done")
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	logger.Info().Msg("bye")
}
