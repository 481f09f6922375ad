package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chip-table/internal/config"
	"chip-table/internal/hand"
	"chip-table/internal/ledger"
	"chip-table/internal/logging"
	"chip-table/internal/mcpserver"
	"chip-table/internal/store"
	"chip-table/internal/table"
	httptransport "chip-table/internal/transport/http"
	"chip-table/internal/ws"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.AppConfig) error {
	tableID := cfg.Server.TableID
	if tableID == "" {
		tableID = store.NewID()
	}

	bank, health, closeBank, err := newBank(ctx, cfg, tableID)
	if err != nil {
		return err
	}
	defer closeBank()

	tbl := table.New(table.Config{
		ID:          tableID,
		SeatCount:   cfg.Server.SeatCount,
		MailboxSize: cfg.Server.MailboxSize,
		BankTimeout: cfg.Server.BankTimeout,

		DepositRetryMax:  cfg.Server.DepositRetryMax,
		DepositRetryBase: cfg.Server.DepositRetryBase,
	}, bank, hand.NewRunner(hand.NewAnte(cfg.Server.Ante)))
	// Runs before closeBank so acknowledged cash-outs reach the bank.
	defer shutdownTable(tbl, cfg.Server.DrainTimeout)

	stream := ws.NewServer(tbl)
	defer stream.Close()

	r := httptransport.NewRouter(tbl, httptransport.RouterOptions{
		AdminAPIKey: cfg.Server.AdminAPIKey,
		Health:      health,
		Stream:      stream.HandleWS,
		MCP:         mcpserver.New(tbl).Handler(),
	})
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Str("table_id", tableID).Msg("http listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func shutdownTable(tbl *table.Table, timeout time.Duration) {
	tbl.Close()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := tbl.Drain(ctx); err != nil {
		log.Error().Err(err).Str("table_id", tbl.ID()).Msg("drain table failed")
	}
}

// newBank picks the Postgres ledger when a DSN is configured and the
// in-memory bank otherwise.
func newBank(ctx context.Context, cfg config.AppConfig, tableID string) (table.Bank, func(context.Context) error, func(), error) {
	if !cfg.UsesPostgres() {
		log.Warn().Int64("seed_balance", cfg.Server.SeedBalance).Msg("POSTGRES_DSN not set; using in-memory bank")
		return ledger.NewMemory(cfg.Server.SeedBalance), nil, func() {}, nil
	}
	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	l := ledger.New(st, tableID)
	l.Seed = cfg.Server.SeedBalance
	return l, st.Ping, st.Close, nil
}
