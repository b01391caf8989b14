package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/pouch/internal/daily"
	"github.com/robalobadob/pouch/internal/game"
	"github.com/robalobadob/pouch/internal/httpserver"
	"github.com/robalobadob/pouch/internal/store"
)

const initTimeout = 30 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	cfg := a.cfg

	initCtx, initCancel := context.WithTimeout(cmd.Context(), initTimeout)
	defer initCancel()

	st, err := openStore(initCtx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	resolver := daily.NewResolver(st, st, cfg.Puzzle.SeedSalt)
	if cfg.BackfillOnStart {
		n, err := resolver.Backfill(initCtx)
		if err != nil {
			return fmt.Errorf("backfill: %w", err)
		}
		log.Info().Int("fixed", n).Msg("startup backfill finished")
	}

	srv := httpserver.New(st, resolver, httpserver.Options{
		Location:       cfg.Puzzle.Location,
		Origins:        cfg.CORS.Origins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("timezone", cfg.Puzzle.Location.String()).
			Bool("seeded", cfg.Puzzle.SeedSalt != "").
			Msg("starting pouch server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	log.Info().Msg("pouch stopped")
	return nil
}

func (a *app) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the item catalog into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), initTimeout)
			defer cancel()

			st, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			seeded, err := seedCatalog(ctx, a.cfg, st)
			if err != nil {
				return err
			}
			list, err := st.ListItems(ctx)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), Good.Render(fmt.Sprintf("seeded %d items", len(list))))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), Muted.Render(fmt.Sprintf("catalog already has %d items", len(list))))
			}
			return nil
		},
	}
}

func (a *app) newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Re-derive covered cells for stored solutions that lack them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := daily.NewResolver(st, st, a.cfg.Puzzle.SeedSalt).Backfill(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), LabelValue("Backfilled", n))
			return nil
		},
	}
}

func (a *app) newShowCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the solution for a date, generating it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if date == "" {
				date = daily.DateKey(time.Now(), a.cfg.Puzzle.Location)
			} else {
				d, err := daily.ParseDate(date)
				if err != nil {
					return err
				}
				date = d
			}

			st, err := openStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			sol, err := daily.NewResolver(st, st, a.cfg.Puzzle.SeedSalt).Resolve(ctx, date)
			if err != nil {
				return err
			}
			list, err := st.ListItems(ctx)
			if err != nil {
				return err
			}
			catalog := make(map[string]game.Item, len(list))
			for _, it := range list {
				catalog[it.ID] = it
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSolution(sol, catalog))
			if err := game.Validate(sol, catalog); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), Warn.Render("inconsistent grid: "+err.Error()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "puzzle date (YYYY-MM-DD), defaults to today")
	return cmd
}
