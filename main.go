package main

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/pouch/internal/config"
)

const version = "0.3.0"

// app carries configuration loaded once for whichever command runs.
type app struct {
	cfg *config.Config
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("pouch exited")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pouch",
		Short:         "Daily 3x3 inventory packing puzzle server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg.Log)
			a.cfg = cfg
			return nil
		},
		// Bare `pouch` serves, like the old single-purpose binary.
		RunE: a.runServe,
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	root.AddCommand(
		a.newServeCmd(),
		a.newSeedCmd(),
		a.newBackfillCmd(),
		a.newShowCmd(),
	)
	return root
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if strings.EqualFold(cfg.Format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
