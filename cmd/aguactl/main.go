// aguactl is the administration CLI: seeds a new deployment, refreshes the
// daily cash reports and checks the reserved concepts.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"aguabill/internal/app"
	"aguabill/internal/config"
	"aguabill/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "aguactl",
	Short:         "Herramientas de administración de aguabill",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log de depuración")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// entorno is the shared state of every subcommand.
type entorno struct {
	cfg *config.Config
	db  *gorm.DB
	rdb *redis.Client
	svc *app.Services
}

// conectar loads config and opens the database. Redis is optional: without
// it no jobs are enqueued.
func conectar(ctx context.Context, conRedis bool) (*entorno, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBAutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	e := &entorno{cfg: cfg, db: db}
	if conRedis {
		rdb, err := infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, no se encolarán trabajos")
		} else {
			e.rdb = rdb
		}
	}
	e.svc = app.New(cfg, db, e.rdb)
	return e, nil
}
