package worker

// reporte_cron.go
// Recomputes the daily report of every open drawer on a cron schedule so a
// day is never left without a snapshot even if nobody confirms it.

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// GeneradorReportes refreshes the daily snapshot of every open drawer.
type GeneradorReportes interface {
	GenerarReportesAbiertos(ctx context.Context, fecha time.Time) (int, error)
}

// cronLogger adapts zerolog to the cron.Logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// StartReporteCron schedules gen on spec (standard 5-field cron syntax) in
// the business time zone. The scheduler stops when ctx is cancelled.
func StartReporteCron(ctx context.Context, spec string, loc *time.Location, gen GeneradorReportes) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		n, err := gen.GenerarReportesAbiertos(ctx, time.Now().In(loc))
		if err != nil {
			log.Error().Err(err).Msg("reporte_cron: failed")
			return
		}
		log.Info().Int("cajas", n).Msg("reporte_cron: daily reports refreshed")
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info().Str("spec", spec).Str("tz", loc.String()).Msg("reporte_cron: started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("reporte_cron: shutting down")
	}()
	return c, nil
}
