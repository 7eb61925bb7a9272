package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coreman2200/huestream/internal/anim"
	"github.com/coreman2200/huestream/internal/config"
	"github.com/coreman2200/huestream/internal/metrics"
	"github.com/coreman2200/huestream/internal/preview"
	"github.com/coreman2200/huestream/internal/sink"
)

func newRunCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Open the device and stream the hue rotation until it fails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, missing, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(os.Stderr, cfg.Log)
			if missing {
				path, _ := cmd.Flags().GetString("config")
				log.Warn().Str("path", path).Msg("config not found; using defaults")
			}
			return run(cmd.Context(), cfg, log)
		},
	}
	d := config.Default()
	f := c.Flags()
	f.String("driver", d.Driver, "output driver: serial | file | strip | console")
	f.StringP("device", "d", d.Device, "serial device or file to write to")
	f.Int("baud", d.Baud, "serial baud rate")
	f.Int("resolution", d.Animation.Resolution, "hue steps per rotation")
	f.Duration("interval", d.Interval(), "delay between frames")
	f.String("preview-addr", "", "serve websocket preview and /metrics on this address")
	return c
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := sink.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("close sink")
		}
	}()
	log.Info().Str("driver", cfg.Driver).Str("device", cfg.Device).Msg("sink open")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	observers := []anim.Observer{metrics.New(reg)}

	if cfg.Preview.Addr != "" {
		hub := preview.NewHub(cfg.Animation.Resolution, cfg.Driver, log.With().Str("component", "preview").Logger())
		observers = append(observers, hub)
		srv := preview.NewServer(cfg.Preview.Addr, hub, reg)
		defer srv.Close()
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("preview server stopped")
			}
		}()
	}

	a, err := anim.New(s, anim.Options{
		Resolution: cfg.Animation.Resolution,
		Interval:   time.Duration(cfg.Animation.IntervalMs) * time.Millisecond,
		Observers:  observers,
		Logger:     &log,
	})
	if err != nil {
		return err
	}
	return a.Run(ctx)
}
