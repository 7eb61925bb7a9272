package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/huestream/internal/config"
)

const defaultConfigPath = "huestream.yaml"

// NewRootCmd builds the huestream command tree. Running the root command
// without a subcommand is the same as "run".
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "huestream",
		Short:         "Stream a rotating hue to a serial LED strip",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", defaultConfigPath, "path to config.yaml")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	run := newRunCmd()
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(run, newFramesCmd())
	return root
}

// Execute runs the command tree and reports whether it failed.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		log := newLogger(os.Stderr, config.Log{Level: "error"})
		log.Error().Err(err).Msg("huestream failed")
		return 1
	}
	return 0
}

// loadConfig reads --config and lets explicitly set flags override the
// file. A missing file at the default path is not an error; missing reports
// it so the caller can warn once the logger exists.
func loadConfig(cmd *cobra.Command) (cfg config.Config, missing bool, err error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err = config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return cfg, false, err
		}
		missing = true
	}

	flags := cmd.Flags()
	setString(flags, "driver", &cfg.Driver)
	setString(flags, "device", &cfg.Device)
	setInt(flags, "baud", &cfg.Baud)
	setInt(flags, "resolution", &cfg.Animation.Resolution)
	setString(flags, "preview-addr", &cfg.Preview.Addr)
	setString(flags, "log-level", &cfg.Log.Level)
	if flags.Changed("interval") {
		d, _ := flags.GetDuration("interval")
		ms, err := intervalMs(d)
		if err != nil {
			return cfg, missing, err
		}
		cfg.Animation.IntervalMs = ms
	}
	return cfg, missing, cfg.Validate()
}

// intervalMs converts --interval to whole milliseconds. A non-zero value
// below one millisecond would read as 0 and fall back to the default pacing.
func intervalMs(d time.Duration) (int, error) {
	if d < 0 || (d > 0 && d < time.Millisecond) {
		return 0, fmt.Errorf("invalid interval %s: must be 0 or at least 1ms", d)
	}
	if d%time.Millisecond != 0 {
		return 0, fmt.Errorf("invalid interval %s: must be a whole number of milliseconds", d)
	}
	return int(d / time.Millisecond), nil
}

func setString(flags *pflag.FlagSet, name string, dst *string) {
	if flags.Lookup(name) != nil && flags.Changed(name) {
		*dst, _ = flags.GetString(name)
	}
}

func setInt(flags *pflag.FlagSet, name string, dst *int) {
	if flags.Lookup(name) != nil && flags.Changed(name) {
		*dst, _ = flags.GetInt(name)
	}
}

func newLogger(w io.Writer, c config.Log) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}
	if c.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
