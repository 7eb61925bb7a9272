package sink

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/huestream/internal/config"
	"github.com/coreman2200/huestream/internal/strip"
)

// Sink abstracts the output the animation streams into.
type Sink interface {
	io.Writer
	// Flush pushes buffered bytes out to the device.
	Flush() error
	// Close releases the device.
	Close() error
}

// Open acquires the sink selected by cfg.Driver. There is no retry: a
// missing device is an error for the caller to surface.
func Open(cfg config.Config, log zerolog.Logger) (Sink, error) {
	switch cfg.Driver {
	case config.DriverSerial:
		return OpenSerial(cfg.Device, cfg.Baud)
	case config.DriverFile:
		return OpenFile(cfg.Device)
	case config.DriverStrip:
		freq := physic.Frequency(cfg.Strip.FreqKHz) * physic.KiloHertz
		d, c, err := strip.OpenSPI(cfg.Strip.SPIPort, cfg.Strip.NumPixels, freq)
		if err != nil {
			return nil, err
		}
		return newStrip(d, c, cfg, log), nil
	case config.DriverConsole:
		return newStrip(strip.Console(cfg.Strip.NumPixels), nil, cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown driver: %q", cfg.Driver)
	}
}

func newStrip(d display.Drawer, c io.Closer, cfg config.Config, log zerolog.Logger) *strip.Strip {
	l := log.With().Str("component", "strip").Logger()
	return strip.New(d, strip.Opts{
		NumPixels:   cfg.Strip.NumPixels,
		IdleTimeout: cfg.IdleTimeout(),
		Closer:      c,
		Logger:      &l,
	})
}
