package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSerial  = "serial"
	DriverFile    = "file"
	DriverStrip   = "strip"
	DriverConsole = "console"
)

type Animation struct {
	Resolution int `yaml:"resolution"`  // hue steps per rotation
	IntervalMs int `yaml:"interval_ms"` // pacing between frames, 0 means the 10ms default
}

// Strip configures the firmware emulation used by the strip and console drivers.
type Strip struct {
	SPIPort       string `yaml:"spi_port"`        // "" picks the first port
	NumPixels     int    `yaml:"num_pixels"`      // pixels latched per frame
	FreqKHz       int    `yaml:"freq_khz"`        // SPI clock for nrzled
	IdleTimeoutMs int    `yaml:"idle_timeout_ms"` // raw mode timeout
}

type Preview struct {
	Addr string `yaml:"addr"` // e.g. :8080, empty disables
}

type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // console | json
}

type Config struct {
	Driver string `yaml:"driver"` // serial | file | strip | console
	Device string `yaml:"device"` // e.g. /dev/ttyACM0
	Baud   int    `yaml:"baud"`

	Animation Animation `yaml:"animation"`
	Strip     Strip     `yaml:"strip,omitempty"`
	Preview   Preview   `yaml:"preview,omitempty"`
	Log       Log       `yaml:"log"`
}

func Default() Config {
	return Config{
		Driver: DriverSerial,
		Device: "/dev/ttyACM0",
		Baud:   115200,
		Animation: Animation{
			Resolution: 17,
			IntervalMs: 10,
		},
		Strip: Strip{
			NumPixels:     8,
			FreqKHz:       2500,
			IdleTimeoutMs: 1000,
		},
		Log: Log{Level: "info", Format: "console"},
	}
}

// Load reads path on top of Default, so absent keys keep their defaults.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.Animation.IntervalMs) * time.Millisecond
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Strip.IdleTimeoutMs) * time.Millisecond
}

func (c Config) Validate() error {
	var errs []error
	switch c.Driver {
	case DriverSerial, DriverFile:
		if c.Device == "" {
			errs = append(errs, fmt.Errorf("driver %q needs a device", c.Driver))
		}
	case DriverStrip, DriverConsole:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}
	if c.Driver == DriverSerial && c.Baud <= 0 {
		errs = append(errs, fmt.Errorf("invalid baud: %d", c.Baud))
	}
	if c.Animation.Resolution < 1 {
		errs = append(errs, fmt.Errorf("invalid resolution: %d", c.Animation.Resolution))
	}
	if c.Animation.IntervalMs < 0 {
		errs = append(errs, fmt.Errorf("invalid interval: %dms", c.Animation.IntervalMs))
	}
	if c.Driver == DriverStrip || c.Driver == DriverConsole {
		if c.Strip.NumPixels < 1 {
			errs = append(errs, fmt.Errorf("invalid strip pixel count: %d", c.Strip.NumPixels))
		}
		if c.Strip.IdleTimeoutMs <= 0 {
			errs = append(errs, fmt.Errorf("invalid strip idle timeout: %dms", c.Strip.IdleTimeoutMs))
		}
	}
	if c.Driver == DriverStrip && c.Strip.FreqKHz <= 0 {
		errs = append(errs, fmt.Errorf("invalid strip frequency: %dkHz", c.Strip.FreqKHz))
	}
	return errors.Join(errs...)
}
