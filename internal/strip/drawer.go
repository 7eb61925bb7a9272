package strip

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// OpenSPI initializes the host and returns a WS2812 drawer on the given SPI
// port ("" for the first one). The returned closer releases the port.
func OpenSPI(port string, numPixels int, freq physic.Frequency) (display.Drawer, io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	d, err := NewSPIDrawer(p, numPixels, freq)
	if err != nil {
		_ = p.Close()
		return nil, nil, err
	}
	return d, p, nil
}

// NewSPIDrawer wraps an already opened SPI connection.
func NewSPIDrawer(p spi.Port, numPixels int, freq physic.Frequency) (*nrzled.Dev, error) {
	o := nrzled.Opts{
		NumPixels: numPixels,
		Channels:  3,
		Freq:      freq,
	}
	d, err := nrzled.NewSPI(p, &o)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := d.Halt(); err != nil {
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	return d, nil
}

// Console returns a drawer printing the pixels as colored blocks on stdout.
func Console(numPixels int) display.Drawer {
	return screen1d.New(&screen1d.Opts{X: numPixels})
}
