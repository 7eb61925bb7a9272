// Package strip emulates the NeoPixel firmware that sits on the other end
// of the serial line. It decodes the byte stream exactly like the
// microcontroller does and draws the result on a periph display.Drawer,
// which is either a real WS2812 strip over SPI or the terminal.
//
// Firmware state machine:
//
//	idle --'r'--> raw
//	raw  --no byte for IdleTimeout--> idle (pixels cleared)
//
// In raw mode every 3 bytes form the next pixel (RGB). Once NumPixels
// pixels have been received they are latched to the strip together.
package strip

import (
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"

	"github.com/coreman2200/huestream/internal/color"
	"github.com/coreman2200/huestream/internal/protocol"
)

const (
	DefaultNumPixels   = 8
	DefaultIdleTimeout = time.Second
)

type Mode int

const (
	Idle Mode = iota
	Raw
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Raw:
		return "raw"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

type Opts struct {
	NumPixels   int
	IdleTimeout time.Duration
	// Closer is closed after the drawer is halted, e.g. the SPI port.
	Closer io.Closer
	Logger *zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Strip struct {
	mu     sync.Mutex
	drawer display.Drawer
	closer io.Closer
	log    zerolog.Logger
	now    func() time.Time

	numPixels   int
	idleTimeout time.Duration

	mode    Mode
	pending [protocol.FrameSize]byte
	npend   int
	pixels  []color.Frame
	count   int
	last    time.Time
	latched int
	closed  bool
}

func New(d display.Drawer, opts Opts) *Strip {
	s := &Strip{
		drawer:      d,
		closer:      opts.Closer,
		log:         zerolog.Nop(),
		now:         opts.Now,
		numPixels:   opts.NumPixels,
		idleTimeout: opts.IdleTimeout,
	}
	if s.numPixels <= 0 {
		s.numPixels = DefaultNumPixels
	}
	if s.idleTimeout <= 0 {
		s.idleTimeout = DefaultIdleTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	s.pixels = make([]color.Frame, s.numPixels)
	return s
}

// Write feeds received bytes through the firmware state machine. It only
// fails when drawing to the strip fails.
func (s *Strip) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("strip closed")
	}
	now := s.now()
	if s.mode == Raw && now.Sub(s.last) > s.idleTimeout {
		s.log.Debug().Dur("idle", now.Sub(s.last)).Msg("exiting raw mode, returning to idle")
		if err := s.reset(); err != nil {
			return 0, err
		}
	}
	s.last = now

	for i, b := range p {
		if s.mode == Idle {
			if b == protocol.Initiator {
				s.log.Debug().Msg("entering raw mode")
				s.mode = Raw
			}
			continue
		}
		s.pending[s.npend] = b
		s.npend++
		if s.npend < protocol.FrameSize {
			continue
		}
		s.npend = 0
		s.pixels[s.count] = color.Frame{R: s.pending[0], G: s.pending[1], B: s.pending[2]}
		s.count++
		if s.count == s.numPixels {
			s.count = 0
			if err := s.draw(); err != nil {
				return i + 1, err
			}
			s.latched++
		}
	}
	return len(p), nil
}

// Flush is a no-op, pixels are latched as soon as a full set arrived.
func (s *Strip) Flush() error { return nil }

// Close blanks the strip and halts the drawer.
func (s *Strip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.reset()
	if herr := s.drawer.Halt(); err == nil {
		err = herr
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Strip) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Latched returns how many complete pixel sets were drawn.
func (s *Strip) Latched() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched
}

// Pixels returns a copy of the pixel buffer.
func (s *Strip) Pixels() []color.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]color.Frame(nil), s.pixels...)
}

func (s *Strip) String() string {
	return fmt.Sprintf("strip{%s}", s.drawer)
}

// reset drops partial data and blanks the strip. Callers hold mu.
func (s *Strip) reset() error {
	s.mode = Idle
	s.npend = 0
	s.count = 0
	for i := range s.pixels {
		s.pixels[i] = color.Frame{}
	}
	return s.draw()
}

func (s *Strip) draw() error {
	im := image.NewNRGBA(image.Rect(0, 0, s.numPixels, 1))
	for x, p := range s.pixels {
		im.SetNRGBA(x, 0, p.NRGBA())
	}
	if err := s.drawer.Draw(s.drawer.Bounds(), im, image.Point{}); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}
