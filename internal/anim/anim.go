// Package anim drives the hue rotation: it announces itself to the strip
// firmware once and then streams one frame per step, forever.
package anim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/huestream/internal/color"
	"github.com/coreman2200/huestream/internal/protocol"
)

const (
	DefaultResolution = 17
	DefaultInterval   = 10 * time.Millisecond
)

// Sink is the exclusively owned byte stream frames are written to.
type Sink interface {
	io.Writer
	Flush() error
}

// Sleeper paces the loop. Tests swap in a fake to run without real delays.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Observer is told about every frame after it was flushed to the sink.
type Observer interface {
	ObserveFrame(step int, f color.Frame)
}

type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Options struct {
	Resolution int           // hue steps per rotation, DefaultResolution if 0
	Interval   time.Duration // delay after each frame, DefaultInterval if 0
	Sleeper    Sleeper
	Observers  []Observer
	Logger     *zerolog.Logger
}

type Animator struct {
	sink       Sink
	resolution int
	interval   time.Duration
	sleeper    Sleeper
	observers  []Observer
	log        zerolog.Logger
}

func New(sink Sink, opts Options) (*Animator, error) {
	if sink == nil {
		return nil, errors.New("nil sink")
	}
	if opts.Resolution < 0 {
		return nil, fmt.Errorf("invalid resolution: %d", opts.Resolution)
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("invalid interval: %v", opts.Interval)
	}
	a := &Animator{
		sink:       sink,
		resolution: opts.Resolution,
		interval:   opts.Interval,
		sleeper:    opts.Sleeper,
		observers:  opts.Observers,
		log:        zerolog.Nop(),
	}
	if a.resolution == 0 {
		a.resolution = DefaultResolution
	}
	if a.interval == 0 {
		a.interval = DefaultInterval
	}
	if a.sleeper == nil {
		a.sleeper = RealSleeper{}
	}
	if opts.Logger != nil {
		a.log = *opts.Logger
	}
	return a, nil
}

func (a *Animator) Resolution() int { return a.resolution }

// Run sends the initiator byte and then loops over the hue rotation until
// a write fails or ctx is done. It never returns nil.
func (a *Animator) Run(ctx context.Context) error {
	if err := protocol.WriteInitiator(a.sink); err != nil {
		return fmt.Errorf("write initiator: %w", err)
	}
	if err := a.sink.Flush(); err != nil {
		return fmt.Errorf("flush initiator: %w", err)
	}
	a.log.Info().
		Int("resolution", a.resolution).
		Dur("interval", a.interval).
		Msg("streaming hue rotation")

	for rotation := 0; ; rotation++ {
		for i := 0; i < a.resolution; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := color.Sample(i, a.resolution)
			if err := a.emit(f); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			a.log.Debug().Int("rotation", rotation).Int("step", i).Stringer("rgb", f).Msg("frame")
			for _, o := range a.observers {
				o.ObserveFrame(i, f)
			}
			if err := a.sleeper.Sleep(ctx, a.interval); err != nil {
				return err
			}
		}
	}
}

func (a *Animator) emit(f color.Frame) error {
	if err := protocol.WriteFrame(a.sink, f); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if err := a.sink.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}
