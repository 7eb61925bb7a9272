package strip

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	hue "github.com/coreman2200/huestream/internal/color"
	"github.com/coreman2200/huestream/internal/protocol"
)

// fakeDrawer keeps every drawn row of pixels.
type fakeDrawer struct {
	width  int
	frames [][]color.NRGBA
	halted bool
	err    error
}

func (d *fakeDrawer) String() string          { return "fake" }
func (d *fakeDrawer) Halt() error             { d.halted = true; return nil }
func (d *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, d.width, 1) }

func (d *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.err != nil {
		return d.err
	}
	row := make([]color.NRGBA, r.Dx())
	for x := range row {
		row[x] = color.NRGBAModel.Convert(src.At(sp.X+x, sp.Y)).(color.NRGBA)
	}
	d.frames = append(d.frames, row)
	return nil
}

func (d *fakeDrawer) last() []color.NRGBA { return d.frames[len(d.frames)-1] }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStrip(n int) (*Strip, *fakeDrawer, *fakeClock) {
	d := &fakeDrawer{width: n}
	clk := &fakeClock{t: time.Unix(0, 0)}
	s := New(d, Opts{NumPixels: n, IdleTimeout: time.Second, Now: clk.Now})
	return s, d, clk
}

func stream(frames ...hue.Frame) []byte {
	b := []byte{protocol.Initiator}
	for _, f := range frames {
		b = append(b, f.Bytes()...)
	}
	return b
}

func TestStripLatchesFullPixelSet(t *testing.T) {
	s, d, _ := newTestStrip(8)
	rot := hue.Rotation(17)

	n, err := s.Write(stream(rot[:8]...))
	require.NoError(t, err)
	assert.Equal(t, 1+8*3, n)
	assert.Equal(t, Raw, s.Mode())
	assert.Equal(t, 1, s.Latched())
	require.Len(t, d.frames, 1)

	for i, px := range d.last() {
		assert.Equal(t, rot[i].NRGBA(), px, "pixel %d", i)
	}
}

func TestStripIgnoresBytesBeforeInitiator(t *testing.T) {
	s, d, _ := newTestStrip(1)

	_, err := s.Write([]byte{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, Idle, s.Mode())
	assert.Empty(t, d.frames)

	_, err = s.Write([]byte{9, 'r', 230, 0, 0})
	require.NoError(t, err)
	require.Len(t, d.frames, 1)
	assert.Equal(t, color.NRGBA{R: 230, A: 255}, d.last()[0])
}

func TestStripAssemblesSplitWrites(t *testing.T) {
	s, d, _ := newTestStrip(2)

	for _, b := range []byte{'r', 10, 20, 30, 40, 50} {
		_, err := s.Write([]byte{b})
		require.NoError(t, err)
	}
	assert.Empty(t, d.frames)
	_, err := s.Write([]byte{60})
	require.NoError(t, err)

	require.Len(t, d.frames, 1)
	assert.Equal(t, []color.NRGBA{
		{R: 10, G: 20, B: 30, A: 255},
		{R: 40, G: 50, B: 60, A: 255},
	}, d.last())
}

func TestStripIdleTimeoutResets(t *testing.T) {
	s, d, clk := newTestStrip(2)

	_, err := s.Write([]byte{'r', 1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Raw, s.Mode())

	clk.Advance(1500 * time.Millisecond)
	// after the timeout these bytes arrive in idle mode and are dropped
	_, err = s.Write([]byte{5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	assert.Equal(t, Idle, s.Mode())
	assert.Equal(t, 0, s.Latched())

	// the reset blanked the strip
	require.Len(t, d.frames, 1)
	assert.Equal(t, []color.NRGBA{{A: 255}, {A: 255}}, d.last())
	assert.Equal(t, make([]hue.Frame, 2), s.Pixels())

	// a fresh initiator starts over from pixel 0
	_, err = s.Write([]byte{'r', 1, 1, 1, 2, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Latched())
	assert.Equal(t, color.NRGBA{R: 1, G: 1, B: 1, A: 255}, d.last()[0])
}

func TestStripStaysRawWithinTimeout(t *testing.T) {
	s, _, clk := newTestStrip(1)
	_, err := s.Write([]byte{'r'})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		clk.Advance(10 * time.Millisecond)
		_, err := s.Write([]byte{byte(i), 0, 0})
		require.NoError(t, err)
	}
	assert.Equal(t, Raw, s.Mode())
	assert.Equal(t, 10, s.Latched())
}

func TestStripDrawError(t *testing.T) {
	s, d, _ := newTestStrip(1)
	d.err = errors.New("spi tx failed")
	_, err := s.Write([]byte{'r', 1, 2, 3})
	assert.ErrorIs(t, err, d.err)
}

func TestStripClose(t *testing.T) {
	s, d, _ := newTestStrip(1)
	_, err := s.Write([]byte{'r', 1, 2, 3})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.True(t, d.halted)
	assert.Equal(t, color.NRGBA{A: 255}, d.last()[0])
	require.NoError(t, s.Close())

	_, err = s.Write([]byte{'r'})
	assert.Error(t, err)
}

func TestStripOverSPI(t *testing.T) {
	buf := bytes.Buffer{}
	drv, err := NewSPIDrawer(spitest.NewRecordRaw(&buf), 8, 2500*physic.KiloHertz)
	require.NoError(t, err)
	if got, expected := drv.String(), "nrzled{recordraw}"; got != expected {
		t.Fatalf("\nGot:  %s\nWant: %s\n", got, expected)
	}
	halted := buf.Len()

	s := New(drv, Opts{NumPixels: 8})
	_, err = s.Write(stream(hue.Rotation(8)...))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Latched())
	assert.Greater(t, buf.Len(), halted)
}
