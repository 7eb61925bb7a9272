package color

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// Saturation and Value are fixed for the hue rotation.
	Saturation = 1.0
	Value      = 0.9
)

// Frame is one RGB sample as it goes out on the wire.
type Frame struct {
	R byte `json:"r"`
	G byte `json:"g"`
	B byte `json:"b"`
}

// HSV converts h in [0,1), s and v in [0,1] to a Frame. Each channel is
// scaled by 256 and floored.
func HSV(h, s, v float64) Frame {
	c := hsv(h, s, v)
	return Frame{
		R: toByte(c.R),
		G: toByte(c.G),
		B: toByte(c.B),
	}
}

// hsv splits the hue into six sectors on h*6 directly. Going through degrees
// (colorful.Hsv) rounds differently and moves some floored channels by one
// at resolutions like 36 or 72.
func hsv(h, s, v float64) colorful.Color {
	if s == 0 {
		return colorful.Color{R: v, G: v, B: v}
	}
	h6 := h * 6.0
	i := int(h6)
	f := h6 - float64(i)
	// explicit conversions keep the compiler from fusing into FMA
	p := v * float64(1.0-s)
	q := v * float64(1.0-float64(s*f))
	t := v * float64(1.0-float64(s*float64(1.0-f)))
	switch i % 6 {
	case 0:
		return colorful.Color{R: v, G: t, B: p}
	case 1:
		return colorful.Color{R: q, G: v, B: p}
	case 2:
		return colorful.Color{R: p, G: v, B: t}
	case 3:
		return colorful.Color{R: p, G: q, B: v}
	case 4:
		return colorful.Color{R: t, G: p, B: v}
	default:
		return colorful.Color{R: v, G: p, B: q}
	}
}

// Sample returns the frame for hue step i of a rotation with res steps.
func Sample(i, res int) Frame {
	return HSV(float64(i)/float64(res), Saturation, Value)
}

// Rotation returns every frame of one full hue rotation in step order.
func Rotation(res int) []Frame {
	out := make([]Frame, 0, res)
	for i := 0; i < res; i++ {
		out = append(out, Sample(i, res))
	}
	return out
}

func toByte(ch float64) byte {
	v := math.Floor(ch * 256)
	if v < 0 {
		return 0
	}
	// only reachable with v == 1.0
	if v > 255 {
		return 255
	}
	return byte(v)
}

func (f Frame) Bytes() []byte {
	return []byte{f.R, f.G, f.B}
}

func (f Frame) NRGBA() color.NRGBA {
	return color.NRGBA{R: f.R, G: f.G, B: f.B, A: 255}
}

func (f Frame) String() string {
	return fmt.Sprintf("#%02x%02x%02x", f.R, f.G, f.B)
}
