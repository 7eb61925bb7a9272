// Package protocol holds the byte protocol spoken to the strip firmware:
// one initiator byte, then a stream of undelimited 3-byte RGB frames.
package protocol

import (
	"io"

	"github.com/coreman2200/huestream/internal/color"
)

const (
	// Initiator switches the firmware into raw pixel mode.
	Initiator byte = 'r'
	// FrameSize is the length of one RGB frame on the wire.
	FrameSize = 3
)

func WriteInitiator(w io.Writer) error {
	return write(w, []byte{Initiator})
}

func WriteFrame(w io.Writer, f color.Frame) error {
	return write(w, []byte{f.R, f.G, f.B})
}

func write(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}
