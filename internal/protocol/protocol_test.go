package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/coreman2200/huestream/internal/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

type brokenWriter struct{ err error }

func (w brokenWriter) Write(p []byte) (int, error) { return 0, w.err }

func TestWriteStream(t *testing.T) {
	buf := bytes.Buffer{}
	require.NoError(t, WriteInitiator(&buf))
	require.NoError(t, WriteFrame(&buf, color.Frame{R: 230, G: 81, B: 0}))
	require.NoError(t, WriteFrame(&buf, color.Frame{R: 0, G: 0, B: 255}))

	assert.Equal(t, []byte{'r', 230, 81, 0, 0, 0, 255}, buf.Bytes())
}

func TestWriteErrors(t *testing.T) {
	err := WriteFrame(shortWriter{}, color.Frame{})
	assert.ErrorIs(t, err, io.ErrShortWrite)

	gone := errors.New("device gone")
	err = WriteInitiator(brokenWriter{gone})
	assert.ErrorIs(t, err, gone)
}
