package sink

import (
	"fmt"

	"go.bug.st/serial"
)

type Serial struct {
	name string
	port serial.Port
}

// OpenSerial opens the tty at baud, 8N1.
func OpenSerial(name string, baud int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return &Serial{name: name, port: p}, nil
}

func (s *Serial) Write(b []byte) (int, error) {
	return s.port.Write(b)
}

// Flush blocks until the OS transmitted everything written so far.
func (s *Serial) Flush() error {
	return s.port.Drain()
}

func (s *Serial) Close() error {
	return s.port.Close()
}

func (s *Serial) String() string {
	return "serial{" + s.name + "}"
}
