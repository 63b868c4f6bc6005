// Package serial opens the event link port
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is a serial device carrying link frames
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered input and output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	Device      string        // e.g. "/dev/ttyUSB0", "/dev/serial0"
	Baud        int           // Line rate
	ReadTimeout time.Duration // 0 blocks until data arrives
}

// DefaultConfig returns the link defaults for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// tarmPort wraps the tarm/serial implementation
type tarmPort struct {
	port *serial.Port
	name string
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("serial: config cannot be nil")
	}
	if cfg.Device == "" {
		return nil, errors.New("serial: no device")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}

	return &tarmPort{port: port, name: cfg.Device}, nil
}

// Read returns 0, nil when the read timeout expires with no data. The
// underlying port reports that case as io.EOF, which a tty never sends.
func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (p *tarmPort) Write(b []byte) (int, error) { return p.port.Write(b) }
func (p *tarmPort) Flush() error                { return p.port.Flush() }

func (p *tarmPort) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

func (p *tarmPort) String() string { return p.name }
