package report

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// Serial writes each line CRLF-terminated to a serial port, the same way
// the robot's microcontroller console prints.
type Serial struct {
	mu  sync.Mutex
	w   io.WriteCloser
	log *slog.Logger
}

// OpenSerial opens portName at baud, 8N1.
func OpenSerial(portName string, baud int, log *slog.Logger) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Info("serial report port opened", "port", portName, "baud", baud)
	return NewSerial(port, log), nil
}

// NewSerial wraps an already open writer.
func NewSerial(w io.WriteCloser, log *slog.Logger) *Serial {
	return &Serial{w: w, log: log}
}

func (s *Serial) Report(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, msg+"\r\n"); err != nil {
		s.log.Warn("serial report write failed", "err", err)
	}
}

// Close closes the port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
