package serialmux

import "io"

// SerialPorter is the minimal surface of a serial port. Real ports come from
// go.bug.st/serial; tests use TestableSerialPort.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}
