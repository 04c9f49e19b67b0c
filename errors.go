package captouch

import "fmt"

// Op identifies the direction of a register transaction.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// BusError reports a failed register transaction on an addressed device.
// It carries the register the driver was targeting and the transport's
// failure reason. Drivers never retry; recovery policy belongs to callers.
type BusError struct {
	Register byte
	Op       Op
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s of register %#02x failed: %v", e.Op, e.Register, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
