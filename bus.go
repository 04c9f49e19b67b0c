package captouch

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the transport contract drivers are built on. Acquisition and
// lifecycle of the underlying bus (device file, adapter, clock speed) belong
// to the caller; drivers only borrow it and never close it.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}
