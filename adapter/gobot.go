package adapter

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"
)

// GobotBus exposes a gobot i2c adaptor (raspi, nanopi, ...) as a
// captouch.I2CBus. Connections are opened lazily per device address and
// cached until Release.
type GobotBus struct {
	mx        sync.Mutex
	connector i2c.Connector
	bus       int
	conns     map[byte]i2c.Connection
}

// NewGobotBus wraps the given connector. A negative bus number selects the
// platform default.
func NewGobotBus(connector i2c.Connector, bus int) *GobotBus {
	if bus < 0 {
		bus = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector: connector,
		bus:       bus,
		conns:     make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c device %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to i2c device %#x: %d", address, n)
	}
	return nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c device %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from i2c device %#x: %d", address, n)
	}
	return nil
}

// Release closes all cached device connections.
func (b *GobotBus) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %#x: %w", addr, err)
		}
		delete(b.conns, addr)
	}
	return firstErr
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not get i2c connection to %#x on bus %d: %w", address, b.bus, err)
	}
	b.conns[address] = conn
	return conn, nil
}
