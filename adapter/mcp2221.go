package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/gophertribe/captouch"
	"github.com/gophertribe/captouch/cmd/captouch/console"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID command codes used by the MCP2221 I2C engine.
const (
	cmdStatusSetParams = 0x10
	cmdI2CWriteData    = 0x90
	cmdI2CReadData     = 0x91
	cmdI2CGetData      = 0x40
)

// MCP2221 drives the Microchip MCP2221(A) USB-to-I2C bridge over raw HID
// reports (64 bytes each way). It implements captouch.I2CBus.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CWriteData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.roundTrip(ctx)
	if err != nil {
		return fmt.Errorf("write to %#x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		console.Debug("adapter busy")
		return captouch.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdI2CReadData
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.roundTrip(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %#x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		console.Debug("adapter busy")
		return captouch.ErrBusBusy
	}
	// fetch the data the engine collected from the slave
	d.request[0] = cmdI2CGetData
	resetBuffer(d.response)
	err = d.roundTrip(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	err := d.roundTrip(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return decodeStatus(d.response), nil
}

// Release cancels the current I2C transfer, freeing the engine after an
// aborted transaction left it busy.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatusSetParams
	d.request[2] = 0x10 // cancel current transfer
	err := d.roundTrip(ctx)
	if err != nil {
		return nil, fmt.Errorf("bus release failed: %w", err)
	}
	return decodeStatus(d.response), nil
}

func decodeStatus(buffer []byte) *MCP2221Status {
	// bytes 9..25 of the status response describe the I2C engine state,
	// see the MCP2221 datasheet, table 3-2
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// roundTrip sends the prepared 64-byte request to the first enumerated
// MCP2221 and reads the response report back.
func (d *MCP2221) roundTrip(ctx context.Context) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() { _ = dev.Close() }()
	verbose := console.IsVerbose(ctx)
	if verbose {
		console.Printf("sending message to adapter:\n%s\n", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != len(d.request) {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != len(d.response) {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		console.Printf("read message from adapter:\n%s\n", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
