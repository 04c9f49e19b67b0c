package touch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gophertribe/captouch"
)

// DefaultAddress is the only I2C address the CAP1203 responds to.
const DefaultAddress = 0x28

// ProductID is the fixed content of the product ID register (0xFD).
const ProductID = 0x6D

// Register map (per datasheet)
const (
	regMainControl            byte = 0x00
	regGeneralStatus          byte = 0x02
	regSensorInputStatus      byte = 0x03
	regNoiseFlagStatus        byte = 0x0A
	regSensorInput1DeltaCount byte = 0x10
	regSensorInput2DeltaCount byte = 0x11
	regSensorInput3DeltaCount byte = 0x12
	regSensitivityControl     byte = 0x1F
	regConfig                 byte = 0x20
	regSensorInputEnable      byte = 0x21
	regSensorInputConfig      byte = 0x22
	regSensorInputConfig2     byte = 0x23
	regAveragingAndSample     byte = 0x24
	regCalibrationActivate    byte = 0x26
	regInterruptEnable        byte = 0x27
	regRepeatRateEnable       byte = 0x28
	regMultipleTouchConfig    byte = 0x2A
	regMultipleTouchPattern   byte = 0x2D
	regBaseCountOut           byte = 0x2E
	regRecalibrationConfig    byte = 0x2F
	regSensor1InputThresh     byte = 0x30
	regSensor2InputThresh     byte = 0x31
	regSensor3InputThresh     byte = 0x32
	regStandbyChannel         byte = 0x40
	regStandbyConfig          byte = 0x41
	regStandbySensitivity     byte = 0x42
	regStandbyThresh          byte = 0x43
	regConfig2                byte = 0x44
	regPowerButton            byte = 0x60
	regPowerButtonConfig      byte = 0x61
	regProductID              byte = 0xFD
	regManufacturerID         byte = 0xFE
	regRevision               byte = 0xFF
)

// Bit positions within the registers above.
const (
	// MAIN_CONTROL: INT (bit 0) is the interrupt latch, cleared by writing 0.
	mainControlIntIndex = 0
	// GENERAL_STATUS flags
	generalStatusTouchIndex    = 0
	generalStatusPwrIndex      = 4
	generalStatusAcalFailIndex = 5
	generalStatusBcOutIndex    = 6
	// SENSITIVITY_CONTROL: DELTA_SENSE on bits [6:4]
	sensitivityIndex = 4
	sensitivityWidth = 3
	// pad bit fields mirror each other in status, enable and power button registers
	padFieldIndex = 0
	padFieldWidth = 3
	// POWER_BUTTON_CONFIG: PWR_TIME on bits [1:0], PWR_EN on bit 2
	powerTimeIndex   = 0
	powerTimeWidth   = 2
	powerEnableIndex = 2
)

// Pad is a set over the three capacitive pads of the slider. The bit layout
// matches the sensor input status and interrupt enable registers (CS1..CS3).
type Pad byte

const (
	PadLeft Pad = 1 << iota
	PadCenter
	PadRight
)

// AllPads selects every pad of the slider.
const AllPads = PadLeft | PadCenter | PadRight

// NoPads is the empty pad set.
const NoPads Pad = 0

// Contains reports whether every pad of other is part of the set.
func (p Pad) Contains(other Pad) bool {
	return other != NoPads && p&other == other
}

// Union returns the set of pads present in either set.
func (p Pad) Union(other Pad) Pad {
	return p | other
}

// Intersect returns the set of pads present in both sets.
func (p Pad) Intersect(other Pad) Pad {
	return p & other
}

// IsEmpty reports whether no pad is part of the set.
func (p Pad) IsEmpty() bool {
	return p&AllPads == NoPads
}

func (p Pad) String() string {
	if p.IsEmpty() {
		return "none"
	}
	var names []string
	if p&PadLeft != 0 {
		names = append(names, "left")
	}
	if p&PadCenter != 0 {
		names = append(names, "center")
	}
	if p&PadRight != 0 {
		names = append(names, "right")
	}
	return strings.Join(names, "+")
}

// Sensitivity is the DELTA_SENSE multiplier. Encoded values descend from
// x128 at code 0 to x1 at code 7; the chip powers up at x32, the driver
// default (Configure) is x2.
type Sensitivity byte

const (
	SensitivityX128 Sensitivity = iota
	SensitivityX64
	SensitivityX32
	SensitivityX16
	SensitivityX8
	SensitivityX4
	SensitivityX2
	SensitivityX1
)

// Multiplier returns the sensitivity as a plain factor (1..128).
func (s Sensitivity) Multiplier() int {
	return 128 >> s
}

func (s Sensitivity) String() string {
	switch s {
	case SensitivityX128:
		return "x128"
	case SensitivityX64:
		return "x64"
	case SensitivityX32:
		return "x32"
	case SensitivityX16:
		return "x16"
	case SensitivityX8:
		return "x8"
	case SensitivityX4:
		return "x4"
	case SensitivityX2:
		return "x2"
	default:
		return "x1"
	}
}

// PowerTime is the hold time of the power button feature.
type PowerTime byte

const (
	PowerTime280ms PowerTime = iota
	PowerTime560ms
	PowerTime1120ms
	PowerTime2240ms
)

// Duration returns the hold threshold as a time.Duration.
func (t PowerTime) Duration() time.Duration {
	return 280 * time.Millisecond << t
}

func (t PowerTime) String() string {
	return t.Duration().String()
}

// CAP1203 represents a Microchip CAP1203 three-pad capacitive touch
// controller. See: https://ww1.microchip.com/downloads/en/DeviceDoc/00001572B.pdf
//
// The driver is stateless between calls; all state lives in the chip's
// registers. A single mutex serializes multi-transaction sequences
// (read-modify-write, read-then-clear) so one instance can be shared.
type CAP1203 struct {
	mx        sync.Mutex
	transport captouch.I2CBus
	address   byte
	buf       []byte
}

type CAP1203Config struct {
	Address byte
}

type CAP1203Option func(*CAP1203Config)

// WithAddress overrides the device address. The CAP1203 itself is fixed at
// 0x28; the option exists for bus multiplexers and future chip revisions.
func WithAddress(address byte) CAP1203Option {
	return func(c *CAP1203Config) {
		c.Address = address
	}
}

// NewCAP1203 creates a driver on top of the given transport. No I/O is
// performed; use IsConnected or Configure to talk to the chip.
func NewCAP1203(transport captouch.I2CBus, opts ...CAP1203Option) *CAP1203 {
	config := CAP1203Config{Address: DefaultAddress}
	for _, opt := range opts {
		opt(&config)
	}
	return &CAP1203{
		transport: transport,
		address:   config.Address,
		buf:       make([]byte, 1),
	}
}

// IsConnected probes the product ID register to check communication with
// the sensor, retrying a few times to ride out transient bus errors.
func (s *CAP1203) IsConnected(ctx context.Context) bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	for i := 0; i < 5; i++ {
		id, err := s.readRegister(ctx, regProductID)
		if err != nil {
			continue
		}
		return id == ProductID
	}
	return false
}

// Configure applies the driver defaults: x2 sensitivity, interrupts on all
// pads, interrupt latch cleared.
func (s *CAP1203) Configure(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	err := s.updateRegister(ctx, regSensitivityControl, byte(SensitivityX2), sensitivityIndex, sensitivityWidth)
	if err != nil {
		return err
	}
	err = s.updateRegister(ctx, regInterruptEnable, byte(AllPads), padFieldIndex, padFieldWidth)
	if err != nil {
		return err
	}
	return s.clearInterrupt(ctx)
}

// ProductID reads the product identification register (0x6D for CAP1203).
func (s *CAP1203) ProductID(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.readRegister(ctx, regProductID)
}

// ManufacturerID reads the manufacturer identification register.
func (s *CAP1203) ManufacturerID(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.readRegister(ctx, regManufacturerID)
}

// Revision reads the silicon revision register.
func (s *CAP1203) Revision(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.readRegister(ctx, regRevision)
}

// CheckTouched returns the currently latched pad set without clearing the
// interrupt condition. Safe to call repeatedly while polling.
func (s *CAP1203) CheckTouched(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.checkTouched(ctx)
}

// GetTouched returns the latched pad set and acknowledges the interrupt,
// letting a new touch event re-trigger interrupt signaling. If the status
// read fails no write is issued.
func (s *CAP1203) GetTouched(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	pads, err := s.checkTouched(ctx)
	if err != nil {
		return NoPads, err
	}
	if !pads.IsEmpty() {
		if err = s.clearInterrupt(ctx); err != nil {
			return NoPads, err
		}
	}
	return pads, nil
}

// IsTouched reports whether any pad is currently latched as touched. Pure
// read; the interrupt latch is left untouched.
func (s *CAP1203) IsTouched(ctx context.Context) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	pads, err := s.checkTouched(ctx)
	if err != nil {
		return false, err
	}
	return !pads.IsEmpty(), nil
}

// IsLeftTouched checks the left pad and clears the interrupt when touched.
func (s *CAP1203) IsLeftTouched(ctx context.Context) (bool, error) {
	return s.isPadTouched(ctx, PadLeft)
}

// IsCenterTouched checks the center pad and clears the interrupt when touched.
func (s *CAP1203) IsCenterTouched(ctx context.Context) (bool, error) {
	return s.isPadTouched(ctx, PadCenter)
}

// IsRightTouched checks the right pad and clears the interrupt when touched.
func (s *CAP1203) IsRightTouched(ctx context.Context) (bool, error) {
	return s.isPadTouched(ctx, PadRight)
}

func (s *CAP1203) isPadTouched(ctx context.Context, pad Pad) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	pads, err := s.checkTouched(ctx)
	if err != nil {
		return false, err
	}
	if !pads.Contains(pad) {
		return false, nil
	}
	if err = s.clearInterrupt(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ClearInterrupt acknowledges the interrupt latch by writing 0 to the INT
// bit of the main control register.
func (s *CAP1203) ClearInterrupt(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.clearInterrupt(ctx)
}

// SetInterruptSetting enables interrupt generation for exactly the given
// pad set; bits of pads outside the set are cleared. The pad field layout
// mirrors the status register.
func (s *CAP1203) SetInterruptSetting(ctx context.Context, pads Pad) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.updateRegister(ctx, regInterruptEnable, byte(pads), padFieldIndex, padFieldWidth)
}

// GetInterruptSetting returns the pad set with interrupt generation enabled.
func (s *CAP1203) GetInterruptSetting(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regInterruptEnable)
	if err != nil {
		return NoPads, err
	}
	return Pad(getBits(reg, padFieldIndex, padFieldWidth)), nil
}

// SetSensitivity replaces the DELTA_SENSE field of the sensitivity control
// register, preserving every other bit.
func (s *CAP1203) SetSensitivity(ctx context.Context, sensitivity Sensitivity) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.updateRegister(ctx, regSensitivityControl, byte(sensitivity), sensitivityIndex, sensitivityWidth)
}

// GetSensitivity returns the current DELTA_SENSE multiplier.
func (s *CAP1203) GetSensitivity(ctx context.Context) (Sensitivity, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regSensitivityControl)
	if err != nil {
		return 0, err
	}
	return Sensitivity(getBits(reg, sensitivityIndex, sensitivityWidth)), nil
}

// SetPowerButtonPad selects the pads acting as the power button.
// See the power button section of the datasheet (page 16).
func (s *CAP1203) SetPowerButtonPad(ctx context.Context, pads Pad) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.updateRegister(ctx, regPowerButton, byte(pads), padFieldIndex, padFieldWidth)
}

// GetPowerButtonPad returns the pads acting as the power button.
func (s *CAP1203) GetPowerButtonPad(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regPowerButton)
	if err != nil {
		return NoPads, err
	}
	return Pad(getBits(reg, padFieldIndex, padFieldWidth)), nil
}

// SetPowerButtonTime replaces the PWR_TIME field of the power button
// configuration register, preserving every other bit.
func (s *CAP1203) SetPowerButtonTime(ctx context.Context, t PowerTime) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.updateRegister(ctx, regPowerButtonConfig, byte(t), powerTimeIndex, powerTimeWidth)
}

// GetPowerButtonTime returns the configured power button hold time.
func (s *CAP1203) GetPowerButtonTime(ctx context.Context) (PowerTime, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regPowerButtonConfig)
	if err != nil {
		return 0, err
	}
	return PowerTime(getBits(reg, powerTimeIndex, powerTimeWidth)), nil
}

// SetPowerButtonEnabled switches the power button feature on or off.
func (s *CAP1203) SetPowerButtonEnabled(ctx context.Context, enabled bool) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	var value byte
	if enabled {
		value = 1
	}
	return s.updateRegister(ctx, regPowerButtonConfig, value, powerEnableIndex, 1)
}

// GetPowerButtonEnabled reports whether the power button feature is on.
func (s *CAP1203) GetPowerButtonEnabled(ctx context.Context) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regPowerButtonConfig)
	if err != nil {
		return false, err
	}
	return getBit(reg, powerEnableIndex), nil
}

// IsPowerButtonTouched checks the PWR flag of the general status register
// and clears the interrupt when the power button fired.
func (s *CAP1203) IsPowerButtonTouched(ctx context.Context) (bool, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regGeneralStatus)
	if err != nil {
		return false, err
	}
	if !getBit(reg, generalStatusPwrIndex) {
		return false, nil
	}
	if err = s.clearInterrupt(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// CheckStatus inspects the general status register for base count and
// calibration failures and returns the union of affected pads.
func (s *CAP1203) CheckStatus(ctx context.Context) (Pad, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	reg, err := s.readRegister(ctx, regGeneralStatus)
	if err != nil {
		return NoPads, err
	}
	var failed Pad
	if getBit(reg, generalStatusBcOutIndex) {
		bc, err := s.readRegister(ctx, regBaseCountOut)
		if err != nil {
			return NoPads, err
		}
		failed |= Pad(getBits(bc, padFieldIndex, padFieldWidth))
	}
	if getBit(reg, generalStatusAcalFailIndex) {
		cal, err := s.readRegister(ctx, regCalibrationActivate)
		if err != nil {
			return NoPads, err
		}
		failed |= Pad(getBits(cal, padFieldIndex, padFieldWidth))
	}
	return failed, nil
}

// Reset forces recalibration of all three pads. The chip runs the
// calibration itself; this only triggers it.
func (s *CAP1203) Reset(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.writeRegister(ctx, regCalibrationActivate, byte(AllPads))
}

func (s *CAP1203) checkTouched(ctx context.Context) (Pad, error) {
	reg, err := s.readRegister(ctx, regSensorInputStatus)
	if err != nil {
		return NoPads, err
	}
	return Pad(getBits(reg, padFieldIndex, padFieldWidth)), nil
}

func (s *CAP1203) clearInterrupt(ctx context.Context) error {
	return s.updateRegister(ctx, regMainControl, 0, mainControlIntIndex, 1)
}

// updateRegister replaces width bits starting at index and preserves the
// rest of the register. The write is skipped entirely when the read fails,
// so a stale value is never written back.
func (s *CAP1203) updateRegister(ctx context.Context, reg, value byte, index, width uint) error {
	current, err := s.readRegister(ctx, reg)
	if err != nil {
		return err
	}
	return s.writeRegister(ctx, reg, setBits(current, value, index, width))
}

func (s *CAP1203) readRegister(ctx context.Context, reg byte) (byte, error) {
	err := s.transport.WriteToAddr(ctx, s.address, []byte{reg})
	if err != nil {
		return 0, &captouch.BusError{Register: reg, Op: captouch.OpRead, Err: err}
	}
	err = s.transport.ReadFromAddr(ctx, s.address, s.buf)
	if err != nil {
		return 0, &captouch.BusError{Register: reg, Op: captouch.OpRead, Err: err}
	}
	return s.buf[0], nil
}

func (s *CAP1203) writeRegister(ctx context.Context, reg, value byte) error {
	err := s.transport.WriteToAddr(ctx, s.address, []byte{reg, value})
	if err != nil {
		return &captouch.BusError{Register: reg, Op: captouch.OpWrite, Err: err}
	}
	return nil
}
