package touch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gophertribe/captouch"
)

type regWrite struct {
	reg   byte
	value byte
}

// fakeChip simulates the CAP1203 register file behind the I2CBus interface:
// a one-byte pointer write selects the register, a subsequent read returns
// its content, a two-byte write stores into it. Clearing the INT bit of the
// main control register releases the touch latch (no touch active).
type fakeChip struct {
	mu       sync.Mutex
	regs     map[byte]byte
	pointer  byte
	readErr  map[byte]error
	writeErr map[byte]error
	writes   []regWrite
}

func newFakeChip() *fakeChip {
	return &fakeChip{
		regs: map[byte]byte{
			regProductID:      ProductID,
			regManufacturerID: 0x5D,
			// power-on default of SENSITIVITY_CONTROL: x32, BASE_SHIFT 0b1111
			regSensitivityControl: 0x2F,
		},
		readErr:  map[byte]error{},
		writeErr: map[byte]error{},
	}
}

func (f *fakeChip) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch len(buffer) {
	case 1:
		f.pointer = buffer[0]
		return nil
	case 2:
		if err := f.writeErr[buffer[0]]; err != nil {
			return err
		}
		f.store(buffer[0], buffer[1])
		return nil
	default:
		return fmt.Errorf("unexpected write of %d bytes", len(buffer))
	}
}

func (f *fakeChip) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.readErr[f.pointer]; err != nil {
		return err
	}
	buffer[0] = f.regs[f.pointer]
	return nil
}

func (f *fakeChip) Release(ctx context.Context) error {
	return nil
}

func (f *fakeChip) store(reg, value byte) {
	f.writes = append(f.writes, regWrite{reg: reg, value: value})
	f.regs[reg] = value
	if reg == regMainControl && !getBit(value, mainControlIntIndex) {
		f.regs[regSensorInputStatus] = 0
	}
}

func (f *fakeChip) registerWrites(reg byte) []regWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []regWrite
	for _, w := range f.writes {
		if w.reg == reg {
			res = append(res, w)
		}
	}
	return res
}

func TestCAP1203_InterruptSettingRoundTrip(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regInterruptEnable] = 0xF8 // unrelated upper bits set
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	for p := NoPads; p <= AllPads; p++ {
		t.Run(p.String(), func(t *testing.T) {
			require.NoError(t, sensor.SetInterruptSetting(ctx, p))
			pads, err := sensor.GetInterruptSetting(ctx)
			require.NoError(t, err)
			assert.Equal(t, p, pads)
			assert.Equal(t, byte(0xF8), chip.regs[regInterruptEnable]&0xF8, "upper bits must be preserved")
		})
	}
}

func TestCAP1203_SensitivityRoundTrip(t *testing.T) {
	chip := newFakeChip()
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	for s := SensitivityX128; s <= SensitivityX1; s++ {
		t.Run(s.String(), func(t *testing.T) {
			require.NoError(t, sensor.SetSensitivity(ctx, s))
			got, err := sensor.GetSensitivity(ctx)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}
}

func TestCAP1203_SensitivityFieldIsolation(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regSensitivityControl] = 0b1_011_0000
	sensor := NewCAP1203(chip)

	err := sensor.SetSensitivity(context.Background(), SensitivityX32)
	require.NoError(t, err)
	assert.Equal(t, byte(0b1_010_0000), chip.regs[regSensitivityControl],
		"only the DELTA_SENSE field may change")
}

func TestCAP1203_GetTouchedClearsLatch(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regSensorInputStatus] = byte(PadRight)
	chip.regs[regMainControl] = 0x01 // INT latched
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	pads, err := sensor.GetTouched(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadRight, pads)

	mainWrites := chip.registerWrites(regMainControl)
	require.Len(t, mainWrites, 1)
	assert.False(t, getBit(mainWrites[0].value, mainControlIntIndex), "INT bit must be written to 0")

	// with no new physical touch the status reads back empty
	pads, err = sensor.CheckTouched(ctx)
	require.NoError(t, err)
	assert.Equal(t, NoPads, pads)
	assert.True(t, pads.IsEmpty())
}

func TestCAP1203_GetTouchedEmptySkipsClear(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regSensorInputStatus] = 0
	sensor := NewCAP1203(chip)

	pads, err := sensor.GetTouched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoPads, pads)
	assert.Empty(t, chip.writes, "no acknowledge write without a latched touch")
}

func TestCAP1203_CheckTouchedDoesNotClear(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regSensorInputStatus] = byte(PadLeft | PadCenter)
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	first, err := sensor.CheckTouched(ctx)
	require.NoError(t, err)
	second, err := sensor.CheckTouched(ctx)
	require.NoError(t, err)

	assert.Equal(t, PadLeft|PadCenter, first)
	assert.Equal(t, first, second)
	assert.Empty(t, chip.writes, "checking must be a pure read")
}

func TestCAP1203_IsTouchedMatchesCheckTouched(t *testing.T) {
	chip := newFakeChip()
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	for v := 0; v <= 0xFF; v++ {
		chip.regs[regSensorInputStatus] = byte(v)
		pads, err := sensor.CheckTouched(ctx)
		require.NoError(t, err)
		assert.Equal(t, Pad(v)&AllPads, pads, "bits outside the pad field must be masked (status %#02x)", v)
		touched, err := sensor.IsTouched(ctx)
		require.NoError(t, err)
		assert.Equal(t, !pads.IsEmpty(), touched, "status %#02x", v)
	}
}

func TestCAP1203_RightPadScenario(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regSensorInputStatus] = 0b0000_0100
	chip.regs[regMainControl] = 0x01
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	pads, err := sensor.CheckTouched(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadRight, pads)

	touched, err := sensor.IsTouched(ctx)
	require.NoError(t, err)
	assert.True(t, touched)

	pads, err = sensor.GetTouched(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadRight, pads)
	writes := chip.registerWrites(regMainControl)
	require.Len(t, writes, 1)
	assert.Equal(t, byte(0x00), writes[0].value&0x01)
}

func TestCAP1203_ReadFailureAbortsGetTouched(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regSensorInputStatus] = byte(PadCenter)
	chip.regs[regMainControl] = 0x01
	chip.readErr[regSensorInputStatus] = errors.New("i2c read failed")
	sensor := NewCAP1203(chip)

	_, err := sensor.GetTouched(context.Background())
	require.Error(t, err)
	var busErr *captouch.BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, captouch.OpRead, busErr.Op)
	assert.Equal(t, regSensorInputStatus, busErr.Register)
	assert.Empty(t, chip.writes, "no write may follow a failed read")
}

func TestCAP1203_WriteFailureSurfacesAsBusError(t *testing.T) {
	chip := newFakeChip()
	before := chip.regs[regSensitivityControl]
	chip.writeErr[regSensitivityControl] = errors.New("no ack")
	sensor := NewCAP1203(chip)

	err := sensor.SetSensitivity(context.Background(), SensitivityX8)
	require.Error(t, err)
	var busErr *captouch.BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, captouch.OpWrite, busErr.Op)
	assert.Equal(t, regSensitivityControl, busErr.Register)
	assert.Equal(t, before, chip.regs[regSensitivityControl], "register must stay unmodified")
}

func TestCAP1203_PowerButton(t *testing.T) {
	chip := newFakeChip()
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	for _, tt := range []PowerTime{PowerTime280ms, PowerTime560ms, PowerTime1120ms, PowerTime2240ms} {
		t.Run(tt.String(), func(t *testing.T) {
			require.NoError(t, sensor.SetPowerButtonTime(ctx, tt))
			got, err := sensor.GetPowerButtonTime(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt, got)
		})
	}

	// the enable bit must not disturb the time field
	require.NoError(t, sensor.SetPowerButtonTime(ctx, PowerTime2240ms))
	require.NoError(t, sensor.SetPowerButtonEnabled(ctx, true))
	enabled, err := sensor.GetPowerButtonEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	tm, err := sensor.GetPowerButtonTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, PowerTime2240ms, tm)
	assert.Equal(t, byte(0b111), chip.regs[regPowerButtonConfig])

	require.NoError(t, sensor.SetPowerButtonEnabled(ctx, false))
	enabled, err = sensor.GetPowerButtonEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, sensor.SetPowerButtonPad(ctx, PadCenter))
	pad, err := sensor.GetPowerButtonPad(ctx)
	require.NoError(t, err)
	assert.Equal(t, PadCenter, pad)
}

func TestCAP1203_IsPowerButtonTouched(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regGeneralStatus] = 1 << generalStatusPwrIndex
	chip.regs[regMainControl] = 0x01
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	touched, err := sensor.IsPowerButtonTouched(ctx)
	require.NoError(t, err)
	assert.True(t, touched)
	require.Len(t, chip.registerWrites(regMainControl), 1)

	chip.regs[regGeneralStatus] = 0
	touched, err = sensor.IsPowerButtonTouched(ctx)
	require.NoError(t, err)
	assert.False(t, touched)
	assert.Len(t, chip.registerWrites(regMainControl), 1, "no clear without a power button event")
}

func TestCAP1203_Configure(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regMainControl] = 0x01
	sensor := NewCAP1203(chip)

	require.NoError(t, sensor.Configure(context.Background()))
	assert.Equal(t, byte(SensitivityX2), getBits(chip.regs[regSensitivityControl], sensitivityIndex, sensitivityWidth))
	assert.Equal(t, byte(AllPads), getBits(chip.regs[regInterruptEnable], padFieldIndex, padFieldWidth))
	assert.False(t, getBit(chip.regs[regMainControl], mainControlIntIndex))
}

func TestCAP1203_CheckStatus(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regGeneralStatus] = 1<<generalStatusBcOutIndex | 1<<generalStatusAcalFailIndex
	chip.regs[regBaseCountOut] = byte(PadLeft)
	chip.regs[regCalibrationActivate] = byte(PadRight)
	sensor := NewCAP1203(chip)

	failed, err := sensor.CheckStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PadLeft|PadRight, failed)
}

func TestCAP1203_Identity(t *testing.T) {
	chip := newFakeChip()
	chip.regs[regRevision] = 0x01
	sensor := NewCAP1203(chip)
	ctx := context.Background()

	id, err := sensor.ProductID(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(ProductID), id)
	man, err := sensor.ManufacturerID(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5D), man)
	rev, err := sensor.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), rev)

	assert.True(t, sensor.IsConnected(ctx))
	chip.readErr[regProductID] = errors.New("no ack")
	assert.False(t, sensor.IsConnected(ctx))
}

func TestCAP1203_Reset(t *testing.T) {
	chip := newFakeChip()
	sensor := NewCAP1203(chip)

	require.NoError(t, sensor.Reset(context.Background()))
	writes := chip.registerWrites(regCalibrationActivate)
	require.Len(t, writes, 1)
	assert.Equal(t, byte(0x07), writes[0].value)
}

// MockI2CBus is a mock implementation of captouch.I2CBus using testify/mock.
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestCAP1203_TransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("pointer write failure reported as failed read", func(t *testing.T) {
		bus := new(MockI2CBus)
		bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{regSensorInputStatus}).
			Return(errors.New("arbitration lost")).Once()
		sensor := NewCAP1203(bus)

		_, err := sensor.CheckTouched(ctx)
		require.Error(t, err)
		var busErr *captouch.BusError
		require.ErrorAs(t, err, &busErr)
		assert.Equal(t, captouch.OpRead, busErr.Op)
		bus.AssertExpectations(t)
	})

	t.Run("rmw write half failure", func(t *testing.T) {
		bus := new(MockI2CBus)
		bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{regInterruptEnable}).
			Return(nil).Once()
		bus.On("ReadFromAddr", mock.Anything, byte(DefaultAddress), mock.Anything).
			Return([]byte{0x00}, nil).Once()
		bus.On("WriteToAddr", mock.Anything, byte(DefaultAddress), []byte{regInterruptEnable, byte(AllPads)}).
			Return(errors.New("timeout")).Once()
		sensor := NewCAP1203(bus)

		err := sensor.SetInterruptSetting(ctx, AllPads)
		require.Error(t, err)
		var busErr *captouch.BusError
		require.ErrorAs(t, err, &busErr)
		assert.Equal(t, captouch.OpWrite, busErr.Op)
		assert.Equal(t, regInterruptEnable, busErr.Register)
		bus.AssertExpectations(t)
	})

	t.Run("custom address used on the wire", func(t *testing.T) {
		bus := new(MockI2CBus)
		bus.On("WriteToAddr", mock.Anything, byte(0x29), []byte{regSensorInputStatus}).
			Return(nil).Once()
		bus.On("ReadFromAddr", mock.Anything, byte(0x29), mock.Anything).
			Return([]byte{byte(PadLeft)}, nil).Once()
		sensor := NewCAP1203(bus, WithAddress(0x29))

		pads, err := sensor.CheckTouched(ctx)
		require.NoError(t, err)
		assert.Equal(t, PadLeft, pads)
		bus.AssertExpectations(t)
	})
}

func TestPad_SetOperations(t *testing.T) {
	assert.True(t, NoPads.IsEmpty())
	assert.False(t, PadLeft.IsEmpty())
	assert.Equal(t, AllPads, PadLeft.Union(PadCenter).Union(PadRight))
	assert.Equal(t, PadCenter, (PadLeft | PadCenter).Intersect(PadCenter|PadRight))
	assert.True(t, AllPads.Contains(PadRight))
	assert.False(t, PadLeft.Contains(PadRight))
	assert.False(t, PadLeft.Contains(NoPads), "empty set is not a member")

	tests := []struct {
		pads     Pad
		expected string
	}{
		{NoPads, "none"},
		{PadLeft, "left"},
		{PadCenter, "center"},
		{PadRight, "right"},
		{PadLeft | PadRight, "left+right"},
		{AllPads, "left+center+right"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.pads.String())
	}
}

func TestSensitivity_Multiplier(t *testing.T) {
	tests := []struct {
		given    Sensitivity
		expected int
	}{
		{SensitivityX128, 128},
		{SensitivityX32, 32},
		{SensitivityX2, 2},
		{SensitivityX1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.given.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.given.Multiplier())
		})
	}
}

func TestPowerTime_Duration(t *testing.T) {
	assert.Equal(t, 280*time.Millisecond, PowerTime280ms.Duration())
	assert.Equal(t, 560*time.Millisecond, PowerTime560ms.Duration())
	assert.Equal(t, 1120*time.Millisecond, PowerTime1120ms.Duration())
	assert.Equal(t, 2240*time.Millisecond, PowerTime2240ms.Duration())
}
