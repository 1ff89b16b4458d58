package core

import "errors"

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins     map[GPIOPin]bool
	pullUps  map[GPIOPin]bool
	readErr  error
	writeErr error
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		pullUps: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.pullUps[pin] = true
	m.pins[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullDown(pin GPIOPin) error {
	m.pullUps[pin] = false
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	if m.readErr != nil {
		return false, m.readErr
	}
	return m.pins[pin], nil
}

// MockPWMDriver is a test implementation of PWMDriver
type MockPWMDriver struct {
	max    uint32
	cycles map[PWMPin]uint32
	duty   map[PWMPin]PWMValue
	failOn PWMPin
}

func NewMockPWMDriver(max uint32) *MockPWMDriver {
	return &MockPWMDriver{
		max:    max,
		cycles: make(map[PWMPin]uint32),
		duty:   make(map[PWMPin]PWMValue),
		failOn: PWMPin(NoPin),
	}
}

var errMockWrite = errors.New("mock write failed")

func (m *MockPWMDriver) ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error) {
	m.cycles[pin] = cycleTicks
	return cycleTicks, nil
}

func (m *MockPWMDriver) SetDutyCycle(pin PWMPin, value PWMValue) error {
	if pin == m.failOn {
		return errMockWrite
	}
	m.duty[pin] = value
	return nil
}

func (m *MockPWMDriver) GetMaxValue() uint32 {
	return m.max
}

func (m *MockPWMDriver) DisablePWM(pin PWMPin) error {
	delete(m.cycles, pin)
	return nil
}

// MockADCDriver replays a fixed sequence of readings
type MockADCDriver struct {
	readings []ADCValue
	next     int
}

func (m *MockADCDriver) Init(ADCConfig) error { return nil }
func (m *MockADCDriver) ConfigureChannel(ADCChannelID) error { return nil }

func (m *MockADCDriver) ReadRaw(ADCChannelID) (ADCValue, error) {
	v := m.readings[m.next%len(m.readings)]
	m.next++
	return v, nil
}
