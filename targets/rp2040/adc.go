//go:build rp2040 || rp2350

package main

import (
	"device/rp"
	"errors"
	"machine"

	"wanderbot/core"
)

// tempChannel is the internal temperature sensor. Its noise works as a seed
// source on boards where every ADC pin is wired.
const tempChannel = 4

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC.
type RpAdcDriver struct {
	channels map[core.ADCChannelID]*machine.ADC
}

// NewRPAdcDriver constructs the driver but does not Init() it yet.
func NewRPAdcDriver() *RpAdcDriver {
	return &RpAdcDriver{
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

// rawInternalTemp returns the 12-bit raw reading of the temperature sensor.
func rawInternalTemp() uint16 {
	if rp.ADC.CS.Get()&rp.ADC_CS_EN == 0 {
		machine.InitADC()
	}

	rp.ADC.CS.SetBits(rp.ADC_CS_TS_EN)
	rp.ADC.CS.ReplaceBits(
		uint32(tempChannel)<<rp.ADC_CS_AINSEL_Pos,
		rp.ADC_CS_AINSEL_Msk,
		0,
	)
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)

	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}
	return uint16(rp.ADC.RESULT.Get())
}

func (d *RpAdcDriver) Init(cfg core.ADCConfig) error {
	machine.InitADC()
	return nil
}

// ConfigureChannel maps channels 0-3 to ADC0-ADC3 (GPIO26-29).
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if ch == tempChannel {
		return nil
	}
	if _, ok := d.channels[ch]; ok {
		return nil
	}

	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return errors.New("unsupported ADC channel")
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.channels[ch] = &adc
	return nil
}

// ReadRaw performs a one-shot sample, scaled to 16 bits.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if ch == tempChannel {
		return core.ADCValue(rawInternalTemp() << 4), nil
	}

	adc, ok := d.channels[ch]
	if !ok {
		if err := d.ConfigureChannel(ch); err != nil {
			return 0, err
		}
		adc = d.channels[ch]
	}
	return core.ADCValue(adc.Get()), nil
}
