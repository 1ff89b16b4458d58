// Analog noise sampling
// An unconnected ADC input floats; its low bits seed the behavior RNG.
package core

// NoiseSamples is the number of reads folded into one seed.
const NoiseSamples = 32

// NoiseSeed reads ch NoiseSamples times and folds the readings into a seed.
func NoiseSeed(driver ADCDriver, ch ADCChannelID) (int64, error) {
	if err := driver.ConfigureChannel(ch); err != nil {
		return 0, err
	}

	var seed uint64
	for i := 0; i < NoiseSamples; i++ {
		v, err := driver.ReadRaw(ch)
		if err != nil {
			return 0, err
		}
		// Rotate by 5 so repeated low bits land in different positions
		seed = seed<<5 | seed>>59
		seed ^= uint64(v)
	}
	return int64(seed), nil
}
