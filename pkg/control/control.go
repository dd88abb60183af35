// Package control translates validated API parameters into settings.json
// mutations. Every unit quirk of the KrakenSDR settings schema lives here:
// the shared tuner frequency is stored in MHz, per-VFO frequencies and
// bandwidths in Hz, and the gain is restricted to the RTL tuner's fixed step
// table. Builders are pure; they never touch the file, they only produce a
// settings.Mutation for the store to execute.
package control

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ghostop14/kraken-api-agent/pkg/settings"
)

var (
	// ErrMissingParameter indicates a required parameter was not supplied.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrInvalidParameter indicates a parameter is present but out of range
	// or of the wrong form.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidGain indicates a gain value outside the tuner's step table.
	ErrInvalidGain = errors.New("invalid gain")
)

// ValidGains is the RTL tuner's hardware gain step table in dB. The set is
// fixed by the silicon; any other value is rejected before it reaches the
// settings file.
var ValidGains = []float64{
	0, 0.9, 1.4, 2.7, 3.7, 7.7, 8.7, 12.5, 14.4, 15.7, 16.6, 19.7, 20.7,
	22.9, 25.4, 28.0, 29.7, 32.8, 33.8, 36.4, 37.2, 38.6, 40.2, 42.1, 43.4,
	43.9, 44.5, 48.0, 49.6,
}

// Tuner limits for the KrakenSDR's RTL2832 front ends.
const (
	MinTunerFreqMHz   = 24.0
	MaxTunerFreqMHz   = 1766.0
	MinVFOFreqHz      = 24e6
	MaxVFOFreqHz      = 1766e6
	MaxVFOBandwidthHz = 2.4e6
)

// GainIsValid reports whether gain is one of the tuner's hardware steps.
func GainIsValid(gain float64) bool {
	for _, g := range ValidGains {
		if gain == g {
			return true
		}
	}
	return false
}

func validateTunerFreq(freqMHz float64) error {
	if freqMHz < MinTunerFreqMHz || freqMHz > MaxTunerFreqMHz {
		return fmt.Errorf("%w: frequency should be in MHz and range from %.1f - %.1f",
			ErrInvalidParameter, MinTunerFreqMHz, MaxTunerFreqMHz)
	}
	return nil
}

func validateVFOFreq(freqHz float64) error {
	if freqHz < MinVFOFreqHz || freqHz > MaxVFOFreqHz {
		return fmt.Errorf("%w: VFO frequency should be in Hz and range from %.0f - %.0f",
			ErrInvalidParameter, MinVFOFreqHz, MaxVFOFreqHz)
	}
	return nil
}

func validateGain(gain float64) error {
	if !GainIsValid(gain) {
		return fmt.Errorf("%w: gain must be one of %v", ErrInvalidGain, ValidGains)
	}
	return nil
}

// checkVFOIndex bounds the index against the document's configured VFO count.
// The count lives in the document itself, so this runs inside the mutation,
// after validation of everything that does not need the document but still
// strictly before any write.
func checkVFOIndex(doc settings.Document, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: vfo_index must not be negative", ErrInvalidParameter)
	}
	if raw, ok := doc["vfo_count"]; ok {
		if count, ok := raw.(float64); ok && float64(index) >= count {
			return fmt.Errorf("%w: vfo_index %d out of range, %d VFOs configured",
				ErrInvalidParameter, index, int(count))
		}
	}
	return nil
}

// ParseBool parses the textual true/false query values the appliance's API
// has always accepted, case-insensitively.
func ParseBool(value string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("%w: expecting true or false, got %q", ErrInvalidParameter, value)
}

// FrequencyUpdate builds a mutation that tunes the shared center frequency
// and, when gain is non-nil, sets the tuner gain in the same transaction.
// Combining the two keeps the DOA processor's change detection to a single
// event, so one recalibration instead of two.
func FrequencyUpdate(freqMHz float64, gain *float64) (settings.Mutation, error) {
	if err := validateTunerFreq(freqMHz); err != nil {
		return nil, err
	}
	if gain != nil {
		if err := validateGain(*gain); err != nil {
			return nil, err
		}
	}

	return func(doc settings.Document) (settings.Document, error) {
		doc["center_freq"] = freqMHz
		if gain != nil {
			doc["uniform_gain"] = *gain
		}
		return doc, nil
	}, nil
}

// FrequencyAndVFOUpdate builds a mutation that retunes the shared center
// frequency and one VFO's frequency together. One logical operation, one
// write, one recalibration.
func FrequencyAndVFOUpdate(freqMHz float64, vfoIndex int, vfoFreqHz float64) (settings.Mutation, error) {
	if err := validateTunerFreq(freqMHz); err != nil {
		return nil, err
	}
	if err := validateVFOFreq(vfoFreqHz); err != nil {
		return nil, err
	}

	return func(doc settings.Document) (settings.Document, error) {
		if err := checkVFOIndex(doc, vfoIndex); err != nil {
			return nil, err
		}
		doc["center_freq"] = freqMHz
		doc[vfoFreqKey(vfoIndex)] = vfoFreqHz
		return doc, nil
	}, nil
}

// GainUpdate builds a mutation that sets the uniform tuner gain.
func GainUpdate(gain float64) (settings.Mutation, error) {
	if err := validateGain(gain); err != nil {
		return nil, err
	}

	return func(doc settings.Document) (settings.Document, error) {
		doc["uniform_gain"] = gain
		return doc, nil
	}, nil
}

// VFOFrequencyUpdate builds a mutation that retunes a single VFO.
func VFOFrequencyUpdate(vfoIndex int, freqHz float64) (settings.Mutation, error) {
	if err := validateVFOFreq(freqHz); err != nil {
		return nil, err
	}

	return func(doc settings.Document) (settings.Document, error) {
		if err := checkVFOIndex(doc, vfoIndex); err != nil {
			return nil, err
		}
		doc[vfoFreqKey(vfoIndex)] = freqHz
		return doc, nil
	}, nil
}

// VFOBandwidthUpdate builds a mutation that sets a single VFO's bandwidth.
func VFOBandwidthUpdate(vfoIndex int, bandwidthHz float64) (settings.Mutation, error) {
	if bandwidthHz <= 0 || bandwidthHz > MaxVFOBandwidthHz {
		return nil, fmt.Errorf("%w: bandwidth should be in Hz and not exceed the %.0f Hz tuner bandwidth",
			ErrInvalidParameter, MaxVFOBandwidthHz)
	}

	return func(doc settings.Document) (settings.Document, error) {
		if err := checkVFOIndex(doc, vfoIndex); err != nil {
			return nil, err
		}
		doc[vfoBandwidthKey(vfoIndex)] = bandwidthHz
		return doc, nil
	}, nil
}

// OutputVFOUpdate builds a mutation that selects which VFO feeds the
// appliance's demodulated output.
func OutputVFOUpdate(vfoIndex int) (settings.Mutation, error) {
	return func(doc settings.Document) (settings.Document, error) {
		if err := checkVFOIndex(doc, vfoIndex); err != nil {
			return nil, err
		}
		doc["output_vfo"] = float64(vfoIndex)
		return doc, nil
	}, nil
}

// OptimizeShortBurstsUpdate builds a mutation that toggles the short-burst
// optimization flag.
func OptimizeShortBurstsUpdate(enabled bool) settings.Mutation {
	return func(doc settings.Document) (settings.Document, error) {
		doc["en_optimize_short_bursts"] = enabled
		return doc, nil
	}
}

func vfoFreqKey(index int) string {
	return fmt.Sprintf("vfo_freq_%d", index)
}

func vfoBandwidthKey(index int) string {
	return fmt.Sprintf("vfo_bw_%d", index)
}
