// Package agent sequences API operations against the settings store and the
// telemetry bridge and wraps every outcome, success or failure, in the
// response envelope. Handlers above this package only serialize envelopes;
// nothing below it ever reaches the transport as a raw error.
package agent

import (
	"context"

	"github.com/ghostop14/kraken-api-agent/pkg/control"
	"github.com/ghostop14/kraken-api-agent/pkg/doa"
	"github.com/ghostop14/kraken-api-agent/pkg/settings"
)

// Coordinator is the single entry point for the API operations. It holds no
// state between calls beyond the store's write serialization.
type Coordinator struct {
	store     *settings.Store
	telemetry *doa.Bridge
}

// NewCoordinator wires the coordinator to its store and telemetry bridge.
func NewCoordinator(store *settings.Store, telemetry *doa.Bridge) *Coordinator {
	return &Coordinator{store: store, telemetry: telemetry}
}

// GetConfig returns the current settings document under the "settings" key.
func (c *Coordinator) GetConfig() Envelope {
	doc, err := c.store.Read()
	if err != nil {
		return FromError(err)
	}
	return OKWith("settings", doc)
}

// GetDOA fetches a fresh DOA reading under the "doa_info" key.
func (c *Coordinator) GetDOA(ctx context.Context) Envelope {
	reading, err := c.telemetry.Fetch(ctx)
	if err != nil {
		return FromError(err)
	}
	return OKWith("doa_info", reading)
}

// SetFrequency tunes the shared center frequency in MHz, optionally setting
// the tuner gain in the same write.
func (c *Coordinator) SetFrequency(freqMHz float64, gain *float64) Envelope {
	mutation, err := control.FrequencyUpdate(freqMHz, gain)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

// SetFrequencyAndVFO tunes the shared center frequency and one VFO together
// in a single write.
func (c *Coordinator) SetFrequencyAndVFO(freqMHz float64, vfoIndex int, vfoFreqHz float64) Envelope {
	mutation, err := control.FrequencyAndVFOUpdate(freqMHz, vfoIndex, vfoFreqHz)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

// SetGain sets the uniform tuner gain.
func (c *Coordinator) SetGain(gain float64) Envelope {
	mutation, err := control.GainUpdate(gain)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

// SetOutputVFO selects the VFO feeding the demodulated output.
func (c *Coordinator) SetOutputVFO(vfoIndex int) Envelope {
	mutation, err := control.OutputVFOUpdate(vfoIndex)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

// SetOptimizeShortBursts toggles the short-burst optimization flag.
func (c *Coordinator) SetOptimizeShortBursts(enabled bool) Envelope {
	return c.apply(control.OptimizeShortBurstsUpdate(enabled))
}

// SetVFOFrequency retunes a single VFO in Hz.
func (c *Coordinator) SetVFOFrequency(vfoIndex int, freqHz float64) Envelope {
	mutation, err := control.VFOFrequencyUpdate(vfoIndex, freqHz)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

// SetVFOBandwidth sets a single VFO's bandwidth in Hz.
func (c *Coordinator) SetVFOBandwidth(vfoIndex int, bandwidthHz float64) Envelope {
	mutation, err := control.VFOBandwidthUpdate(vfoIndex, bandwidthHz)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

// SetCoordinates updates the station position plus any explicitly supplied
// optional location fields.
func (c *Coordinator) SetCoordinates(latitude, longitude float64, opts control.CoordinateOptions) Envelope {
	mutation, err := control.CoordinatesUpdate(latitude, longitude, opts)
	if err != nil {
		return FromError(err)
	}
	return c.apply(mutation)
}

func (c *Coordinator) apply(mutation settings.Mutation) Envelope {
	if _, err := c.store.Apply(mutation); err != nil {
		return FromError(err)
	}
	return OK()
}
