// Package apu implements the CPU-visible register surface of the NES Audio
// Processing Unit. Signal synthesis (mixing, DACs, channel waveforms) is out
// of scope; this stub exists so that cartridges and test ROMs which write to
// $4000-$4017 unconditionally don't observe a dead address range, and so a
// host can still poll frame-IRQ timing and channel-enable status plausibly.
package apu

// APU tracks the register-visible state of the audio unit: per-channel
// enable/length-active bits, the $4017 frame-sequencer mode, and the
// frame-IRQ flag. No channel produces a waveform.
type APU struct {
	// Channel enable mask as last written to $4015, bit per channel in NES
	// order: pulse1, pulse2, triangle, noise, dmc.
	channelEnable [5]bool

	frameCounter   uint16
	frameMode      bool // false = 4-step, true = 5-step
	frameIRQEnable bool
	frameIRQFlag   bool

	dmcIRQFlag bool

	sampleRate   int
	cpuFrequency float64

	cycles uint64
}

// New creates a new APU instance
func New() *APU {
	return &APU{
		sampleRate:     44100,
		cpuFrequency:   1789773.0, // NTSC CPU frequency
		frameIRQEnable: true,
	}
}

// Reset resets the APU to its initial state
func (apu *APU) Reset() {
	for i := range apu.channelEnable {
		apu.channelEnable[i] = false
	}
	apu.frameCounter = 0
	apu.frameMode = false
	apu.frameIRQEnable = true
	apu.frameIRQFlag = false
	apu.dmcIRQFlag = false
	apu.cycles = 0
}

// Step advances the frame-sequencer divider by one CPU cycle, asserting the
// frame IRQ flag on schedule in 4-step mode.
func (apu *APU) Step() {
	apu.cycles++
	apu.frameCounter++

	if apu.frameMode {
		if apu.frameCounter >= 37282 {
			apu.frameCounter = 0
		}
		return
	}

	if apu.frameCounter == 29830 {
		if apu.frameIRQEnable {
			apu.frameIRQFlag = true
		}
		apu.frameCounter = 0
	}
}

// WriteRegister accepts a write to the APU's CPU-visible register range.
// Channel control/timer/sweep registers ($4000-$4013) are accepted but have
// no effect beyond being valid writes, since no channel synthesizes sound.
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x4015:
		apu.writeChannelEnable(value)
	case 0x4017:
		apu.writeFrameCounter(value)
	default:
		// $4000-$4013: per-channel control/timer/sweep registers. Accepted
		// silently; no channel state is modeled.
	}
}

// writeChannelEnable handles $4015 writes, which enable/disable each
// channel's length counter. Disabling a channel immediately clears its
// length-active status; enabling one does not, by itself, start it (loading
// the length counter does, which is not modeled, so the status bit tracks
// the enable mask directly per SPEC_FULL.md §4.10).
func (apu *APU) writeChannelEnable(value uint8) {
	for i := range apu.channelEnable {
		apu.channelEnable[i] = (value>>uint(i))&1 != 0
	}
	if value&0x10 == 0 {
		apu.dmcIRQFlag = false
	}
}

// writeFrameCounter handles $4017 writes, which select the 4-step/5-step
// frame sequencer mode and the frame IRQ inhibit flag.
func (apu *APU) writeFrameCounter(value uint8) {
	apu.frameMode = (value & 0x80) != 0
	apu.frameIRQEnable = (value & 0x40) == 0
	if !apu.frameIRQEnable {
		apu.frameIRQFlag = false
	}
	apu.frameCounter = 0
}

// ReadStatus reads the APU status register ($4015). Length-counter-active
// bits mirror the channel-enable mask, since length counting itself is not
// simulated.
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	for i, enabled := range apu.channelEnable {
		if enabled {
			status |= 1 << uint(i)
		}
	}
	if apu.frameIRQFlag {
		status |= 0x40
	}
	if apu.dmcIRQFlag {
		status |= 0x80
	}
	apu.frameIRQFlag = false
	return status
}

// GetSamples returns no samples; the stub produces no audio signal.
func (apu *APU) GetSamples() []float32 {
	return nil
}

// SetSampleRate sets the target audio sample rate. Retained on the register
// surface so a host can configure output format even though no samples are
// ever produced.
func (apu *APU) SetSampleRate(rate int) {
	if rate > 0 {
		apu.sampleRate = rate
	}
}

// SampleRate returns the currently configured sample rate, for save states.
func (apu *APU) SampleRate() int {
	return apu.sampleRate
}

// ChannelEnableMask returns the last value written to $4015's enable bits,
// packed in the same bit order, for save states.
func (apu *APU) ChannelEnableMask() uint8 {
	var mask uint8
	for i, enabled := range apu.channelEnable {
		if enabled {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// RestoreChannelEnableMask restores the channel-enable bits from a save state.
func (apu *APU) RestoreChannelEnableMask(mask uint8) {
	for i := range apu.channelEnable {
		apu.channelEnable[i] = (mask>>uint(i))&1 != 0
	}
}
