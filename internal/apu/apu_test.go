package apu

import "testing"

func TestNewAPUDefaults(t *testing.T) {
	a := New()
	if a.sampleRate != 44100 {
		t.Errorf("expected default sample rate 44100, got %d", a.sampleRate)
	}
	if !a.frameIRQEnable {
		t.Errorf("expected frame IRQ enabled by default")
	}
}

func TestChannelEnableMaskWriteAndReadBack(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x1F) // enable all 5 channels

	if mask := a.ChannelEnableMask(); mask != 0x1F {
		t.Errorf("expected channel enable mask 0x1F, got 0x%02X", mask)
	}

	status := a.ReadStatus()
	if status&0x1F != 0x1F {
		t.Errorf("expected status bits to mirror enable mask, got 0x%02X", status)
	}
}

func TestChannelEnableMaskDisableClearsDMCIRQ(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x1F)
	a.dmcIRQFlag = true

	a.WriteRegister(0x4015, 0x0F) // disable DMC (bit 4)

	if a.dmcIRQFlag {
		t.Errorf("expected DMC IRQ flag cleared when DMC channel disabled")
	}
}

func TestFrameCounterFourStepModeAssertsIRQ(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x00) // 4-step mode, IRQ enabled

	for i := 0; i < 29830; i++ {
		a.Step()
	}

	status := a.ReadStatus()
	if status&0x40 == 0 {
		t.Errorf("expected frame IRQ flag set after 29830 cycles in 4-step mode")
	}
	// ReadStatus clears the flag per hardware semantics.
	if a.ReadStatus()&0x40 != 0 {
		t.Errorf("expected frame IRQ flag cleared after being read")
	}
}

func TestFrameCounterIRQInhibitPreventsFlag(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x40) // 4-step mode, IRQ inhibited

	for i := 0; i < 29830; i++ {
		a.Step()
	}

	if a.ReadStatus()&0x40 != 0 {
		t.Errorf("expected frame IRQ flag to stay clear when inhibited")
	}
}

func TestFrameCounterFiveStepModeNeverAssertsIRQByItself(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x80) // 5-step mode

	for i := 0; i < 40000; i++ {
		a.Step()
	}

	if a.ReadStatus()&0x40 != 0 {
		t.Errorf("expected 5-step mode to never assert the frame IRQ flag")
	}
}

func TestResetClearsChannelsAndFlags(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x1F)
	a.WriteRegister(0x4017, 0x80)

	a.Reset()

	if a.ChannelEnableMask() != 0 {
		t.Errorf("expected channel enable mask cleared after reset")
	}
	if a.frameMode {
		t.Errorf("expected frame mode reset to 4-step")
	}
	if !a.frameIRQEnable {
		t.Errorf("expected frame IRQ enable reset to true")
	}
}

func TestSampleRateSetterIgnoresNonPositive(t *testing.T) {
	a := New()
	a.SetSampleRate(48000)
	if a.SampleRate() != 48000 {
		t.Errorf("expected sample rate updated to 48000, got %d", a.SampleRate())
	}
	a.SetSampleRate(0)
	if a.SampleRate() != 48000 {
		t.Errorf("expected non-positive sample rate to be ignored, got %d", a.SampleRate())
	}
}

func TestGetSamplesReturnsNil(t *testing.T) {
	a := New()
	if samples := a.GetSamples(); samples != nil {
		t.Errorf("expected no audio samples from the register-surface stub, got %v", samples)
	}
}
