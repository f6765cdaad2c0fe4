package app

import (
	"testing"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
)

// newTestEmulator builds an Emulator over a bus with a cartridge loaded so
// runFrame has real PRG ROM to execute instead of open-bus reads.
func newTestEmulator(t *testing.T) *Emulator {
	t.Helper()
	mock := cartridge.NewMockCartridge()
	prg := make([]uint8, 0x8000)
	prg[0x7FFC], prg[0x7FFD] = 0x00, 0x80 // reset vector -> 0x8000
	mock.LoadPRG(prg)                     // all-zero PRG ROM: BRK loop

	b := bus.New()
	b.LoadCartridge(mock)

	return NewEmulator(b, NewConfig())
}

func TestNewEmulatorStartsStopped(t *testing.T) {
	e := newTestEmulator(t)
	if e.IsRunning() {
		t.Errorf("expected emulator to start stopped")
	}
	if e.GetFrameCount() != 0 {
		t.Errorf("expected fresh emulator to have frame count 0")
	}
}

func TestUpdateDoesNothingWhileStopped(t *testing.T) {
	e := newTestEmulator(t)
	if err := e.Update(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.GetFrameCount() != 0 {
		t.Errorf("expected no frame advance while stopped, got %d", e.GetFrameCount())
	}
}

func TestUpdateAdvancesOneFramePerCall(t *testing.T) {
	e := newTestEmulator(t)
	e.Start()

	if err := e.Update(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.GetFrameCount() != 1 {
		t.Errorf("expected frame count 1 after one Update, got %d", e.GetFrameCount())
	}
	if e.GetCycleCount() < cyclesPerFrameNTSC {
		t.Errorf("expected at least %d cycles elapsed, got %d", cyclesPerFrameNTSC, e.GetCycleCount())
	}

	if err := e.Update(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.GetFrameCount() != 2 {
		t.Errorf("expected frame count 2 after two Updates, got %d", e.GetFrameCount())
	}
}

func TestResetClearsCountersAndBuffers(t *testing.T) {
	e := newTestEmulator(t)
	e.Start()
	e.Update()

	e.Reset()

	if e.GetFrameCount() != 0 || e.GetCycleCount() != 0 {
		t.Errorf("expected counters cleared after reset, got frame=%d cycle=%d", e.GetFrameCount(), e.GetCycleCount())
	}
	for i, v := range e.GetFrameBuffer() {
		if v != 0 {
			t.Fatalf("expected frame buffer cleared after reset, found nonzero at %d", i)
		}
	}
}

func TestFrameBufferMatchesNESResolution(t *testing.T) {
	e := newTestEmulator(t)
	if got := len(e.GetFrameBuffer()); got != 256*240 {
		t.Errorf("expected frame buffer sized 256x240=%d, got %d", 256*240, got)
	}
}

func TestCleanupStopsAndReleasesBuffers(t *testing.T) {
	e := newTestEmulator(t)
	e.Start()

	if err := e.Cleanup(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.IsRunning() {
		t.Errorf("expected cleanup to stop the emulator")
	}
	if e.GetFrameBuffer() != nil {
		t.Errorf("expected frame buffer released after cleanup")
	}
}
