package app

import (
	"testing"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
)

func newStateTestBus(t *testing.T) *bus.Bus {
	t.Helper()
	mock := cartridge.NewMockCartridge()
	prg := make([]uint8, 0x8000)
	prg[0x7FFC], prg[0x7FFD] = 0x00, 0x80
	mock.LoadPRG(prg)

	b := bus.New()
	b.LoadCartridge(mock)
	return b
}

func TestSaveAndLoadStateRoundTripsCPUState(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	b := newStateTestBus(t)

	b.CPU.A = 0x42
	b.CPU.X = 0x11
	b.CPU.PC = 0x8123
	romPath := "test.nes"

	if err := sm.SaveState(b, 0, romPath); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	b.CPU.A = 0x00
	b.CPU.PC = 0x0000

	if err := sm.LoadState(b, 0, romPath); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if b.CPU.A != 0x42 {
		t.Errorf("expected A restored to 0x42, got 0x%02X", b.CPU.A)
	}
	if b.CPU.X != 0x11 {
		t.Errorf("expected X restored to 0x11, got 0x%02X", b.CPU.X)
	}
	if b.CPU.PC != 0x8123 {
		t.Errorf("expected PC restored to 0x8123, got 0x%04X", b.CPU.PC)
	}
}

func TestSaveAndLoadStateRoundTripsPPUAndMemory(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	b := newStateTestBus(t)
	romPath := "test.nes"

	b.Memory.Write(0x0010, 0x77)
	b.PPU.WriteOAM(0x04, 0x99)
	b.PPU.WriteRegister(0x2000, 0x90) // PPUCTRL
	b.PPU.WriteRegister(0x2001, 0x18) // PPUMASK: enable background+sprites

	if err := sm.SaveState(b, 1, romPath); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	fresh := newStateTestBus(t)
	if err := sm.LoadState(fresh, 1, romPath); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if got := fresh.Memory.Read(0x0010); got != 0x77 {
		t.Errorf("expected RAM[0x10]=0x77 restored, got 0x%02X", got)
	}
	if got := fresh.PPU.GetOAM()[4]; got != 0x99 {
		t.Errorf("expected OAM[4]=0x99 restored, got 0x%02X", got)
	}
	if !fresh.PPU.IsRenderingEnabled() {
		t.Errorf("expected rendering-enabled flag restored from PPUMASK")
	}
}

func TestLoadStateRejectsMismatchedROM(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	b := newStateTestBus(t)

	if err := sm.SaveState(b, 0, "roms/test.nes"); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	// Same base filename (so the slot file resolves) but a different full
	// path, which validateSaveState should reject as a ROM mismatch.
	if err := sm.LoadState(b, 0, "other/test.nes"); err == nil {
		t.Errorf("expected LoadState to reject a save state from a different ROM")
	}
}

func TestHasSaveStateReflectsSlotUsage(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	b := newStateTestBus(t)
	romPath := "test.nes"

	if sm.HasSaveState(0, romPath) {
		t.Errorf("expected no save state before saving")
	}
	if err := sm.SaveState(b, 0, romPath); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	if !sm.HasSaveState(0, romPath) {
		t.Errorf("expected save state to exist after saving")
	}

	if err := sm.DeleteState(0, romPath); err != nil {
		t.Fatalf("DeleteState failed: %v", err)
	}
	if sm.HasSaveState(0, romPath) {
		t.Errorf("expected save state removed after delete")
	}
}

func TestExportAndImportStateRoundTrip(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	b := newStateTestBus(t)
	romPath := "test.nes"

	b.CPU.Y = 0x55
	exportPath := t.TempDir() + "/export.save"
	if err := sm.ExportState(b, exportPath, romPath); err != nil {
		t.Fatalf("ExportState failed: %v", err)
	}

	fresh := newStateTestBus(t)
	if err := sm.ImportState(fresh, exportPath, romPath); err != nil {
		t.Fatalf("ImportState failed: %v", err)
	}
	if fresh.CPU.Y != 0x55 {
		t.Errorf("expected Y restored to 0x55 via import, got 0x%02X", fresh.CPU.Y)
	}
}

func TestInvalidSlotNumberRejected(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	b := newStateTestBus(t)

	if err := sm.SaveState(b, -1, "test.nes"); err == nil {
		t.Errorf("expected negative slot number to be rejected")
	}
	if err := sm.SaveState(b, sm.GetMaxSlots(), "test.nes"); err == nil {
		t.Errorf("expected out-of-range slot number to be rejected")
	}
}
