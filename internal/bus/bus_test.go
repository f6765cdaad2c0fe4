package bus

import (
	"testing"

	"nescore/internal/cartridge"
)

// newTestBusWithROM builds a bus with a cartridge whose reset vector points
// at 0x8000, pre-loaded with the given program bytes starting there.
func newTestBusWithROM(program ...uint8) *Bus {
	mock := cartridge.NewMockCartridge()
	prg := make([]uint8, 0x8000)
	prg[0x7FFC] = 0x00 // reset vector low
	prg[0x7FFD] = 0x80 // reset vector high -> 0x8000
	for i, b := range program {
		prg[i] = b
	}
	mock.LoadPRG(prg)

	b := New()
	b.LoadCartridge(mock)
	return b
}

func TestNewBusWiresComponents(t *testing.T) {
	b := New()
	if b.CPU == nil || b.PPU == nil || b.APU == nil || b.Memory == nil || b.Input == nil {
		t.Fatalf("expected all core components to be initialized")
	}
	if b.GetCycleCount() != 0 || b.GetFrameCount() != 0 {
		t.Errorf("expected fresh bus to start at cycle=0 frame=0")
	}
}

func TestStepRunsPPUAtThreeTimesCPURate(t *testing.T) {
	b := newTestBusWithROM(0xEA) // NOP

	b.Step()

	if b.ppuCycles != b.cpuCycles*3 {
		t.Errorf("expected PPU cycles = 3x CPU cycles, got ppu=%d cpu=%d", b.ppuCycles, b.cpuCycles)
	}
	if b.cpuCycles == 0 {
		t.Errorf("expected at least one CPU cycle to have elapsed")
	}
}

func TestOAMDMASuspendsCPUForExpectedCycles(t *testing.T) {
	b := newTestBusWithROM(0xEA)
	b.cpuCycles = 0 // force even parity -> 513 cycles

	b.TriggerOAMDMA(0x00)

	if !b.IsDMAInProgress() {
		t.Errorf("expected DMA in progress immediately after trigger")
	}
	if b.dmaSuspendCycles != 513 {
		t.Errorf("expected 513 suspend cycles on even CPU cycle count, got %d", b.dmaSuspendCycles)
	}
}

func TestOAMDMACopiesSourcePageIntoOAM(t *testing.T) {
	b := newTestBusWithROM(0xEA)
	b.Memory.Write(0x0200, 0x55)

	b.TriggerOAMDMA(0x02)

	if got := b.PPU.GetOAM()[0]; got != 0x55 {
		t.Errorf("expected OAM[0]=0x55 after DMA from page 2, got 0x%02X", got)
	}
}

func TestOAMDMAStartsAtOAMADDRAndWraps(t *testing.T) {
	b := newTestBusWithROM(0xEA)
	b.Memory.Write(0x0200, 0xAA) // source byte 0
	b.Memory.Write(0x0201, 0xBB) // source byte 1
	b.Memory.Write(0x02FF, 0xCC) // source byte 255

	b.PPU.WriteRegister(0x2003, 0xFE) // OAMADDR = 0xFE

	b.TriggerOAMDMA(0x02)

	oam := b.PPU.GetOAM()
	if oam[0xFE] != 0xAA {
		t.Errorf("expected OAM[0xFE]=0xAA (first DMA byte lands at OAMADDR), got 0x%02X", oam[0xFE])
	}
	if oam[0xFF] != 0xBB {
		t.Errorf("expected OAM[0xFF]=0xBB, got 0x%02X", oam[0xFF])
	}
	// Byte i lands at (0xFE + i) & 0xFF, so byte 255 wraps around to 0xFD
	if oam[0xFD] != 0xCC {
		t.Errorf("expected OAMADDR to wrap and OAM[0xFD]=0xCC (last DMA byte), got 0x%02X", oam[0xFD])
	}
}

func TestSetCycleCountAndFrameCountRoundTrip(t *testing.T) {
	b := New()
	b.SetCycleCount(12345)
	b.SetFrameCount(42)

	if b.GetCycleCount() != 12345 {
		t.Errorf("expected cycle count 12345, got %d", b.GetCycleCount())
	}
	if b.GetFrameCount() != 42 {
		t.Errorf("expected frame count 42, got %d", b.GetFrameCount())
	}
	if b.PPU.GetFrameCount() != 42 {
		t.Errorf("expected PPU frame count synchronized to 42, got %d", b.PPU.GetFrameCount())
	}
}

func TestExecutionLoggingRecordsSteps(t *testing.T) {
	b := newTestBusWithROM(0xEA, 0xEA, 0xEA)
	b.EnableExecutionLogging()

	b.Step()
	b.Step()

	log := b.GetExecutionLog()
	if len(log) != 2 {
		t.Fatalf("expected 2 logged steps, got %d", len(log))
	}
	if log[0].Mnemonic == "" {
		t.Errorf("expected a non-empty mnemonic in the execution log")
	}

	b.DisableExecutionLogging()
	b.Step()
	if len(b.GetExecutionLog()) != 2 {
		t.Errorf("expected logging disabled to stop appending entries")
	}
}

func TestMemoryWatchpointDetectsChange(t *testing.T) {
	b := newTestBusWithROM(0xEA)
	b.Memory.Write(0x0010, 0x00)
	b.AddMemoryWatchpoint(0x0010)
	b.EnableWatchpointLogging(true)

	b.Memory.Write(0x0010, 0x99)
	b.CheckMemoryWatchpoints()

	if b.memoryWatchpoints[0x0010] != 0x99 {
		t.Errorf("expected watchpoint baseline updated to 0x99 after detecting change")
	}
}

func TestResetClearsCyclesAndExecutionLog(t *testing.T) {
	b := newTestBusWithROM(0xEA)
	b.Step()
	b.Reset()

	if b.GetCycleCount() != 0 {
		t.Errorf("expected cycle count reset to 0, got %d", b.GetCycleCount())
	}
	if len(b.GetExecutionLog()) != 0 {
		t.Errorf("expected execution log cleared on reset")
	}
}
