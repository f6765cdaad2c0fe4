package memory

import "testing"

// MockPPU implements PPUInterface for testing.
type MockPPU struct {
	registers [8]uint8
	oamWrites []uint8 // every value written to OAMDATA, in order
}

func (m *MockPPU) ReadRegister(address uint16) uint8 {
	return m.registers[address&0x7]
}

func (m *MockPPU) WriteRegister(address uint16, value uint8) {
	m.registers[address&0x7] = value
	if address&0x7 == 4 {
		m.oamWrites = append(m.oamWrites, value)
	}
}

// MockAPU implements APUInterface for testing.
type MockAPU struct {
	lastWrite uint16
	lastValue uint8
	status    uint8
}

func (m *MockAPU) WriteRegister(address uint16, value uint8) {
	m.lastWrite = address
	m.lastValue = value
}

func (m *MockAPU) ReadStatus() uint8 {
	return m.status
}

// MockCartridge implements CartridgeInterface for testing.
type MockCartridge struct {
	prg [0x8000]uint8
	chr [0x2000]uint8
}

func (m *MockCartridge) ReadPRG(address uint16) uint8 {
	if address >= 0x8000 {
		return m.prg[address-0x8000]
	}
	return 0
}

func (m *MockCartridge) WritePRG(address uint16, value uint8) {
	if address >= 0x8000 {
		m.prg[address-0x8000] = value
	}
}

func (m *MockCartridge) ReadCHR(address uint16) uint8 {
	return m.chr[address&0x1FFF]
}

func (m *MockCartridge) WriteCHR(address uint16, value uint8) {
	m.chr[address&0x1FFF] = value
}

func TestRAMMirroring(t *testing.T) {
	mem := New(&MockPPU{}, &MockAPU{}, &MockCartridge{})

	mem.Write(0x0000, 0x42)

	for _, mirror := range []uint16{0x0000, 0x0800, 0x1000, 0x1800} {
		if got := mem.Read(mirror); got != 0x42 {
			t.Errorf("expected RAM mirror at 0x%04X to read 0x42, got 0x%02X", mirror, got)
		}
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	ppu := &MockPPU{}
	mem := New(ppu, &MockAPU{}, &MockCartridge{})

	mem.Write(0x2000, 0x80)
	if ppu.registers[0] != 0x80 {
		t.Errorf("expected PPUCTRL write to reach PPU, got 0x%02X", ppu.registers[0])
	}

	mem.Write(0x2008, 0x11) // mirrors 0x2000
	if ppu.registers[0] != 0x11 {
		t.Errorf("expected mirrored write at 0x2008 to hit register 0, got 0x%02X", ppu.registers[0])
	}
}

func TestAPUStatusRead(t *testing.T) {
	apu := &MockAPU{status: 0x1F}
	mem := New(&MockPPU{}, apu, &MockCartridge{})

	if got := mem.Read(0x4015); got != 0x1F {
		t.Errorf("expected $4015 to read APU status 0x1F, got 0x%02X", got)
	}
}

func TestCartridgePRGReadWrite(t *testing.T) {
	cart := &MockCartridge{}
	mem := New(&MockPPU{}, &MockAPU{}, cart)

	mem.Write(0x8000, 0xAB)
	if got := mem.Read(0x8000); got != 0xAB {
		t.Errorf("expected PRG ROM round-trip, got 0x%02X", got)
	}
}

func TestOpenBusOnUnmappedExpansionArea(t *testing.T) {
	mem := New(&MockPPU{}, &MockAPU{}, &MockCartridge{})

	mem.Read(0x0000) // establishes an open-bus value of 0
	mem.Write(0x0000, 0x99)
	mem.Read(0x0000) // open bus now latches 0x99

	if got := mem.Read(0x4020); got != 0x99 {
		t.Errorf("expected unmapped expansion area to return lingering open-bus value, got 0x%02X", got)
	}
}

func TestOAMDMACopiesPageIntoPPU(t *testing.T) {
	ppu := &MockPPU{}
	mem := New(ppu, &MockAPU{}, &MockCartridge{})

	mem.Write(0x0200, 0x11)
	mem.performOAMDMA(0x02)

	if len(ppu.oamWrites) != 256 {
		t.Fatalf("expected OAM DMA to write 256 bytes through OAMDATA, got %d", len(ppu.oamWrites))
	}
	if ppu.oamWrites[0] != 0x11 {
		t.Errorf("expected OAM DMA to write through OAMDATA, got 0x%02X", ppu.oamWrites[0])
	}
}

func TestRAMSaveStateRoundTrip(t *testing.T) {
	mem := New(&MockPPU{}, &MockAPU{}, &MockCartridge{})
	mem.Write(0x0000, 0x7A)
	mem.Write(0x07FF, 0x3C)

	snapshot := mem.GetRAM()

	restored := New(&MockPPU{}, &MockAPU{}, &MockCartridge{})
	restored.SetRAM(snapshot)

	if got := restored.Read(0x0000); got != 0x7A {
		t.Errorf("expected restored RAM[0]=0x7A, got 0x%02X", got)
	}
	if got := restored.Read(0x07FF); got != 0x3C {
		t.Errorf("expected restored RAM[0x7FF]=0x3C, got 0x%02X", got)
	}
}

func TestPPUMemoryNametableMirroringHorizontal(t *testing.T) {
	cart := &MockCartridge{}
	pm := NewPPUMemory(cart, MirrorHorizontal)

	pm.Write(0x2000, 0x55)
	if got := pm.Read(0x2400); got != 0x55 {
		t.Errorf("expected horizontal mirroring to map 0x2400 to 0x2000's bank, got 0x%02X", got)
	}
	if got := pm.Read(0x2800); got == 0x55 {
		t.Errorf("expected 0x2800 to be a different bank under horizontal mirroring")
	}
}

func TestPPUMemoryPaletteBackgroundMirroring(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{}, MirrorVertical)

	pm.Write(0x3F00, 0x20)
	if got := pm.Read(0x3F10); got != 0x20 {
		t.Errorf("expected $3F10 to mirror $3F00, got 0x%02X", got)
	}
}

func TestPPUMemoryPaletteSaveStateRoundTrip(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{}, MirrorVertical)
	pm.Write(0x3F01, 0x16)

	snapshot := pm.GetPalette()

	restored := NewPPUMemory(&MockCartridge{}, MirrorVertical)
	restored.SetPalette(snapshot)

	if got := restored.Read(0x3F01); got != 0x16 {
		t.Errorf("expected restored palette[1]=0x16, got 0x%02X", got)
	}
}

func TestPPUMemoryVRAMSaveStateRoundTrip(t *testing.T) {
	pm := NewPPUMemory(&MockCartridge{}, MirrorHorizontal)
	pm.Write(0x2005, 0x9A)

	snapshot := pm.GetVRAM()

	restored := NewPPUMemory(&MockCartridge{}, MirrorHorizontal)
	restored.SetVRAM(snapshot)

	if got := restored.Read(0x2005); got != 0x9A {
		t.Errorf("expected restored VRAM to carry over, got 0x%02X", got)
	}
}
