package ppu

import (
	"testing"

	"nescore/internal/memory"
)

// MockCartridge implements a simple cartridge for testing.
type MockCartridge struct {
	chrData [0x2000]uint8
}

func (m *MockCartridge) ReadPRG(address uint16) uint8          { return 0 }
func (m *MockCartridge) WritePRG(address uint16, value uint8)  {}
func (m *MockCartridge) ReadCHR(address uint16) uint8          { return m.chrData[address&0x1FFF] }
func (m *MockCartridge) WriteCHR(address uint16, value uint8)  { m.chrData[address&0x1FFF] = value }

func newTestPPU() (*PPU, *MockCartridge) {
	cart := &MockCartridge{}
	mem := memory.NewPPUMemory(cart, memory.MirrorHorizontal)
	p := New()
	p.SetMemory(mem)
	return p, cart
}

func TestPPUInitialState(t *testing.T) {
	p, _ := newTestPPU()
	if p.scanline != -1 || p.cycle != 0 {
		t.Errorf("expected fresh PPU to start at scanline=-1 cycle=0, got scanline=%d cycle=%d", p.scanline, p.cycle)
	}
}

func TestPPUCTRLWriteSetsNametableBitsInT(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, 0x03) // select nametable 3

	if p.t&0x0C00 != 0x0C00 {
		t.Errorf("expected t's nametable bits set from PPUCTRL, got t=0x%04X", p.t)
	}
}

func TestPPUSTATUSReadClearsVBlankAndLatch(t *testing.T) {
	p, _ := newTestPPU()
	p.ppuStatus = 0x80
	p.w = true

	status := p.ReadRegister(0x2002)

	if status&0x80 == 0 {
		t.Errorf("expected returned status to report VBlank before clearing")
	}
	if p.ppuStatus&0x80 != 0 {
		t.Errorf("expected VBlank flag cleared after PPUSTATUS read")
	}
	if p.w {
		t.Errorf("expected write latch cleared after PPUSTATUS read")
	}
}

func TestPPUScrollWriteSequence(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2005, 0x7D) // first write: coarse X=15, fine X=5
	if p.x != 5 {
		t.Errorf("expected fine X=5, got %d", p.x)
	}
	if !p.w {
		t.Errorf("expected write latch set after first PPUSCROLL write")
	}

	p.WriteRegister(0x2005, 0x5E) // second write: fine/coarse Y
	if p.w {
		t.Errorf("expected write latch cleared after second PPUSCROLL write")
	}
}

func TestPPUAddrWriteSequenceLoadsV(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2006, 0x21)
	p.WriteRegister(0x2006, 0x08)

	if p.v != 0x2108 {
		t.Errorf("expected v=0x2108 after two PPUADDR writes, got 0x%04X", p.v)
	}
}

func TestPPUDataReadIsBufferedForNametables(t *testing.T) {
	p, _ := newTestPPU()
	p.memory.Write(0x2005, 0x42)

	p.WriteRegister(0x2006, 0x20)
	p.WriteRegister(0x2006, 0x05)

	first := p.ReadRegister(0x2007)
	if first != 0 {
		t.Errorf("expected first PPUDATA read to return stale buffer (0), got 0x%02X", first)
	}
	second := p.ReadRegister(0x2007)
	if second != 0x42 {
		t.Errorf("expected second PPUDATA read to return buffered value 0x42, got 0x%02X", second)
	}
}

func TestPPUDataReadIsUnbufferedForPalette(t *testing.T) {
	p, _ := newTestPPU()
	p.memory.Write(0x3F05, 0x16)

	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x05)

	value := p.ReadRegister(0x2007)
	if value != 0x16 {
		t.Errorf("expected palette read to bypass the buffer and return 0x16 immediately, got 0x%02X", value)
	}
}

func TestOAMDataReadWrite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2003, 0x10) // OAMADDR
	p.WriteRegister(0x2004, 0x99) // OAMDATA

	if p.oam[0x10] != 0x99 {
		t.Errorf("expected OAM[0x10]=0x99, got 0x%02X", p.oam[0x10])
	}
	if p.oamAddr != 0x11 {
		t.Errorf("expected OAMADDR to auto-increment to 0x11, got 0x%02X", p.oamAddr)
	}
}

func TestVBlankFlagAndNMIAtScanline241(t *testing.T) {
	p, _ := newTestPPU()
	nmiCount := 0
	p.SetNMICallback(func() { nmiCount++ })
	p.WriteRegister(0x2000, 0x80) // enable NMI-on-VBlank

	p.scanline = 241
	p.cycle = 0
	p.Step()

	if !p.IsVBlank() {
		t.Errorf("expected VBlank flag set entering scanline 241 cycle 1")
	}
	if nmiCount != 1 {
		t.Errorf("expected exactly one NMI fired, got %d", nmiCount)
	}
}

func TestVBlankClearedAtPreRenderScanline(t *testing.T) {
	p, _ := newTestPPU()
	p.ppuStatus |= 0x80
	p.scanline = -1
	p.cycle = 0

	p.Step()

	if p.IsVBlank() {
		t.Errorf("expected VBlank flag cleared entering pre-render scanline cycle 1")
	}
}

func TestSprite0HitSurvivesMultiplePPUSTATUSReads(t *testing.T) {
	p, _ := newTestPPU()
	p.sprite0Hit = true
	p.ppuStatus |= 0x40

	first := p.ReadRegister(0x2002)
	if first&0x40 == 0 {
		t.Errorf("expected sprite-0-hit bit set on first PPUSTATUS read")
	}
	second := p.ReadRegister(0x2002)
	if second&0x40 == 0 {
		t.Errorf("expected sprite-0-hit bit to still be set on a second PPUSTATUS read; PPUSTATUS reads must not clear sprite-0-hit")
	}
	if !p.sprite0Hit {
		t.Errorf("expected internal sprite0Hit flag untouched by PPUSTATUS reads")
	}
}

func TestSprite0HitAndOverflowClearOnlyAtPreRender(t *testing.T) {
	p, _ := newTestPPU()
	p.sprite0Hit = true
	p.spriteOverflow = true
	p.ppuStatus |= 0x60 // sprite-0-hit + sprite-overflow bits

	p.scanline = 241
	p.cycle = 0
	p.Step()

	if !p.sprite0Hit || p.ppuStatus&0x40 == 0 {
		t.Errorf("expected sprite-0-hit to survive VBlank start, not be cleared there")
	}
	if !p.spriteOverflow || p.ppuStatus&0x20 == 0 {
		t.Errorf("expected sprite-overflow to survive VBlank start, not be cleared there")
	}

	p.scanline = -1
	p.cycle = 0
	p.Step()

	if p.sprite0Hit || p.ppuStatus&0x40 != 0 {
		t.Errorf("expected sprite-0-hit cleared at pre-render dot 1")
	}
	if p.spriteOverflow || p.ppuStatus&0x20 != 0 {
		t.Errorf("expected sprite-overflow cleared at pre-render dot 1")
	}
}

func TestFrameCompletesAfterFullScanlineGrid(t *testing.T) {
	p, _ := newTestPPU()
	frames := 0
	p.SetFrameCompleteCallback(func() { frames++ })

	totalDots := 262 * 341
	for i := 0; i < totalDots; i++ {
		p.Step()
	}

	if frames != 1 {
		t.Errorf("expected exactly one frame-complete callback after 262*341 dots, got %d", frames)
	}
	if p.GetFrameCount() != 1 {
		t.Errorf("expected frame count=1, got %d", p.GetFrameCount())
	}
}

func TestRegisterSnapshotRoundTrip(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, 0x90)
	p.WriteRegister(0x2001, 0x18)
	p.WriteRegister(0x2006, 0x3F)
	p.WriteRegister(0x2006, 0x00)

	snapshot := p.GetRegisterSnapshot()

	restored, _ := newTestPPU()
	restored.RestoreRegisterSnapshot(snapshot)

	if restored.v != p.v || restored.t != p.t || restored.ppuCtrl != p.ppuCtrl || restored.ppuMask != p.ppuMask {
		t.Errorf("expected restored register state to match snapshot, got v=0x%04X t=0x%04X ctrl=0x%02X mask=0x%02X",
			restored.v, restored.t, restored.ppuCtrl, restored.ppuMask)
	}
	if !restored.renderingEnabled {
		t.Errorf("expected rendering-enabled flag recomputed after restore")
	}
}

func TestOAMSaveStateRoundTrip(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteOAM(0x05, 0x77)

	data := p.GetOAM()

	restored, _ := newTestPPU()
	restored.SetOAM(data)

	if restored.oam[0x05] != 0x77 {
		t.Errorf("expected restored OAM[5]=0x77, got 0x%02X", restored.oam[0x05])
	}
}

func TestSpriteOverflowFlagSetOnNinthSprite(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, 0x10) // enable sprites

	for i := 0; i < 9; i++ {
		base := i * 4
		p.oam[base] = 10 // Y
		p.oam[base+1] = 0
		p.oam[base+2] = 0
		p.oam[base+3] = uint8(i * 8)
	}

	p.scanline = 11
	p.cycle = 1
	p.evaluateSprites()

	if !p.spriteOverflow {
		t.Errorf("expected sprite overflow flag set with 9 sprites on one scanline")
	}
	if p.spriteCount != 8 {
		t.Errorf("expected secondary OAM capped at 8 sprites, got %d", p.spriteCount)
	}
}
