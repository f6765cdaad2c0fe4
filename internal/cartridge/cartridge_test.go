package cartridge

import (
	"bytes"
	"testing"
)

// buildINES assembles a minimal iNES image: 16-byte header, PRG ROM,
// CHR ROM (no trainer).
func buildINES(prgBanks, chrBanks uint8, flags6 uint8, prgFill uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString("NES\x1A")
	buf.WriteByte(prgBanks)
	buf.WriteByte(chrBanks)
	buf.WriteByte(flags6)
	buf.WriteByte(0x00) // flags7: mapper 0
	buf.Write(make([]byte, 8)) // PRG RAM size, TV system bytes, padding

	prg := make([]byte, int(prgBanks)*16384)
	for i := range prg {
		prg[i] = prgFill
	}
	buf.Write(prg)

	if chrBanks > 0 {
		buf.Write(make([]byte, int(chrBanks)*8192))
	}

	return buf.Bytes()
}

func TestLoadFromReaderRejectsBadMagic(t *testing.T) {
	data := []byte("XXXX0000000000000")
	if _, err := LoadFromReader(bytes.NewReader(data)); err == nil {
		t.Errorf("expected error for invalid iNES magic")
	}
}

func TestLoadFromReaderRejectsZeroPRG(t *testing.T) {
	data := buildINES(0, 1, 0x00, 0)
	if _, err := LoadFromReader(bytes.NewReader(data)); err == nil {
		t.Errorf("expected error for zero-size PRG ROM")
	}
}

func TestLoadFromReaderUnsupportedMapperIsFatal(t *testing.T) {
	data := buildINES(1, 1, 0xF0, 0x11) // mapper nibble 15 in flags6
	_, err := LoadFromReader(bytes.NewReader(data))
	if err == nil {
		t.Fatalf("expected error for unsupported mapper")
	}
	if _, ok := err.(*FatalConfigurationError); !ok {
		t.Errorf("expected *FatalConfigurationError, got %T", err)
	}
}

func TestLoadFromReaderMirroringFromFlags6(t *testing.T) {
	vertical := buildINES(1, 1, 0x01, 0x11)
	cart, err := LoadFromReader(bytes.NewReader(vertical))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.GetMirrorMode() != MirrorVertical {
		t.Errorf("expected vertical mirroring from flags6 bit 0")
	}

	fourScreen := buildINES(1, 1, 0x08, 0x11)
	cart, err = LoadFromReader(bytes.NewReader(fourScreen))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.GetMirrorMode() != MirrorFourScreen {
		t.Errorf("expected four-screen mirroring from flags6 bit 3")
	}
}

func TestNROM16KBMirrorsAcrossPRGSpace(t *testing.T) {
	data := buildINES(1, 1, 0x00, 0xAB) // 16KB PRG ROM filled with 0xAB
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cart.ReadPRG(0x8000); got != 0xAB {
		t.Errorf("expected 0xAB at 0x8000, got 0x%02X", got)
	}
	if got := cart.ReadPRG(0xC000); got != 0xAB {
		t.Errorf("expected 16KB ROM mirrored at 0xC000, got 0x%02X", got)
	}
}

func TestCHRRAMAllocatedWhenHeaderDeclaresNone(t *testing.T) {
	data := buildINES(1, 0, 0x00, 0x11)
	cart, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart.WriteCHR(0x0010, 0x5A)
	if got := cart.ReadCHR(0x0010); got != 0x5A {
		t.Errorf("expected CHR RAM to be writable when no CHR ROM declared, got 0x%02X", got)
	}
}

func TestMockCartridgePRGROMRoundTrip(t *testing.T) {
	mock := NewMockCartridge()
	mock.LoadPRG([]uint8{0x01, 0x02, 0x03})
	if got := mock.ReadPRG(0x8000); got != 0x01 {
		t.Errorf("expected loaded PRG ROM byte at 0x8000, got 0x%02X", got)
	}
}
