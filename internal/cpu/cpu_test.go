package cpu

import "testing"

// MockMemory implements MemoryInterface for testing.
type MockMemory struct {
	data [0x10000]uint8
}

func NewMockMemory() *MockMemory {
	return &MockMemory{}
}

func (m *MockMemory) Read(address uint16) uint8 {
	return m.data[address]
}

func (m *MockMemory) Write(address uint16, value uint8) {
	m.data[address] = value
}

func (m *MockMemory) SetBytes(address uint16, values ...uint8) {
	for i, value := range values {
		m.data[address+uint16(i)] = value
	}
}

// CPUTestHelper bundles a CPU with its backing memory for test setup.
type CPUTestHelper struct {
	CPU    *CPU
	Memory *MockMemory
}

func NewCPUTestHelper() *CPUTestHelper {
	memory := NewMockMemory()
	return &CPUTestHelper{
		CPU:    New(memory),
		Memory: memory,
	}
}

func (h *CPUTestHelper) SetupResetVector(address uint16) {
	h.Memory.SetBytes(0xFFFC, uint8(address&0xFF), uint8(address>>8))
	h.CPU.Reset()
}

func (h *CPUTestHelper) LoadProgram(address uint16, program ...uint8) {
	h.Memory.SetBytes(address, program...)
}

func TestCPUInitialization(t *testing.T) {
	h := NewCPUTestHelper()

	if h.CPU.A != 0 || h.CPU.X != 0 || h.CPU.Y != 0 {
		t.Errorf("expected A=X=Y=0 before reset, got A=%02X X=%02X Y=%02X", h.CPU.A, h.CPU.X, h.CPU.Y)
	}
	if h.CPU.SP != 0xFD {
		t.Errorf("expected SP=0xFD, got 0x%02X", h.CPU.SP)
	}
}

func TestCPUReset(t *testing.T) {
	h := NewCPUTestHelper()

	h.CPU.A, h.CPU.X, h.CPU.Y = 0x55, 0xAA, 0xFF
	h.CPU.SP = 0x00
	h.CPU.PC = 0x1234

	h.SetupResetVector(0x8000)

	if h.CPU.A != 0x00 || h.CPU.X != 0x00 || h.CPU.Y != 0x00 {
		t.Errorf("expected registers cleared after reset, got A=%02X X=%02X Y=%02X", h.CPU.A, h.CPU.X, h.CPU.Y)
	}
	if h.CPU.SP != 0xFD {
		t.Errorf("expected SP=0xFD after reset, got 0x%02X", h.CPU.SP)
	}
	if h.CPU.PC != 0x8000 {
		t.Errorf("expected PC=0x8000 after reset, got 0x%04X", h.CPU.PC)
	}
	if !h.CPU.I {
		t.Errorf("expected I flag set after reset")
	}
	if !h.CPU.B {
		t.Errorf("expected B flag set after reset")
	}
}

func TestLDAImmediateSetsFlags(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)

	h.LoadProgram(0x8000, 0xA9, 0x00) // LDA #$00
	h.CPU.Step()

	if h.CPU.A != 0 {
		t.Errorf("expected A=0x00, got 0x%02X", h.CPU.A)
	}
	if !h.CPU.Z {
		t.Errorf("expected Z flag set for zero load")
	}
	if h.CPU.N {
		t.Errorf("expected N flag clear for zero load")
	}

	h.LoadProgram(0x8002, 0xA9, 0x80) // LDA #$80
	h.CPU.Step()

	if h.CPU.A != 0x80 {
		t.Errorf("expected A=0x80, got 0x%02X", h.CPU.A)
	}
	if !h.CPU.N {
		t.Errorf("expected N flag set for negative load")
	}
	if h.CPU.Z {
		t.Errorf("expected Z flag clear for negative load")
	}
}

func TestADCCarryAndOverflow(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)

	h.CPU.A = 0x7F // +127
	h.LoadProgram(0x8000, 0x69, 0x01) // ADC #$01 -> overflow into negative
	h.CPU.Step()

	if h.CPU.A != 0x80 {
		t.Errorf("expected A=0x80, got 0x%02X", h.CPU.A)
	}
	if !h.CPU.V {
		t.Errorf("expected V flag set on signed overflow")
	}
	if !h.CPU.N {
		t.Errorf("expected N flag set")
	}
	if h.CPU.C {
		t.Errorf("expected C flag clear (no unsigned carry)")
	}
}

func TestBranchTakenAddsCycleAndPageCross(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x80F0)

	h.CPU.Z = true
	h.LoadProgram(0x80F0, 0xF0, 0x10) // BEQ +16, crosses to 0x8102

	before := h.CPU.cycles
	cycles := h.CPU.Step()

	if h.CPU.PC != 0x8102 {
		t.Errorf("expected PC=0x8102 after taken branch, got 0x%04X", h.CPU.PC)
	}
	if h.CPU.cycles-before != cycles {
		t.Errorf("cycle accounting mismatch: delta=%d, returned=%d", h.CPU.cycles-before, cycles)
	}
	if cycles < 3 {
		t.Errorf("expected at least 3 cycles for page-crossing taken branch, got %d", cycles)
	}
}

func TestNMITriggersDuringStep(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0xFFFA, 0x00, 0x90) // NMI vector -> 0x9000
	h.SetupResetVector(0x8000)

	h.LoadProgram(0x8000, 0xEA) // NOP
	h.CPU.TriggerNMI()
	h.CPU.Step()

	if h.CPU.PC != 0x9000 {
		t.Errorf("expected PC=0x9000 after NMI dispatch, got 0x%04X", h.CPU.PC)
	}
	if !h.CPU.I {
		t.Errorf("expected I flag set after interrupt dispatch")
	}
}

func TestIRQIgnoredWhenInterruptsDisabled(t *testing.T) {
	h := NewCPUTestHelper()
	h.Memory.SetBytes(0xFFFE, 0x00, 0x90) // IRQ vector -> 0x9000
	h.SetupResetVector(0x8000)
	h.CPU.I = true

	h.LoadProgram(0x8000, 0xEA) // NOP
	h.CPU.TriggerIRQ()
	h.CPU.Step()

	if h.CPU.PC == 0x9000 {
		t.Errorf("expected IRQ to be masked by I flag, but vector was dispatched")
	}
}

func TestStackPushPopRoundTrip(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)

	h.LoadProgram(0x8000, 0x48) // PHA
	h.CPU.A = 0x42
	h.CPU.Step()

	if h.Memory.Read(0x0100 | uint16(h.CPU.SP+1)) != 0x42 {
		t.Errorf("expected 0x42 on stack after PHA")
	}

	h.LoadProgram(0x8001, 0x68) // PLA
	h.CPU.A = 0x00
	h.CPU.Step()

	if h.CPU.A != 0x42 {
		t.Errorf("expected A restored to 0x42 after PLA, got 0x%02X", h.CPU.A)
	}
}

func TestPHPSetsBFlagInPushedByteOnly(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)
	h.CPU.B = false

	h.LoadProgram(0x8000, 0x08) // PHP
	h.CPU.Step()

	pushed := h.Memory.Read(0x0100 | uint16(h.CPU.SP+1))
	if pushed&bFlagMask == 0 {
		t.Errorf("expected PHP to push B flag set in the byte on the stack, got 0x%02X", pushed)
	}
}

func TestPLPMasksBFlagOutOfLiveStatus(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)

	// A byte with bit 4 (B) set, as BRK/PHP would have pushed it.
	h.CPU.push(0xFF)
	h.LoadProgram(0x8000, 0x28) // PLP
	h.CPU.Step()

	if h.CPU.B {
		t.Errorf("expected PLP to force the live B flag clear regardless of bit 4 in the pulled byte")
	}
}

func TestRTIMasksBFlagOutOfLiveStatus(t *testing.T) {
	h := NewCPUTestHelper()
	h.SetupResetVector(0x8000)

	h.CPU.pushWord(0x9000) // return address
	h.CPU.push(0xFF)       // status byte with B set
	h.LoadProgram(0x8000, 0x40) // RTI
	h.CPU.Step()

	if h.CPU.B {
		t.Errorf("expected RTI to force the live B flag clear regardless of bit 4 in the pulled byte")
	}
	if h.CPU.PC != 0x9000 {
		t.Errorf("expected PC restored to 0x9000 after RTI, got 0x%04X", h.CPU.PC)
	}
}
