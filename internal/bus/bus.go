// Package bus implements the system bus for communication between NES components.
package bus

import (
	"fmt"

	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

// Bus connects all NES components together
type Bus struct {
	// Core components
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Input  *input.InputState

	// System state
	totalCycles uint64
	cpuCycles   uint64
	ppuCycles   uint64
	frameCount  uint64

	// Timing coordination
	dmaSuspendCycles uint64
	dmaInProgress    bool
	nmiPending       bool

	// Frame timing (NTSC: 262 scanlines, 341 PPU cycles/scanline)
	cyclesPerFrame uint64 // 89342 PPU cycles = 29780.67 CPU cycles

	// Execution logging (C19 debug surface)
	executionLog   []BusExecutionEvent
	loggingEnabled bool

	// Memory watchpoints (C19 debug surface)
	memoryWatchpoints map[uint16]uint8
	watchpointLogging bool
}

// New creates a new system bus with all components
func New() *Bus {
	bus := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),

		// NTSC timing: 89342 PPU cycles per frame
		cyclesPerFrame: 89342,

		memoryWatchpoints: make(map[uint16]uint8),
	}

	// Memory needs references to PPU and APU
	bus.Memory = memory.New(bus.PPU, bus.APU, nil) // Cartridge will be set later
	bus.Memory.SetInputSystem(bus.Input)

	bus.CPU = cpu.New(bus.Memory)

	bus.PPU.SetNMICallback(bus.triggerNMI)
	bus.PPU.SetFrameCompleteCallback(bus.handleFrameComplete)
	bus.Memory.SetDMACallback(bus.TriggerOAMDMA)

	bus.Reset()

	return bus
}

// Reset resets all components to their initial state
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()

	b.totalCycles = 0
	b.cpuCycles = 0
	b.ppuCycles = 0
	b.frameCount = 0
	b.dmaSuspendCycles = 0
	b.dmaInProgress = false
	b.nmiPending = false

	b.PPU.SetFrameCount(0)

	b.executionLog = make([]BusExecutionEvent, 0)
	b.loggingEnabled = false

	b.memoryWatchpoints = make(map[uint16]uint8)
	b.watchpointLogging = false
}

// triggerNMI is called by the PPU when VBlank's falling edge should latch an NMI
func (b *Bus) triggerNMI() {
	b.nmiPending = true
}

// handleFrameComplete is called by the PPU when a frame is naturally completed
func (b *Bus) handleFrameComplete() {
	b.frameCount = b.PPU.GetFrameCount()
}

// Step executes one CPU instruction and advances other components accordingly
func (b *Bus) Step() {
	var cpuCycles uint64

	var before cpu.Snapshot
	var opcode uint8
	if b.loggingEnabled {
		before = b.CPU.Snapshot()
		opcode = b.Memory.Read(before.PC)
	}

	if b.dmaSuspendCycles > 0 {
		cpuCycles = 1
		b.dmaSuspendCycles--
		if b.dmaSuspendCycles == 0 {
			b.dmaInProgress = false
		}
	} else {
		if b.nmiPending {
			b.CPU.TriggerNMI()
			b.nmiPending = false
		}
		cpuCycles = b.CPU.Step()
	}

	// PPU runs at exactly 3x CPU speed (§4.8)
	ppuCyclesToRun := cpuCycles * 3
	for i := uint64(0); i < ppuCyclesToRun; i++ {
		b.PPU.Step()
		b.ppuCycles++
	}

	for i := uint64(0); i < cpuCycles; i++ {
		b.APU.Step()
	}

	b.cpuCycles += cpuCycles
	b.totalCycles += cpuCycles

	if b.watchpointLogging {
		b.CheckMemoryWatchpoints()
	}

	if b.loggingEnabled {
		after := b.CPU.Snapshot()
		b.executionLog = append(b.executionLog, BusExecutionEvent{
			StepNumber:    len(b.executionLog) + 1,
			Before:        before,
			After:         after,
			Opcode:        opcode,
			Mnemonic:      b.CPU.OpcodeName(opcode),
			CPUCycles:     cpuCycles,
			PPUCycles:     ppuCyclesToRun,
			FrameCount:    b.frameCount,
			DMAActive:     b.dmaInProgress,
		})
	}
}

// TriggerOAMDMA initiates an OAM DMA transfer (C10)
func (b *Bus) TriggerOAMDMA(sourcePage uint8) {
	if b.dmaInProgress {
		return
	}

	dmaCycles := uint64(513)
	if b.cpuCycles%2 == 1 {
		dmaCycles = 514
	}

	b.dmaInProgress = true
	b.dmaSuspendCycles = dmaCycles

	sourceAddress := uint16(sourcePage) << 8
	for i := 0; i < 256; i++ {
		data := b.Memory.Read(sourceAddress + uint16(i))
		// Goes through the OAMDATA ($2004) write path so the transfer starts
		// at the current OAMADDR and wraps with the normal post-increment,
		// instead of always landing at OAM offset 0.
		b.PPU.WriteRegister(0x2004, data)
	}
}

// LoadCartridge loads a cartridge into the system
func (b *Bus) LoadCartridge(cart memory.CartridgeInterface) {
	b.Memory = memory.New(b.PPU, b.APU, cart)
	b.Memory.SetInputSystem(b.Input)

	b.CPU = cpu.New(b.Memory)

	mirrorMode := memory.MirrorHorizontal
	if cart, ok := cart.(*cartridge.Cartridge); ok {
		switch cart.GetMirrorMode() {
		case cartridge.MirrorHorizontal:
			mirrorMode = memory.MirrorHorizontal
		case cartridge.MirrorVertical:
			mirrorMode = memory.MirrorVertical
		case cartridge.MirrorFourScreen:
			mirrorMode = memory.MirrorFourScreen
		}
	}

	ppuMemory := memory.NewPPUMemory(cart, mirrorMode)
	b.PPU.SetMemory(ppuMemory)

	b.PPU.SetNMICallback(b.triggerNMI)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)

	b.CPU.Reset()
}

// Run runs the emulator for a specified number of frames
func (b *Bus) Run(frames int) {
	targetFrames := b.frameCount + uint64(frames)
	for b.frameCount < targetFrames {
		b.Step()
	}
}

// RunCycles runs the emulator for a specified number of CPU cycles
func (b *Bus) RunCycles(cycles uint64) {
	targetCycles := b.cpuCycles + cycles
	for b.cpuCycles < targetCycles {
		b.Step()
	}
}

// GetFrameRate returns the NTSC frame rate.
func (b *Bus) GetFrameRate() float64 {
	return 60.098803
}

// GetFrameBuffer returns the current PPU frame buffer
func (b *Bus) GetFrameBuffer() []uint32 {
	frameBuffer := b.PPU.GetFrameBuffer()
	return frameBuffer[:]
}

// GetAudioSamples returns the current audio samples from the APU
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the target audio sample rate for the APU
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the current CPU cycle count
func (b *Bus) GetCycleCount() uint64 {
	return b.cpuCycles
}

// GetFrameCount returns the current frame count
func (b *Bus) GetFrameCount() uint64 {
	return b.frameCount
}

// SetCycleCount restores the CPU cycle counter from a save state.
func (b *Bus) SetCycleCount(cycles uint64) {
	b.cpuCycles = cycles
	b.totalCycles = cycles
}

// SetFrameCount restores the frame counter from a save state.
func (b *Bus) SetFrameCount(count uint64) {
	b.frameCount = count
	b.PPU.SetFrameCount(count)
}

// IsDMAInProgress returns whether DMA is currently in progress
func (b *Bus) IsDMAInProgress() bool {
	return b.dmaInProgress
}

// isRenderingEnabled checks if PPU rendering is enabled
func (b *Bus) isRenderingEnabled() bool {
	return b.PPU.IsRenderingEnabled()
}

// SetControllerButton sets the state of a controller button
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 0, 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	}
}

// SetControllerButtons sets all button states for a controller at once
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 0, 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// EnableInputDebug enables debug logging for the input system
func (b *Bus) EnableInputDebug(enable bool) {
	b.Input.EnableDebug(enable)
}

// GetInputState returns the input state for direct access
func (b *Bus) GetInputState() *input.InputState {
	return b.Input
}

// Frame executes one complete frame worth of cycles
func (b *Bus) Frame() {
	targetCycles := b.cpuCycles + 29781
	for b.cpuCycles < targetCycles {
		b.Step()
	}
}

// GetExecutionLog returns the execution log (C19)
func (b *Bus) GetExecutionLog() []BusExecutionEvent {
	return b.executionLog
}

// EnableExecutionLogging enables per-instruction execution logging
func (b *Bus) EnableExecutionLogging() {
	b.loggingEnabled = true
}

// DisableExecutionLogging disables execution logging
func (b *Bus) DisableExecutionLogging() {
	b.loggingEnabled = false
}

// ClearExecutionLog clears the execution log
func (b *Bus) ClearExecutionLog() {
	b.executionLog = make([]BusExecutionEvent, 0)
}

// BusExecutionEvent is a before/after snapshot of one retired instruction (C19)
type BusExecutionEvent struct {
	StepNumber int
	Before     cpu.Snapshot
	After      cpu.Snapshot
	Opcode     uint8
	Mnemonic   string
	CPUCycles  uint64
	PPUCycles  uint64
	FrameCount uint64
	DMAActive  bool
}

// GetCPUState returns the current CPU state for testing/save-states
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		Cycles: b.cpuCycles,
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			B: b.CPU.B,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// CPUState represents CPU state snapshot for testing/save-states
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Flags   CPUFlags
}

// CPUFlags represents CPU status flags for testing/save-states
type CPUFlags struct {
	N, V, B, D, I, Z, C bool
}

// GetPPUState returns the current PPU state for testing/save-states
func (b *Bus) GetPPUState() PPUState {
	scanline, cycle := b.PPU.Position()
	return PPUState{
		Scanline:    scanline,
		Cycle:       cycle,
		FrameCount:  b.frameCount,
		VBlankFlag:  b.PPU.IsVBlank(),
		RenderingOn: b.isRenderingEnabled(),
		NMIEnabled:  b.PPU.NMIEnabled(),
	}
}

// PPUState represents PPU state snapshot for testing/save-states
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
	NMIEnabled  bool
}

// AddMemoryWatchpoint adds a memory address to monitor for changes
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	if b.Memory != nil {
		b.memoryWatchpoints[address] = b.Memory.Read(address)
	}
}

// EnableWatchpointLogging enables/disables memory watchpoint logging
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// CheckMemoryWatchpoints checks all watchpoints for changes and logs them
func (b *Bus) CheckMemoryWatchpoints() {
	if !b.watchpointLogging || b.Memory == nil {
		return
	}

	for address, previousValue := range b.memoryWatchpoints {
		currentValue := b.Memory.Read(address)
		if currentValue != previousValue {
			fmt.Printf("[watch] frame %d: $%04X changed from $%02X to $%02X\n",
				b.frameCount, address, previousValue, currentValue)
			b.memoryWatchpoints[address] = currentValue
		}
	}
}
