// Package app provides emulator integration for the main application.
package app

import (
	"fmt"
	"time"

	"nescore/internal/bus"
)

// cyclesPerFrameNTSC is the fixed number of CPU cycles in one NTSC frame.
const cyclesPerFrameNTSC = 29781

// Emulator drives the bus for exactly one frame per Update call, matching
// the fixed-cycle frame boundary Ebitengine calls at 60Hz.
type Emulator struct {
	bus    *bus.Bus
	config *Config

	frameBuffer  []uint32
	audioSamples []float32

	cycleCount    uint64
	frameCount    uint64
	emulationTime time.Duration

	isRunning     bool
	lastResetTime time.Time
}

// NewEmulator creates a new emulator instance
func NewEmulator(bus *bus.Bus, config *Config) *Emulator {
	emulator := &Emulator{
		bus:           bus,
		config:        config,
		frameBuffer:   make([]uint32, 256*240),
		audioSamples:  make([]float32, 0, 1024),
		lastResetTime: time.Now(),
	}
	emulator.Reset()
	return emulator
}

// Reset resets the emulator's frame/cycle counters and buffers
func (e *Emulator) Reset() {
	e.emulationTime = 0
	e.cycleCount = 0
	e.frameCount = 0
	e.lastResetTime = time.Now()

	for i := range e.frameBuffer {
		e.frameBuffer[i] = 0
	}
	e.audioSamples = e.audioSamples[:0]
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs exactly one frame of emulation
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}
	if err := e.runFrame(); err != nil {
		return fmt.Errorf("frame execution error: %v", err)
	}
	return nil
}

// runFrame steps the bus for one NTSC frame's worth of CPU cycles and pulls
// the resulting frame buffer and audio samples out of it.
func (e *Emulator) runFrame() error {
	emulationStart := time.Now()

	startCycles := e.bus.GetCycleCount()
	targetCycles := startCycles + cyclesPerFrameNTSC
	for e.bus.GetCycleCount() < targetCycles {
		e.bus.Step()
	}
	e.frameCount++

	nesFrameBuffer := e.bus.GetFrameBuffer()
	if len(nesFrameBuffer) == len(e.frameBuffer) {
		copy(e.frameBuffer, nesFrameBuffer)
	}

	nesSamples := e.bus.GetAudioSamples()
	if len(nesSamples) > 0 {
		if cap(e.audioSamples) < len(nesSamples) {
			e.audioSamples = make([]float32, len(nesSamples))
		} else {
			e.audioSamples = e.audioSamples[:len(nesSamples)]
		}
		copy(e.audioSamples, nesSamples)
	}

	e.emulationTime = time.Since(emulationStart)
	e.cycleCount = e.bus.GetCycleCount()
	return nil
}

// GetFrameBuffer returns the current frame buffer
func (e *Emulator) GetFrameBuffer() []uint32 {
	return e.frameBuffer
}

// GetAudioSamples returns the current audio samples
func (e *Emulator) GetAudioSamples() []float32 {
	return e.audioSamples
}

// GetFrameCount returns the current frame count
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetCycleCount returns the current CPU cycle count
func (e *Emulator) GetCycleCount() uint64 {
	return e.cycleCount
}

// GetEmulationTime returns the time spent emulating the last frame
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// GetUptime returns the emulator uptime since last reset
func (e *Emulator) GetUptime() time.Duration {
	return time.Since(e.lastResetTime)
}

// GetCPUState returns the current CPU state for debugging
func (e *Emulator) GetCPUState() bus.CPUState {
	if e.bus == nil {
		return bus.CPUState{}
	}
	return e.bus.GetCPUState()
}

// GetPPUState returns the current PPU state for debugging
func (e *Emulator) GetPPUState() bus.PPUState {
	if e.bus == nil {
		return bus.PPUState{}
	}
	return e.bus.GetPPUState()
}

// Cleanup releases emulator resources
func (e *Emulator) Cleanup() error {
	e.Stop()
	e.frameBuffer = nil
	e.audioSamples = nil
	return nil
}
