package graphics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeadlessBackendIsHeadless(t *testing.T) {
	backend := NewHeadlessBackend()
	if !backend.IsHeadless() {
		t.Errorf("expected headless backend to report IsHeadless() true")
	}
}

func TestHeadlessBackendCreateWindowRequiresInitialize(t *testing.T) {
	backend := NewHeadlessBackend()
	if _, err := backend.CreateWindow("test", 256, 240); err == nil {
		t.Errorf("expected CreateWindow to fail before Initialize")
	}
}

func TestHeadlessWindowDumpsFramesOnlyWhenDebugEnabled(t *testing.T) {
	backend := NewHeadlessBackend()
	if err := backend.Initialize(Config{Headless: true, Debug: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	hw := window.(*HeadlessWindow)
	hw.SetOutputPath(t.TempDir())

	var frame [256 * 240]uint32
	for i := 0; i < 120; i++ {
		if err := window.RenderFrame(frame); err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
	}
	if hw.GetFrameCount() != 120 {
		t.Errorf("expected frame count 120, got %d", hw.GetFrameCount())
	}

	entries, err := os.ReadDir(hw.outputPath)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no PPM dumps with debug disabled, found %d", len(entries))
	}
}

func TestHeadlessWindowDumpsPeriodicallyWhenDebugEnabled(t *testing.T) {
	backend := NewHeadlessBackend()
	if err := backend.Initialize(Config{Headless: true, Debug: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	hw := window.(*HeadlessWindow)
	outDir := t.TempDir()
	hw.SetOutputPath(outDir)

	var frame [256 * 240]uint32
	for i := 0; i < 120; i++ {
		if err := window.RenderFrame(frame); err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
	}

	if _, err := os.Stat(filepath.Join(outDir, "frame_000060.ppm")); err != nil {
		t.Errorf("expected a PPM dump at frame 60: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "frame_000120.ppm")); err != nil {
		t.Errorf("expected a PPM dump at frame 120: %v", err)
	}
}
