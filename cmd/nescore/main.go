// Package main implements the nescore emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nescore/internal/app"
	"nescore/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile = flag.String("config", "", "Path to configuration file")
		debug      = flag.Bool("debug", false, "Enable debug mode")
		nogui      = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		frames     = flag.Int("frames", 120, "Frames to run in headless mode before exiting")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	setupGracefulShutdown()

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}

	if *nogui {
		config := application.GetConfig()
		config.Video.Backend = "headless"
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("application cleanup error: %v", err)
		}
	}()

	if *debug {
		config := application.GetConfig()
		config.UpdateDebug(true, true, true)
		application.ApplyDebugSettings()
	}

	if *romFile != "" {
		if err := application.LoadROM(*romFile); err != nil {
			log.Fatalf("failed to load ROM %s: %v", *romFile, err)
		}
		if *debug {
			application.ApplyDebugSettings()
		}
	}

	if *nogui {
		if *romFile == "" {
			log.Fatal("-rom is required in headless mode")
		}
		runHeadlessMode(application, *frames)
		return
	}

	if err := runGUIMode(application); err != nil {
		log.Fatalf("GUI mode failed: %v", err)
	}
}

func runGUIMode(application *app.Application) error {
	config := application.GetConfig()
	windowWidth, windowHeight := config.GetWindowResolution()
	log.Printf("window: %dx%d (scale %dx)", windowWidth, windowHeight, config.Window.Scale)
	log.Printf("video: %s, %s, vsync=%s", config.Video.Filter, config.Video.AspectRatio, enabledString(config.Video.VSync))

	if err := application.Run(); err != nil {
		return fmt.Errorf("application run failed: %w", err)
	}

	log.Printf("frames rendered: %d, session time: %v, average FPS: %.1f",
		application.GetFrameCount(), application.GetUptime(), application.GetFPS())
	return nil
}

// runHeadlessMode drives the bus directly for a fixed number of frames and
// dumps a handful of them as PPM images, useful for scripted regression checks
// against a reference emulator without a display.
func runHeadlessMode(application *app.Application, targetFrames int) {
	bus := application.GetBus()
	if bus == nil {
		log.Fatal("bus not initialized")
	}

	for frame := 0; frame < targetFrames; frame++ {
		bus.Frame()

		if frame == targetFrames/4 || frame == targetFrames/2 || frame == targetFrames-1 {
			name := fmt.Sprintf("frame_%03d.ppm", frame+1)
			if err := saveFrameBufferAsPPM(bus.GetFrameBuffer(), name); err != nil {
				log.Printf("failed to write %s: %v", name, err)
				continue
			}
			log.Printf("wrote %s", name)
		}
	}
}

// saveFrameBufferAsPPM writes a 256x240 ASCII PPM image of the frame buffer.
func saveFrameBufferAsPPM(frameBuffer []uint32, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := (pixel >> 16) & 0xFF
			g := (pixel >> 8) & 0xFF
			b := pixel & 0xFF
			fmt.Fprintf(file, "%d %d %d ", r, g, b)
		}
		fmt.Fprintf(file, "\n")
	}
	return nil
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("interrupt received, shutting down")
		os.Exit(0)
	}()
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func printUsage() {
	fmt.Println("nescore - NES emulator core")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nescore [options]                    # Start GUI mode without ROM")
	fmt.Println("  nescore -rom <file> [options]        # Start with ROM loaded")
	fmt.Println("  nescore -nogui -rom <file> [options] # Run headless for a fixed frame count")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("  Arrow Keys / WASD - D-Pad")
	fmt.Println("  J / Z             - A Button")
	fmt.Println("  K / X             - B Button")
	fmt.Println("  Enter             - Start")
	fmt.Println("  Space             - Select")
	fmt.Println("  Escape (2x)       - Quit")
	fmt.Println("  F1-F10            - Save States")
	fmt.Println("  Shift+F1-F10      - Load States")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  - iNES (.nes), NROM (Mapper 0)")
}
