package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/fistaco/rustychippydragoman/chippy"
	"github.com/fistaco/rustychippydragoman/chippy/audio"
	"github.com/fistaco/rustychippydragoman/chippy/backend"
	"github.com/fistaco/rustychippydragoman/chippy/backend/headless"
	"github.com/fistaco/rustychippydragoman/chippy/backend/terminal"
	"github.com/fistaco/rustychippydragoman/chippy/cpu"
	"github.com/fistaco/rustychippydragoman/chippy/timing"
)

func main() {
	app := newApp()

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "chippy"
	app.Description = "A CHIP-8 interpreter"
	app.Usage = "chippy [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.IntFlag{
			Name:  "ips",
			Usage: "Instructions executed per second",
			Value: chippy.DefaultInstructionsPerSecond,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the emulator without a terminal interface",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save PNG frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Frame pacing: adaptive, ticker or none (default: none when headless, adaptive otherwise)",
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record the beeper to a WAV file",
		},
		cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for the random number instruction (0 = random)",
		},
		cli.BoolFlag{
			Name:  "shift-vy",
			Usage: "Quirk: 8xy6/8xyE shift Vy into Vx",
		},
		cli.BoolFlag{
			Name:  "index-increment",
			Usage: "Quirk: Fx55/Fx65 advance I past the last register",
		},
		cli.BoolFlag{
			Name:  "clip-sprites",
			Usage: "Quirk: clip sprites at the screen edges instead of wrapping",
		},
		cli.BoolFlag{
			Name:  "reset-vf",
			Usage: "Quirk: 8xy1/8xy2/8xy3 reset VF",
		},
		cli.BoolFlag{
			Name:  "vip",
			Usage: "Enable every COSMAC VIP quirk",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Log at debug level, including every executed instruction",
		},
	}
	app.Action = runEmulator

	return app
}

func runEmulator(c *cli.Context) error {
	setupLogging(c.Bool("debug"))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emu, err := chippy.NewWithFile(romPath, configFromFlags(c))
	if err != nil {
		return err
	}

	b, limiter, err := createBackend(c, romPath)
	if err != nil {
		return err
	}

	sink, err := createSink(c.String("wav"))
	if err != nil {
		return err
	}

	runErr := chippy.Run(emu, b, backend.BackendConfig{Title: romTitle(romPath)}, limiter, sink)
	closeErr := sink.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func configFromFlags(c *cli.Context) chippy.Config {
	config := chippy.DefaultConfig()
	config.InstructionsPerSecond = c.Int("ips")
	config.Seed = c.Uint64("seed")

	if c.Bool("vip") {
		config.Quirks = cpu.VIPQuirks()
	}
	if c.Bool("shift-vy") {
		config.Quirks.ShiftUsesVY = true
	}
	if c.Bool("index-increment") {
		config.Quirks.IndexIncrement = true
	}
	if c.Bool("clip-sprites") {
		config.Quirks.ClipSprites = true
	}
	if c.Bool("reset-vf") {
		config.Quirks.ResetVF = true
	}

	return config
}

func createBackend(c *cli.Context, romPath string) (backend.Backend, timing.Limiter, error) {
	headlessMode := c.Bool("headless")

	var b backend.Backend
	if headlessMode {
		frames := c.Int("frames")
		if frames <= 0 {
			return nil, nil, errors.New("headless mode requires --frames option with a positive value")
		}

		snapshotConfig, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return nil, nil, err
		}
		b = headless.New(frames, snapshotConfig)
	} else {
		b = terminal.New()
	}

	// the limiter may own a running ticker, so it is built last
	limiter, err := createLimiter(c.String("limiter"), headlessMode)
	if err != nil {
		return nil, nil, err
	}

	return b, limiter, nil
}

// createLimiter picks the frame pacing. Headless runs go as fast as possible
// unless asked otherwise.
func createLimiter(name string, headless bool) (timing.Limiter, error) {
	switch name {
	case "":
		if headless {
			return timing.NewNoOpLimiter(), nil
		}
		return timing.NewAdaptiveLimiter(), nil
	case "adaptive":
		return timing.NewAdaptiveLimiter(), nil
	case "ticker":
		return timing.NewTickerLimiter(), nil
	case "none":
		return timing.NewNoOpLimiter(), nil
	default:
		return nil, fmt.Errorf("unknown limiter %q", name)
	}
}

func createSink(wavPath string) (audio.Sink, error) {
	if wavPath == "" {
		return audio.Silent{}, nil
	}
	recorder, err := audio.CreateWavRecorder(wavPath)
	if err != nil {
		return nil, err
	}
	return recorder, nil
}

func romTitle(romPath string) string {
	name := filepath.Base(romPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
