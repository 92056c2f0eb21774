package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"github.com/valerio/go-gba/backend/headless"
	"github.com/valerio/go-gba/backend/sdl2"
	"github.com/valerio/go-gba/core"
	"github.com/valerio/go-gba/core/keypad"
	"github.com/valerio/go-gba/core/timing"
	"github.com/valerio/go-gba/render"
)

func main() {
	app := cli.NewApp()
	app.Name = "gba"
	app.Description = "A cycle-approximate handheld console emulator core"
	app.Usage = "gba [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "Path to the cartridge ROM file"},
		cli.StringFlag{Name: "bios", Usage: "Path to the boot ROM; omit to boot directly into the cartridge"},
		cli.BoolFlag{Name: "headless", Usage: "Run without a graphical window"},
		cli.IntFlag{Name: "frames", Usage: "Number of frames to run in headless mode", Value: 0},
		cli.BoolFlag{Name: "skip-bios", Usage: "Skip the boot ROM sequence and jump straight to cartridge entry"},
		cli.StringFlag{Name: "save", Usage: "Path to persist save-media contents (unused if the cart has no save media)"},
		cli.StringFlag{Name: "dump-frame", Usage: "Write the final frame to this PNG path (headless mode)"},
		cli.IntFlag{Name: "dump-scale", Usage: "Nearest-neighbor upscale factor for -dump-frame", Value: 3},
	}
	app.Action = run
	app.Commands = []cli.Command{
		{
			Name:  "disasm",
			Usage: "Print raw 32-bit instruction words from a ROM without executing or decoding them",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "rom", Usage: "Path to the cartridge ROM file"},
				cli.IntFlag{Name: "count", Usage: "Number of instructions to print", Value: 32},
			},
			Action: runDisasm,
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("gba exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	cfg := core.Config{
		BIOSPath: c.String("bios"),
		ROMPath:  romPath,
		SkipBIOS: c.Bool("skip-bios"),
		SavePath: c.String("save"),
	}

	if c.Bool("headless") {
		return runHeadless(cfg, c)
	}
	return runWindowed(cfg, c)
}

func runHeadless(cfg core.Config, c *cli.Context) error {
	frames := c.Int("frames")
	if frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}

	keys := keypad.NewReleased()
	emu, err := core.New(cfg, keys)
	if err != nil {
		return fmt.Errorf("gba: constructing core: %w", err)
	}

	back := headless.New()
	emu.SetVideoDevice(back)

	for i := 0; i < frames; i++ {
		emu.Frame()
	}
	slog.Info("headless run complete", "frames", back.FrameCount)

	if dumpPath := c.String("dump-frame"); dumpPath != "" {
		scale := c.Int("dump-scale")
		if scale <= 0 {
			scale = 1
		}
		if err := render.DumpPNG(back.LastFrame[:], scale, dumpPath); err != nil {
			return fmt.Errorf("gba: dumping frame: %w", err)
		}
		slog.Info("wrote frame dump", "path", dumpPath)
	}
	return nil
}

func runWindowed(cfg core.Config, c *cli.Context) error {
	back := sdl2.New()
	if err := back.Open(); err != nil {
		return fmt.Errorf("gba: opening window: %w", err)
	}
	defer back.Close()

	emu, err := core.New(cfg, back)
	if err != nil {
		return fmt.Errorf("gba: constructing core: %w", err)
	}
	emu.SetVideoDevice(back)

	limiter := timing.NewAdaptiveLimiter()
	for back.Running() {
		emu.Frame()
		limiter.WaitForNextFrame()
	}
	return nil
}

func runDisasm(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		return errors.New("disasm requires --rom")
	}
	data, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("gba: reading rom: %w", err)
	}
	count := c.Int("count")
	for i := 0; i < count && i*4+4 <= len(data); i++ {
		off := i * 4
		word := uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		fmt.Printf("%08X: %08X\n", 0x08000000+off, word)
	}
	return nil
}
