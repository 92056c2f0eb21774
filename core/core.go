// Package core assembles the bus, CPU, and scheduler into the single
// "run one frame" entry point spec.md §1 calls for, mirroring the
// composition shape of jeebie/core.go's Emulator and
// jeebie/events/emulator.go's EventDrivenEmulator.
package core

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/valerio/go-gba/core/bus"
	"github.com/valerio/go-gba/core/cart"
	"github.com/valerio/go-gba/core/cpu"
	"github.com/valerio/go-gba/core/keypad"
	"github.com/valerio/go-gba/core/sched"
	"github.com/valerio/go-gba/core/video"
)

// CyclesPerFrame is the fixed cost of one 240x160 frame at 228 scanlines
// of 1232 cycles each (spec.md §1 "fixed per-frame cycle budget").
const CyclesPerFrame = 228 * 1232

// Config gathers construction-time options, populated from CLI flags
// in cmd/gba/main.go (spec.md §1 Ambient Stack "Configuration").
type Config struct {
	BIOSPath string
	ROMPath  string
	SkipBIOS bool
	SavePath string
}

// Core wires bus, cpu and scheduler together and drives them frame by
// frame, the direct descendant of jeebie/events/emulator.go's
// EventDrivenEmulator.RunEventLoop: pop event, dispatch, advance the
// bus master, the same master-selection shape generalized to a
// deadline-ordered heap instead of a channel.
type Core struct {
	Bus       *bus.Bus
	CPU       *cpu.CPU
	Scheduler *sched.Scheduler

	overshoot uint64
}

// New constructs a Core from a Config, loading the boot ROM (if any)
// and cartridge image from disk, parsing the cartridge header, and
// detecting its save-media kind (spec.md §7, §10).
func New(cfg Config, keys keypad.Source) (*Core, error) {
	romData, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return nil, fmt.Errorf("core: reading rom: %w", err)
	}

	header, err := cart.ParseHeader(romData)
	if err != nil {
		slog.Warn("cartridge header parse failed, continuing with defaults", "error", err)
	} else {
		slog.Debug("cartridge loaded", "title", header.Title, "game_code", header.GameCode, "checksum_valid", header.ChecksumValid)
	}

	saveKind := cart.DetectSaveKind(romData)
	var saveMedia cart.SaveMedia
	switch saveKind {
	case cart.SaveSRAM:
		saveMedia = cart.NewRAMSaveMedia(32 * 1024)
	case cart.SaveFlash64K:
		saveMedia = cart.NewRAMSaveMedia(64 * 1024)
	case cart.SaveFlash128K:
		saveMedia = cart.NewRAMSaveMedia(128 * 1024)
	case cart.SaveEEPROM:
		saveMedia = cart.NewRAMSaveMedia(8 * 1024)
	}
	if saveMedia != nil {
		slog.Debug("save media detected", "kind", saveKind)
	}

	var bootROM []byte
	if cfg.BIOSPath != "" {
		bootROM, err = os.ReadFile(cfg.BIOSPath)
		if err != nil {
			return nil, fmt.Errorf("core: reading bios: %w", err)
		}
	}

	scheduler := sched.New()
	b := bus.New(bootROM, romData, saveMedia, keys, scheduler)
	c := cpu.New(b)
	b.SetHaltCallback(c.Halt)

	core := &Core{Bus: b, CPU: c, Scheduler: scheduler}

	if cfg.SkipBIOS || bootROM == nil {
		c.SkipBIOS(0x08000000)
	}

	return core, nil
}

// Frame runs the core forward by exactly one frame's worth of cycles,
// carrying any overshoot from the previous call into the next (spec.md
// §1 "Frame() runs until the next frame boundary, carrying overshoot").
//
// Every cycle is timestamped against Bus.TotalCycles, a monotonic
// counter that never resets between frames: this is the same basis
// timer and DMA deadlines are scheduled against (core/bus/io.go's
// writeTimerReg, writeDMAReg), so draining the scheduler here with that
// same "now" keeps every deadline comparable across frame boundaries
// instead of only within the frame it was scheduled in.
//
// Each iteration picks a bus master per spec.md §4.3: a pending DMA
// channel runs before the CPU gets a turn; if the CPU is halted with
// nothing pending, the loop fast-forwards to the next scheduled event
// instead of spinning one cycle at a time.
func (c *Core) Frame() {
	start := c.Bus.TotalCycles()
	budget := CyclesPerFrame - c.overshoot
	limit := start + budget
	limitEvent := c.Scheduler.Schedule(sched.FrameLimitReached, limit, 0)
	defer limitEvent.Cancel()

	for c.Bus.TotalCycles() < limit {
		c.drainScheduler(c.Bus.TotalCycles())
		if c.Bus.TotalCycles() >= limit {
			break
		}

		var cycles int
		switch {
		case c.Bus.DMAPending():
			cycles = c.Bus.RunDMA()
		case !c.CPU.Halted():
			cycles = c.CPU.Step()
		default:
			cycles = c.idleAdvance(limit)
		}
		if cycles <= 0 {
			cycles = 1
		}
		c.Bus.Tick(cycles)

		woken := c.Bus.IRQController().HaltWake()
		c.CPU.WakeIfPending(woken)
		if c.Bus.IRQController().Pending() {
			c.CPU.RaiseIRQ()
		}
	}

	spent := c.Bus.TotalCycles() - start
	if spent > budget {
		c.overshoot = spent - budget
	} else {
		c.overshoot = 0
	}
}

// idleAdvance jumps the clock straight to the next scheduled event's
// deadline when the CPU is halted and no DMA is pending, instead of
// ticking one cycle at a time with nothing to do (spec.md §4.3 "a
// halted CPU waits for the next event"). It never jumps past limit,
// so Frame still stops on schedule even with no event queued at all.
func (c *Core) idleAdvance(limit uint64) int {
	now := c.Bus.TotalCycles()
	deadline, ok := c.Scheduler.Peek()
	if !ok || deadline > limit {
		deadline = limit
	}
	if deadline <= now {
		return 1
	}
	return int(deadline - now)
}

// drainScheduler pops and dispatches any events already due, letting
// timer overflow, DMA activation, and the frame's own run-limit event
// fire without requiring the bus to poll every subsystem every cycle
// (spec.md §4.3). FrameLimitReached carries no work of its own; Frame's
// loop condition is what actually stops on it, this just drains it out
// of the queue once its deadline passes.
func (c *Core) drainScheduler(now uint64) {
	for {
		ev, ok := c.Scheduler.Pop(now)
		if !ok {
			return
		}
		switch ev.Kind {
		case sched.TimerOverflow:
			c.Bus.HandleTimerOverflow(ev.Data, now, c.Scheduler)
		case sched.DMAActivate:
			c.Bus.ActivateDMA(ev.Data)
		case sched.FrameLimitReached:
		}
	}
}

// SetVideoDevice wires the frontend's video.Device collaborator.
func (c *Core) SetVideoDevice(d video.Device) {
	c.Bus.Video().SetDevice(d)
}
