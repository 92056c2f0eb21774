// Package irq implements the prioritized interrupt controller described
// in spec.md §4.7: a master-enable bit plus 14-bit enable/request masks,
// with write-1-to-clear semantics on the request register.
package irq

import "github.com/valerio/go-gba/core/addr"

// Raiser is the narrow capability handed to subsystems (video, dma,
// timer, keypad) that need to request an interrupt without holding a
// pointer back to the Controller (spec.md §9 "weak pointer" note).
type Raiser func(source addr.Interrupt)

// Controller holds IME/IE/IF and decides whether an IRQ is pending.
type Controller struct {
	masterEnable bool
	enable       uint16
	request      uint16
}

// New returns a controller with interrupts disabled, as on reset.
func New() *Controller {
	return &Controller{}
}

// Raise ORs the bit for source into the request mask. Safe to pass
// around as a Raiser closure via c.Raise.
func (c *Controller) Raise(source addr.Interrupt) {
	c.request |= 1 << uint(source)
}

// Pending reports whether the CPU should accept an IRQ this instruction
// boundary: master ∧ (request ∧ enable ≠ 0).
func (c *Controller) Pending() bool {
	return c.masterEnable && (c.request&c.enable) != 0
}

// HaltWake reports whether a halted CPU should resume. Unlike Pending,
// this ignores IME/IE per spec.md §4.7: "if halted, resumes on any
// request-mask bit set (regardless of master/enable)".
func (c *Controller) HaltWake() bool {
	return c.request != 0
}

// ReadIE/ReadIF/ReadIME return the normalized register contents.
func (c *Controller) ReadIE() uint16 { return c.enable }
func (c *Controller) ReadIF() uint16 { return c.request }
func (c *Controller) ReadIME() bool  { return c.masterEnable }

// WriteIE sets the enable mask (only the low 14 bits are meaningful).
func (c *Controller) WriteIE(value uint16) {
	c.enable = value & 0x3FFF
}

// WriteIF clears the bits set in value (write-1-to-clear).
func (c *Controller) WriteIF(value uint16) {
	c.request &^= value & 0x3FFF
}

// WriteIME sets the master-enable bit.
func (c *Controller) WriteIME(enabled bool) {
	c.masterEnable = enabled
}
