// Package addr holds the bus address ranges and memory-mapped I/O
// register offsets used throughout the core (spec.md §6).
package addr

// Top-level address space regions, keyed by the high byte of a 32-bit
// address (spec.md §4.2 "Address decoding").
const (
	BootROMBase    uint32 = 0x00000000
	BootROMEnd     uint32 = 0x00003FFF
	ExtWRAMBase    uint32 = 0x02000000
	ExtWRAMEnd     uint32 = 0x0203FFFF
	IntWRAMBase    uint32 = 0x03000000
	IntWRAMEnd     uint32 = 0x03007FFF
	IOBase         uint32 = 0x04000000
	IOEnd          uint32 = 0x040003FE
	PaletteBase    uint32 = 0x05000000
	PaletteEnd     uint32 = 0x050003FF
	VRAMBase       uint32 = 0x06000000
	VRAMEnd        uint32 = 0x06017FFF
	OAMBase        uint32 = 0x07000000
	OAMEnd         uint32 = 0x070003FF
	CartBase       uint32 = 0x08000000
	CartEnd        uint32 = 0x0DFFFFFF
	CartWS0Base    uint32 = 0x08000000
	CartWS1Base    uint32 = 0x0A000000
	CartWS2Base    uint32 = 0x0C000000
	SaveMediaBase  uint32 = 0x0E000000
	SaveMediaEnd   uint32 = 0x0E00FFFF
	BootROMSize           = 0x4000
	ExtWRAMSize           = 0x40000
	ExtWRAMMirror         = 0x40000
	IntWRAMSize           = 0x8000
	IntWRAMMirror         = 0x8000
	PaletteSize           = 0x400
	VRAMSize              = 0x18000
	VRAMAddressable       = 0x20000
	VRAMMirrorOffset      = 0x8000
	OAMSize               = 0x400
	CartWindowSize        = 0x02000000
)

// I/O register offsets (relative to IOBase), spec.md §6 register map.
const (
	DISPCNT  uint32 = 0x000
	DISPSTAT uint32 = 0x004
	VCOUNT   uint32 = 0x006

	BG0CNT uint32 = 0x008
	BG1CNT uint32 = 0x00A
	BG2CNT uint32 = 0x00C
	BG3CNT uint32 = 0x00E

	BG0HOFS uint32 = 0x010
	BG0VOFS uint32 = 0x012
	BG1HOFS uint32 = 0x014
	BG1VOFS uint32 = 0x016
	BG2HOFS uint32 = 0x018
	BG2VOFS uint32 = 0x01A
	BG3HOFS uint32 = 0x01C
	BG3VOFS uint32 = 0x01E

	BG2PA uint32 = 0x020
	BG2PB uint32 = 0x022
	BG2PC uint32 = 0x024
	BG2PD uint32 = 0x026
	BG2X  uint32 = 0x028
	BG2Y  uint32 = 0x02C
	BG3PA uint32 = 0x030
	BG3PB uint32 = 0x032
	BG3PC uint32 = 0x034
	BG3PD uint32 = 0x036
	BG3X  uint32 = 0x038
	BG3Y  uint32 = 0x03C

	WIN0H  uint32 = 0x040
	WIN1H  uint32 = 0x042
	WIN0V  uint32 = 0x044
	WIN1V  uint32 = 0x046
	WININ  uint32 = 0x048
	WINOUT uint32 = 0x04A

	MOSAIC uint32 = 0x04C
	BLDCNT uint32 = 0x050
	BLDALPHA uint32 = 0x052
	BLDY   uint32 = 0x054

	DMA0SAD   uint32 = 0x0B0
	DMA0DAD   uint32 = 0x0B4
	DMA0CNT_L uint32 = 0x0B8
	DMA0CNT_H uint32 = 0x0BA
	DMA1SAD   uint32 = 0x0BC
	DMA1DAD   uint32 = 0x0C0
	DMA1CNT_L uint32 = 0x0C4
	DMA1CNT_H uint32 = 0x0C6
	DMA2SAD   uint32 = 0x0C8
	DMA2DAD   uint32 = 0x0CC
	DMA2CNT_L uint32 = 0x0D0
	DMA2CNT_H uint32 = 0x0D2
	DMA3SAD   uint32 = 0x0D4
	DMA3DAD   uint32 = 0x0D8
	DMA3CNT_L uint32 = 0x0DC
	DMA3CNT_H uint32 = 0x0DE

	TM0CNT_L uint32 = 0x100
	TM0CNT_H uint32 = 0x102
	TM1CNT_L uint32 = 0x104
	TM1CNT_H uint32 = 0x106
	TM2CNT_L uint32 = 0x108
	TM2CNT_H uint32 = 0x10A
	TM3CNT_L uint32 = 0x10C
	TM3CNT_H uint32 = 0x10E

	KEYINPUT uint32 = 0x130
	KEYCNT   uint32 = 0x132

	IE      uint32 = 0x200
	IF      uint32 = 0x202
	WAITCNT uint32 = 0x204
	IME     uint32 = 0x208
	HALTCNT uint32 = 0x300
)

// Interrupt is one of the 14 GBA interrupt sources (spec.md §4.7).
type Interrupt uint

const (
	IRQVBlank Interrupt = iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQGamePak
)
