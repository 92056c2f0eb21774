// gen_decode_tables is a build-time aid, not part of the emulator's
// runtime path: it builds the ARM and Thumb decode tables and prints
// how many of their entries classify to a real handler versus falling
// back to the undefined-instruction trap, so a change to
// core/cpu/arm.go or thumb.go's classifier functions can be checked for
// accidental coverage regressions.
package main

import (
	"fmt"

	"github.com/valerio/go-gba/core/cpu"
)

func main() {
	armFilled, armTotal, thumbFilled, thumbTotal := cpu.TableCoverage()
	fmt.Printf("ARM table:   %5d / %5d slots classified (%.1f%%)\n",
		armFilled, armTotal, 100*float64(armFilled)/float64(armTotal))
	fmt.Printf("Thumb table: %5d / %5d slots classified (%.1f%%)\n",
		thumbFilled, thumbTotal, 100*float64(thumbFilled)/float64(thumbTotal))
}
