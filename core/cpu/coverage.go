package cpu

import "reflect"

// TableCoverage reports, for each decode table, how many of its entries
// classify to something other than the undefined-instruction trap. It
// exists purely as a build-time sanity aid for cmd/gen_decode_tables —
// nothing in the core itself calls it.
func TableCoverage() (armFilled, armTotal, thumbFilled, thumbTotal int) {
	armTableOnce.Do(buildArmTable)
	thumbTableOnce.Do(buildThumbTable)

	undefinedARM := reflect.ValueOf(armUndefined).Pointer()
	for _, h := range armTable {
		if h != nil && reflect.ValueOf(h).Pointer() != undefinedARM {
			armFilled++
		}
	}
	undefinedThumb := reflect.ValueOf(thumbUndefined).Pointer()
	for _, h := range thumbTable {
		if h != nil && reflect.ValueOf(h).Pointer() != undefinedThumb {
			thumbFilled++
		}
	}
	return armFilled, len(armTable), thumbFilled, len(thumbTable)
}
