package domain

import "fmt"

// Operation identifies one of the seven repair/sale actions the shop performs.
// The numeric values are wired into CRM callback data and stored rows, so they
// must never be renumbered.
type Operation int

const (
	OpReGluing          Operation = iota + 1 // display re-gluing
	OpReGluingBacklight                      // re-gluing with backlight/touch replacement
	OpAssembly                               // disassembly/assembly service
	OpRefurbished                            // refurbished display sale
	OpSparePart                              // spare part sale
	OpBackCover                              // back cover replacement
	OpBuyback                                // broken display purchase
)

func (op Operation) Valid() bool { return op >= OpReGluing && op <= OpBuyback }

func (op Operation) String() string {
	switch op {
	case OpReGluing:
		return "re-gluing"
	case OpReGluingBacklight:
		return "re-gluing + backlight"
	case OpAssembly:
		return "disassembly/assembly"
	case OpRefurbished:
		return "refurbished display"
	case OpSparePart:
		return "spare part"
	case OpBackCover:
		return "back cover"
	case OpBuyback:
		return "buyback"
	}
	return fmt.Sprintf("unknown operation %d", int(op))
}

// Describe returns the line description used in order compositions and in the
// CRM order body.
func (op Operation) Describe() string {
	switch op {
	case OpReGluing:
		return "Testing"
	case OpReGluingBacklight:
		return "Testing and backlight/touch replacement"
	case OpAssembly:
		return "Display disassembly and assembly"
	case OpRefurbished:
		return "Refurbished display"
	case OpSparePart:
		return "Spare part supply"
	case OpBackCover:
		return "Back cover replacement"
	case OpBuyback:
		return "Broken display purchase"
	}
	return "No description"
}

// SupportsAssembly reports whether the disassembly/assembly add-on can be
// bundled with a line of this kind.
func (op Operation) SupportsAssembly() bool {
	switch op {
	case OpReGluing, OpReGluingBacklight, OpBackCover:
		return true
	}
	return false
}
