package channel

import "strings"

// Flags control channel inheritance, mapping availability and UI placement.
type Flags uint32

const (
	// FlagInherit takes the whole channel from the parent set when resolving.
	FlagInherit Flags = 1 << iota
	// FlagInheritIfUnset ORs bitmask values with the parent's. For other
	// kinds it behaves like FlagInherit.
	FlagInheritIfUnset
	// FlagNoMappings disables input mappings for the channel.
	FlagNoMappings
	FlagShowInWorkspace
	FlagShowInHeader
	FlagShowInContextMenu

	// FlagMask covers every defined flag bit.
	FlagMask = FlagShowInContextMenu<<1 - 1
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagInherit, "inherit"},
	{FlagInheritIfUnset, "inherit_if_unset"},
	{FlagNoMappings, "no_mappings"},
	{FlagShowInWorkspace, "show_in_workspace"},
	{FlagShowInHeader, "show_in_header"},
	{FlagShowInContextMenu, "show_in_context_menu"},
}

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// With returns f with f2 set or cleared.
func (f Flags) With(f2 Flags, on bool) Flags {
	if on {
		return f | f2
	}
	return f &^ f2
}

// Names returns the names of the set flags.
func (f Flags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}

// String joins the flag names with '|'.
func (f Flags) String() string {
	return strings.Join(f.Names(), "|")
}

// ParseFlags parses flag names. Unknown names are reported as not ok.
func ParseFlags(names []string) (Flags, bool) {
	var f Flags
	ok := true
	for _, n := range names {
		found := false
		for _, fn := range flagNames {
			if fn.name == n {
				f |= fn.flag
				found = true
				break
			}
		}
		ok = ok && found
	}
	return f, ok
}

// MappingType is the input signal a mapping slot reads.
type MappingType uint8

// Mapping slots in evaluation order.
const (
	MappingPressure MappingType = iota
	MappingXTilt
	MappingYTilt
	MappingAngle
	MappingSpeed

	NumMappings = 5
)

var mappingNames = [NumMappings]string{"pressure", "xtilt", "ytilt", "angle", "speed"}

// String returns the signal name.
func (m MappingType) String() string {
	if int(m) < NumMappings {
		return mappingNames[m]
	}
	return "unknown"
}

// ParseMappingType returns the mapping type with the given name.
func ParseMappingType(name string) (MappingType, bool) {
	for i, n := range mappingNames {
		if n == name {
			return MappingType(i), true
		}
	}
	return 0, false
}

// MappingFlags are per-slot flags.
type MappingFlags uint8

const (
	MappingEnabled MappingFlags = 1 << iota
	MappingInvert
	// MappingInherit takes the slot from the parent regardless of the
	// owning channel's inherit state.
	MappingInherit

	// MappingFlagMask covers every defined mapping flag bit.
	MappingFlagMask = MappingInherit<<1 - 1
)

// Has reports whether all bits of f2 are set.
func (f MappingFlags) Has(f2 MappingFlags) bool {
	return f&f2 == f2
}

// With returns f with f2 set or cleared.
func (f MappingFlags) With(f2 MappingFlags, on bool) MappingFlags {
	if on {
		return f | f2
	}
	return f &^ f2
}

// BlendMode combines a mapping's output with the running accumulator.
type BlendMode uint8

// The zero value is BlendMultiply.
const (
	BlendMultiply BlendMode = iota
	BlendReplace
	BlendDivide
	BlendAdd
	BlendSubtract
	BlendAbsDiff
)

var blendNames = [...]string{
	BlendMultiply: "multiply",
	BlendReplace:  "replace",
	BlendDivide:   "divide",
	BlendAdd:      "add",
	BlendSubtract: "subtract",
	BlendAbsDiff:  "difference",
}

// String returns the blend mode name.
func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return "unknown"
}

// ParseBlendMode returns the blend mode with the given name.
func ParseBlendMode(name string) (BlendMode, bool) {
	for i, n := range blendNames {
		if n == name {
			return BlendMode(i), true
		}
	}
	return 0, false
}
