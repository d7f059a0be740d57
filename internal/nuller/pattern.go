package nuller

import (
	"fmt"
	"strings"
)

// Space is the whitespace accepted around the commas of a tuple tail. It is
// wider than RE2's \s: \v, the ASCII separators and the Unicode spaces
// count too, as they do for Python and JavaScript \s.
const Space = `[\s\v\x1c-\x1f\x{85}\x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

// Pattern matches the tail of a VALUES tuple: a driver id (quoted UUID or
// null) followed by a quoted department name and the closing parenthesis.
const Pattern = `,` + Space + `*(?:'[\da-fA-F-]{36}'|null)` + Space + `*,` + Space + `*(?P<department>'[^']+')\)`

// DepartmentGroup is the name of the capture holding the department field.
const DepartmentGroup = "department"

// DefaultTemplate drops the driver id and keeps the department verbatim.
const DefaultTemplate = ", NULL, ${" + DepartmentGroup + "})"

// uuidLen is the length of a hyphenated UUID without quotes.
const uuidLen = 36

// Mode selects the engine used to find tuple tails.
type Mode int

const (
	// ModeRegexp runs Pattern through the standard regexp engine.
	ModeRegexp Mode = iota
	// ModeScan runs a byte scanner equivalent to ModeRegexp that can stop
	// at a buffer boundary and ask for more input.
	ModeScan
	// ModeEscapeAware is ModeScan with SQL '' escapes allowed inside the
	// department field.
	ModeEscapeAware
)

var modeNames = map[Mode]string{
	ModeRegexp:      "regexp",
	ModeScan:        "scan",
	ModeEscapeAware: "escape-aware",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name as accepted on the command line.
// An empty name selects ModeRegexp.
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ModeRegexp, nil
	}
	for mode, candidate := range modeNames {
		if candidate == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown match mode %q (want one of %s)", name, strings.Join(ModeNames(), ", "))
}

// ModeNames lists the accepted mode names in a stable order.
func ModeNames() []string {
	return []string{ModeRegexp.String(), ModeScan.String(), ModeEscapeAware.String()}
}
