package refresh

import (
	"fmt"
	"strings"
)

// Mode selects how a group's date list is computed.
type Mode int

const (
	// ModeOffsets derives dates from the configured day offsets.
	ModeOffsets Mode = iota
	// ModeRange expands a RANGE sentinel (or the default range).
	ModeRange
)

func (m Mode) String() string {
	switch m {
	case ModeOffsets:
		return "offsets"
	case ModeRange:
		return "range"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "offsets" or "range".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offsets", "offset":
		return ModeOffsets, nil
	case "range":
		return ModeRange, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want offsets or range)", s)
	}
}
