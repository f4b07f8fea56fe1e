package compose

import (
	"fmt"
	"strings"
)

// Mode selects the compositing operator used by Layer.Draw.
type Mode int

const (
	ModeOver    Mode = iota // alpha blend
	ModeReplace             // channel copy
	ModeMask                // scale alpha (or luminance) by the source
)

var modeNames = [...]string{
	ModeOver:    "over",
	ModeReplace: "replace",
	ModeMask:    "mask",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a mode name into a Mode. The empty string means over.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "over":
		return ModeOver, nil
	case "replace":
		return ModeReplace, nil
	case "mask":
		return ModeMask, nil
	}
	return 0, fmt.Errorf("unknown draw mode: %q", s)
}
