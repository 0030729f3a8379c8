// pkg/core/mode.go
package core

import (
	"fmt"
	"strings"
)

// Mode selects which derived layers are rendered.
type Mode int

const (
	ModePoint Mode = iota
	ModeLine
	ModePolygon
)

// String returns the value persisted in a header's ModeHint and emitted by
// the mode selector.
func (m Mode) String() string {
	switch m {
	case ModeLine:
		return "line"
	case ModePolygon:
		return "shape"
	default:
		return "point"
	}
}

// ParseMode converts a selector value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "point":
		return ModePoint, nil
	case "line":
		return ModeLine, nil
	case "shape", "polygon":
		return ModePolygon, nil
	default:
		return ModePoint, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}
