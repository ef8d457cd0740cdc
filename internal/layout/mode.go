package layout

import (
	"strings"

	"audiofeeder/internal/services"
)

// Mode selects the segmentation strategy for a rendered feed.
type Mode string

const (
	// ModeSingleFile merges every source file into one output file.
	ModeSingleFile Mode = "SINGLEFILE"
	// ModeChapters produces one output file per chapter.
	ModeChapters Mode = "CHAPTERS"
	// ModeSegmented partitions chapters into near-uniform-duration output files.
	ModeSegmented Mode = "SEGMENTED"
)

// Modes lists every render mode in presentation order.
func Modes() []Mode {
	return []Mode{ModeSingleFile, ModeChapters, ModeSegmented}
}

// ParseMode normalizes a user-supplied mode string.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(value))) {
	case ModeSingleFile:
		return ModeSingleFile, nil
	case ModeChapters:
		return ModeChapters, nil
	case ModeSegmented:
		return ModeSegmented, nil
	default:
		return "", services.Wrap(services.ErrValidation, "layout", "parse mode", "unknown render mode "+value, nil)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }
