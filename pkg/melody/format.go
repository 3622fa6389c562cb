package melody

import (
	"path/filepath"
	"strings"
)

// Format represents a file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatGrid    Format = "grid"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format from file content
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	// Standard MIDI File signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}
	return FormatUnknown
}

// DetectFormatFromName detects the format based on file extension
func DetectFormatFromName(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi":
		return FormatMIDI
	case ".grid", ".txt", ".roll":
		return FormatGrid
	default:
		return FormatUnknown
	}
}
