package format

import "strings"

// Format is a message encoding understood by the engine
type Format string

// Supported formats
const (
	XML     Format = "xml"
	JSON    Format = "json"
	SwiftMT Format = "swift-mt"
)

// Detect classifies a message by its structural prefix.
// Unrecognized text is treated as SWIFT MT, which has no universal prefix.
func Detect(text string) Format {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SwiftMT
	}

	switch trimmed[0] {
	case '<':
		return XML
	case '{':
		// SWIFT MT block markers: {1: through {5:
		if len(trimmed) >= 3 && trimmed[1] >= '1' && trimmed[1] <= '5' && trimmed[2] == ':' {
			return SwiftMT
		}
		return JSON
	case '[':
		return JSON
	}
	return SwiftMT
}

// DisplayName returns the human-readable name of a format
func DisplayName(f Format) string {
	if f == SwiftMT {
		return "SWIFT MT"
	}
	return strings.ToUpper(string(f))
}

// EditorLanguage returns the editor language id used to highlight a format
func EditorLanguage(f Format) string {
	return string(f)
}
