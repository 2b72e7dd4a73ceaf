package format

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Format
	}{
		{"xml declaration", `<?xml version="1.0"?><Document/>`, XML},
		{"xml element", "  <Document></Document>", XML},
		{"swift block 1", "{1:F01BANKBEBBAXXX0000000000}{2:I103BANKDEFFXXXXN}", SwiftMT},
		{"swift block 4", "{4:\n:20:REF\n-}", SwiftMT},
		{"block 6 is json", "{6:x}", JSON},
		{"json object", `{"a":1}`, JSON},
		{"json array", `[1,2]`, JSON},
		{"json with leading whitespace", "\n\t {\"a\":1}", JSON},
		{"lone brace", "{", JSON},
		{"garbage", "garbage", SwiftMT},
		{"empty", "", SwiftMT},
		{"whitespace only", "   \n", SwiftMT},
		{"swift body without header", ":20:REFERENCE123", SwiftMT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Detect(tt.text)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestDetectIdempotentUnderTrim(t *testing.T) {
	inputs := []string{"  <a/>  ", "\n{1:x}", " {\"a\":1} ", "\tabc", ""}
	for _, in := range inputs {
		if Detect(in) != Detect(strings.TrimSpace(in)) {
			t.Errorf("Expected trimming to not change result for %q", in)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		format   Format
		expected string
	}{
		{SwiftMT, "SWIFT MT"},
		{XML, "XML"},
		{JSON, "JSON"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.format); got != tt.expected {
			t.Errorf("Expected '%s', got '%s'", tt.expected, got)
		}
	}
}
