package strings

import (
	"testing"
)

func TestTruncateCell(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "hello", maxLen: 10, expected: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, expected: "hello"},
		{name: "long string truncated", input: "hello world this is a long string", maxLen: 15, expected: "hello world ..."},
		{name: "newlines collapsed", input: "hello\n\n\tworld", maxLen: 20, expected: "hello world"},
		{name: "unicode kept whole", input: "héllo wörld", maxLen: 8, expected: "héllo..."},
		{name: "tiny max clamped", input: "abcdefgh", maxLen: 1, expected: "a..."},
		{name: "empty", input: "", maxLen: 10, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateCell(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("TruncateCell(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestCompactScope(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.googleapis.com/auth/analytics.readonly https://www.googleapis.com/auth/userinfo.email", "analytics.readonly userinfo.email"},
		{"files.content.read account_info.read", "files.content.read account_info.read"},
		{"openid  email", "openid email"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CompactScope(tt.input); got != tt.expected {
			t.Errorf("CompactScope(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
