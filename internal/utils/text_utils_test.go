package utils

import "testing"

func TestNormalizeWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  FROM:   Acme   Corp  ", "FROM: Acme Corp"},
		{"line\none\n\nline two", "line one line two"},
		{"\t\n ", ""},
		{"already clean", "already clean"},
	}
	for _, tc := range cases {
		if got := NormalizeWhitespace(tc.in); got != tc.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("hello", 120); got != "hello" {
		t.Errorf("TruncateText under limit = %q", got)
	}
	if got := TruncateText("hello world", 5); got != "hello" {
		t.Errorf("TruncateText over limit = %q", got)
	}
	// Must not split a multi-byte rune
	got := TruncateText("héllo", 2)
	if got != "h" {
		t.Errorf("TruncateText mid-rune = %q", got)
	}
}
