package misc

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 1, 10, 5},
		{0, 1, 10, 1},
		{15, 1, 10, 10},
		{1, 1, 10, 1},
		{10, 1, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Fatalf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestStringLimit(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 45, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a longer string that needs cutting", 10, "a longe..."},
		{"abc", 3, "abc"},
		{"abcdef", 2, "ab"},
		{"anything", -1, ""},
	}
	for _, tt := range tests {
		if got := StringLimit(tt.s, tt.n); got != tt.want {
			t.Fatalf("StringLimit(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"  padded  ", "padded"},
		{"<p>First edition, <b>good</b> condition</p>", "First edition, good condition"},
		{"<script>alert(1)</script>hello", "alert(1)hello"},
		{"<div><span>nested</span></div>", "nested"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripHTML(tt.in); got != tt.want {
			t.Fatalf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
