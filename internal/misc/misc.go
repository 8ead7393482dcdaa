package misc

import (
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/net/html"
)

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return Min(Max(v, lo), hi)
}

// StringLimit truncates s to at most n bytes, appending "..." when
// something was cut. A multi-byte rune at the cut point may be split; the
// output is only ever used in log lines.
func StringLimit(s string, n int) string {
	if n < 0 {
		return ""
	}
	if n <= 3 {
		return s[:Min(n, len(s))]
	}
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// StripHTML reduces an HTML fragment to its text content. Book descriptions
// pass through here before being stored.
func StripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}
	var sb strings.Builder
	tz := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.WriteString(tz.Token().Data)
		}
	}
	return strings.TrimSpace(sb.String())
}
