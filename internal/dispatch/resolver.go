package dispatch

import (
	"strings"

	"github.com/opsdesk/opsdesk/internal/department"
)

// Resolve determines which department a raw text targets. An explicit
// "@DEPT" marker anywhere in the text wins over the active department and is
// stripped from the returned text in every case variant. Only the first
// department in enumeration order is honored; markers do not compose.
func Resolve(text string, active department.Department) (department.Department, string) {
	t := strings.TrimSpace(text)
	for _, d := range department.All {
		marker := "@" + string(d)
		if indexFold(t, marker) >= 0 {
			return d, strings.TrimSpace(removeFold(t, marker))
		}
	}
	return active, t
}

// removeFold removes every case-insensitive occurrence of marker from s.
func removeFold(s, marker string) string {
	var b strings.Builder
	for {
		idx := indexFold(s, marker)
		if idx < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:idx])
		s = s[idx+len(marker):]
	}
}

// indexFold locates substr in s ignoring ASCII case only. Markers are pure
// ASCII; a full Unicode uppercase can change byte lengths (ɱ → Ɱ) and skew
// the returned index into the original string.
func indexFold(s, substr string) int {
	return strings.Index(upperASCII(s), upperASCII(substr))
}

func upperASCII(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			if b == nil {
				b = []byte(s)
			}
			b[i] = c - ('a' - 'A')
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}
