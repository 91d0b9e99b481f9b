package importer

import "strings"

// nearIdentical reports whether two questions are >95% similar by shared
// character bigrams (Jaccard index). Case and surrounding space are ignored.
func nearIdentical(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}

	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return false
	}

	shared := 0
	for bg := range ba {
		if bb[bg] {
			shared++
		}
	}
	union := len(ba) + len(bb) - shared
	return float64(shared)/float64(union) > 0.95
}

func bigrams(s string) map[string]bool {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	m := make(map[string]bool, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		m[string(r[i:i+2])] = true
	}
	return m
}

func duplicate(q string, known []string) bool {
	for _, k := range known {
		if nearIdentical(q, k) {
			return true
		}
	}
	return false
}
