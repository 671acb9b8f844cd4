package redact

import "math"

// DefaultEntropyThreshold is the Shannon-entropy cutoff (bits/char)
// above which a token is considered high-entropy enough to be a secret.
const DefaultEntropyThreshold = 4.0

// ShannonEntropy computes the Shannon entropy, in bits per character,
// of s.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	n := float64(len(s))
	var entropy float64
	for _, c := range counts {
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// IsHighEntropy reports whether s is long enough, and random-looking
// enough, to plausibly be a token/secret rather than prose. Paths and
// URLs are exempted unless they carry embedded credentials (an "@" or
// a "://").
func IsHighEntropy(s string, threshold float64) bool {
	if len(s) < 16 || len(s) > 256 {
		return false
	}
	looksLikePathOrURL := (len(s) > 0 && (s[0] == '/' || containsScheme(s))) && !containsAny(s, "@") && !containsAny(s, "://")
	if looksLikePathOrURL {
		return false
	}
	return ShannonEntropy(s) >= threshold
}

func containsScheme(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == ':' && s[i+1] == '/' && s[i+2] == '/' {
			return true
		}
	}
	return false
}

func containsAny(s, substr string) bool {
	return len(substr) > 0 && indexOf(s, substr) >= 0
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

// alphanumericRatio is the fraction of characters in s that are letters
// or digits.
func alphanumericRatio(s string) float64 {
	if s == "" {
		return 0
	}
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			n++
		}
	}
	return float64(n) / float64(len(s))
}

// LooksLikeToken applies the entropy-detector's pre-filter: length at
// least 16, mostly alphanumeric, then the entropy check itself.
func LooksLikeToken(s string) bool {
	if len(s) < 16 {
		return false
	}
	if alphanumericRatio(s) < 0.7 {
		return false
	}
	return IsHighEntropy(s, DefaultEntropyThreshold)
}
