package auth

import "strings"

// NormalizeToken cleans a credential taken from a header, cookie, query
// parameter or gRPC metadata value. It trims the value, strips one pair of
// enclosing quotes and up to two "Bearer " prefixes (any case), then strips
// quotes again. An empty result means no credential.
func NormalizeToken(v string) string {
	v = unquote(strings.TrimSpace(v))
	for range 2 {
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			v = strings.TrimSpace(v[7:])
		}
	}
	return strings.TrimSpace(unquote(v))
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
