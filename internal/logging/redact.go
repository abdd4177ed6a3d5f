package logging

import (
	"fmt"
	"strings"
)

// Redacted replaces the value of any attribute whose key looks like it holds
// a credential.
const Redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "secret", "token", "authorization", "cookie"}

func sensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// redact returns args with credential values masked. args is only copied
// when something has to change.
func redact(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if !sensitive(key) {
			continue
		}
		if out == nil {
			out = append([]any(nil), args...)
		}
		out[i+1] = Redacted
	}
	if out == nil {
		return args
	}
	return out
}
