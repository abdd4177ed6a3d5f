package httpapi

import (
	"net/http"
	"slices"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/server/auth"
)

// TokenSources lists the cookie and query parameter names consulted after
// the two headers, in order.
type TokenSources struct {
	Cookies []string
	Query   []string
}

// DefaultTokenSources checks cookies token and authorization, then query
// parameters access_token and token.
func DefaultTokenSources() TokenSources {
	return TokenSources{
		Cookies: []string{common.DefaultAuthCookieName, common.FallbackAuthCookieName},
		Query:   []string{common.DefaultAuthQueryParam, common.FallbackAuthQueryParam},
	}
}

// ExtractToken returns the first non-empty normalised credential in
// priority order: Authorization header, X-Access-Token header, cookies,
// then query parameters. It returns "" when none is present.
func ExtractToken(r *http.Request, src TokenSources) string {
	if t := auth.NormalizeToken(r.Header.Get(common.AuthorizationHeaderName)); t != "" {
		return t
	}
	if t := auth.NormalizeToken(r.Header.Get(common.AccessTokenHeaderName)); t != "" {
		return t
	}
	for _, name := range src.Cookies {
		if c, err := r.Cookie(name); err == nil {
			if t := auth.NormalizeToken(c.Value); t != "" {
				return t
			}
		}
	}
	q := r.URL.Query()
	for _, name := range src.Query {
		if t := auth.NormalizeToken(q.Get(name)); t != "" {
			return t
		}
	}
	return ""
}

// NewTokenSources puts the configured cookie and query names ahead of the
// defaults, dropping duplicates and empty names.
func NewTokenSources(cookie, query string) TokenSources {
	def := DefaultTokenSources()
	return TokenSources{
		Cookies: uniqueNames(append([]string{cookie}, def.Cookies...)),
		Query:   uniqueNames(append([]string{query}, def.Query...)),
	}
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}
