package common

// Credential carriers accepted by the authentication gate, in priority order
// after the Authorization header.
const (
	AuthorizationHeaderName = "Authorization"
	AccessTokenHeaderName   = "X-Access-Token"

	// gRPC metadata keys are always lower case.
	AuthorizationMetadataKey = "authorization"
	AccessTokenMetadataKey   = "x-access-token"

	DefaultAuthCookieName  = "token"
	FallbackAuthCookieName = "authorization"

	DefaultAuthQueryParam  = "access_token"
	FallbackAuthQueryParam = "token"

	RequestIDHeaderName = "X-Request-ID"
)
