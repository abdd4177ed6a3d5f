package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pms/internal/flagx"
	"github.com/dmitrijs2005/pms/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Pointer fields
// distinguish "absent" from zero values so a partial file only overrides
// what it mentions.
type JsonConfig struct {
	EndpointAddrHTTP       *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC       *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN            *string         `json:"database_dsn"`
	SecretKey              *string         `json:"secret_key"`
	TokenValidityDuration  *timex.Duration `json:"token_validity_duration"`
	PasswordIterations     *int            `json:"password_iterations"`
	AllowPlainPasswords    *bool           `json:"allow_plain_passwords"`
	AuthCookieName         *string         `json:"auth_cookie_name"`
	AuthQueryParam         *string         `json:"auth_query_param"`
	PrincipalLookupTimeout *timex.Duration `json:"principal_lookup_timeout"`
	MigrateOnStart         *bool           `json:"migrate_on_start"`
	LogLevel               *string         `json:"log_level"`
	LogFormat              *string         `json:"log_format"`
}

// parseJson overlays the JSON file given by -c/-config onto config. With
// no flag it does nothing; an unreadable or invalid file panics, since the
// server must not start on a config the operator did not intend.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.PasswordIterations != nil {
		config.PasswordIterations = *c.PasswordIterations
	}
	if c.AllowPlainPasswords != nil {
		config.AllowPlainPasswords = *c.AllowPlainPasswords
	}
	setString(&config.AuthCookieName, c.AuthCookieName)
	setString(&config.AuthQueryParam, c.AuthQueryParam)
	if c.PrincipalLookupTimeout != nil {
		config.PrincipalLookupTimeout = c.PrincipalLookupTimeout.Duration
	}
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
