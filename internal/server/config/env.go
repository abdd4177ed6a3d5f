package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// parseEnv loads .env (if present, without overriding real environment
// variables) and overlays recognised variables onto config. Values that do
// not parse are ignored and the previous layer wins.
//
//	DATABASE_URL, JWT_SECRET, PORT, HTTP_ADDR, GRPC_ADDR, TOKEN_TTL,
//	PASSWORD_ITERATIONS, AUTH_ALLOW_PLAIN_PASSWORDS, AUTH_COOKIE_NAME,
//	AUTH_QUERY_PARAM, PRINCIPAL_LOOKUP_TIMEOUT, MIGRATE_ON_START,
//	LOG_LEVEL, LOG_FORMAT
//
// PORT is the bare port number; HTTP_ADDR wins over it when both are set.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "JWT_SECRET")
	if port, ok := lookupEnv("PORT"); ok && port != "" {
		config.EndpointAddrHTTP = ":" + port
	}
	envString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	envString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	envDuration(&config.TokenValidityDuration, "TOKEN_TTL")
	if v, ok := lookupEnv("PASSWORD_ITERATIONS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.PasswordIterations = n
		}
	}
	envBool(&config.AllowPlainPasswords, "AUTH_ALLOW_PLAIN_PASSWORDS")
	envString(&config.AuthCookieName, "AUTH_COOKIE_NAME")
	envString(&config.AuthQueryParam, "AUTH_QUERY_PARAM")
	envDuration(&config.PrincipalLookupTimeout, "PRINCIPAL_LOOKUP_TIMEOUT")
	envBool(&config.MigrateOnStart, "MIGRATE_ON_START")
	envString(&config.LogLevel, "LOG_LEVEL")
	envString(&config.LogFormat, "LOG_FORMAT")
}

func envString(dst *string, key string) {
	if v, ok := lookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if v, ok := lookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(dst *time.Duration, key string) {
	if v, ok := lookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
