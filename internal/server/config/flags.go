package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/pms/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3100")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      token validity, minutes; overrides TOKEN_TTL only when given
//	-i int      PBKDF2 iterations for new password hashes
//	-p          accept "plain$" fixture password hashes (development only)
//	-m          run migrations on start
//	-l string   log level
//	-f string   log format (json, text, zerolog)
//
// Only these flags are picked out of os.Args (see flagx.FilterArgs), so
// other components may define their own.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-g", "-d", "-s", "-t", "-i", "-p", "-m", "-l", "-f"},
		"-p", "-m")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")

	fs.IntVar(&config.PasswordIterations, "i", config.PasswordIterations, "PBKDF2 iterations")
	fs.BoolVar(&config.AllowPlainPasswords, "p", config.AllowPlainPasswords, "allow plain$ fixture passwords")
	fs.BoolVar(&config.MigrateOnStart, "m", config.MigrateOnStart, "run migrations on start")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
