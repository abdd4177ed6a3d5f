package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pms/internal/ctl"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// .env is optional; flags and the real environment take precedence.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := ctl.NewApp(os.Stdout, os.Stdin)
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("pmsctl failed")
		cancel()
		os.Exit(1)
	}
}
