// Command server runs the pms HTTP and gRPC APIs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pms/internal/server"
	"github.com/dmitrijs2005/pms/internal/server/config"
)

func run(ctx context.Context) error {
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer app.Close()

	return app.Run(ctx)
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "pms: %v\n", err)
		os.Exit(1)
	}
}
