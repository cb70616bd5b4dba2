package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/phambaophuc/imgres/internal/cli"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(cli.DefaultDeps(logger)).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
