package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"factposter/cmd/factposter/commands"
	"factposter/internal/logger"
)

func main() {
	logger.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
