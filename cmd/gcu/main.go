package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzbill/gcu/internal/app"
	"github.com/rzbill/gcu/pkg/cli/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := cmd.NewRootCmd(app.Factory)
	root.SetContext(ctx)
	code := cmd.Execute(root)
	stop()
	os.Exit(code)
}
