package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mindkeeper/internal/client/cli"
	"github.com/dmitrijs2005/mindkeeper/internal/client/config"
	"github.com/dmitrijs2005/mindkeeper/internal/filex"
	"github.com/dmitrijs2005/mindkeeper/internal/logging"
)

const logMaxSizeMB = 10

func main() {

	cfg := config.LoadConfig()

	if err := filex.EnsureParentDir(cfg.LogFile); err != nil {
		log.Fatalf("%v", err)
	}
	logger, closer := logging.NewFileLogger(cfg.LogFile, logMaxSizeMB, logging.ParseLevel(cfg.LogLevel))
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
