package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/profilesync/internal/buildinfo"
	"github.com/dmitrijs2005/profilesync/internal/client/bootstrap"
	"github.com/dmitrijs2005/profilesync/internal/client/cli"
	"github.com/dmitrijs2005/profilesync/internal/client/config"
	"github.com/dmitrijs2005/profilesync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, "text", cfg.LogLevel)

	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer rt.Close()

	app := cli.NewApp(rt.Sessions, rt.Engine, os.Stdin, os.Stdout, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "cli stopped", "error", err)
	}

}
