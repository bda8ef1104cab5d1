// Command server runs the reconciliation engine headless and exposes it to
// screen processes over gRPC.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/profilesync/internal/buildinfo"
	"github.com/dmitrijs2005/profilesync/internal/client/bootstrap"
	"github.com/dmitrijs2005/profilesync/internal/client/config"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	grpcserver "github.com/dmitrijs2005/profilesync/internal/server/grpc"
	"golang.org/x/sync/errgroup"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stdout, "json", cfg.LogLevel)

	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer rt.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Engine.Run(gctx)
	})
	g.Go(func() error {
		srv := grpcserver.NewGRPCServer(cfg.ListenAddr, logger, rt.Sessions, rt.Engine, cfg.UIToken)
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "daemon stopped", "error", err)
	}

}
