package main

import (
	"fmt"
	"os"

	"github.com/PizzaHomicide/embedplayer/internal/bundle"
	"github.com/PizzaHomicide/embedplayer/internal/config"
	"github.com/PizzaHomicide/embedplayer/internal/log"
	"github.com/PizzaHomicide/embedplayer/internal/player"
	"github.com/PizzaHomicide/embedplayer/internal/provider"
	"github.com/PizzaHomicide/embedplayer/internal/ui/tui"
	"github.com/PizzaHomicide/embedplayer/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialise logger
	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	// Every record carries the pid so runs sharing a log file can be told apart
	log.SetDefaultLogger(logger.With("pid", os.Getpid()))

	log.Info("Starting up embedplayer", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	prov := provider.New(bundle.Config{
		BundlerURL: cfg.Bundle.BundlerURL,
		PartnerID:  cfg.Bundle.PartnerID,
		UIConfID:   cfg.Bundle.UIConfID,
		KS:         cfg.Bundle.KS,
	}, provider.Deps{
		Loader:  bundle.NewLoader(bundle.NewHTTPPage(nil)),
		Manager: player.CreateManager(cfg),
	})

	err = tui.Run(cfg, prov)
	prov.Close()
	if err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		os.Exit(1)
	}

	log.Info("embedplayer shutting down.  Goodbye!")
}
