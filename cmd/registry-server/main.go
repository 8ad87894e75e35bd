package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/image-copyright-registry/api/handlers"
	"github.com/ruteri/image-copyright-registry/api/servers"
	"github.com/ruteri/image-copyright-registry/cmd/flags"
	"github.com/ruteri/image-copyright-registry/identity"
	"github.com/ruteri/image-copyright-registry/interfaces"
	"github.com/ruteri/image-copyright-registry/registry"
	"github.com/ruteri/image-copyright-registry/statedb"
	"github.com/ruteri/image-copyright-registry/storage"
	"github.com/urfave/cli/v2"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var flagJournal = &cli.StringFlag{
	Name:  "journal",
	Value: "sqlite://registry.db",
	Usage: "event journal URI: memory://, sqlite://<path> or bolt://<path>",
}

var flagSignatureSkew = &cli.DurationFlag{
	Name:  "signature-skew",
	Value: identity.DefaultMaxSkew,
	Usage: "maximum accepted distance between a request timestamp and the server clock",
}

func main() {
	serverFlags, loadConfig := flags.WithConfigFile(append([]cli.Flag{
		flagListenAddr,
		flagJournal,
		flags.ContentStoreFlag,
		flagSignatureSkew,
		flags.LogServiceFlagFn("image-copyright-registry"),
	}, flags.CommonFlags...))

	app := &cli.App{
		Name:   "registry-server",
		Usage:  "Serve the image copyright registry API",
		Flags:  serverFlags,
		Before: loadConfig,
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			journal, err := statedb.JournalFor(cCtx.String(flagJournal.Name), logger)
			if err != nil {
				logger.Error("Failed to open journal", "err", err)
				return err
			}
			defer journal.Close()

			startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			reg, err := registry.NewRegistry(startupCtx, journal, logger)
			if err != nil {
				logger.Error("Failed to restore registry from journal", "err", err)
				return err
			}

			store, err := contentStore(cCtx, logger)
			if err != nil {
				return err
			}

			verifier := identity.NewSignatureVerifier(cCtx.Duration(flagSignatureSkew.Name), logger)
			handler := handlers.NewHandler(reg, store, verifier, logger)

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flagListenAddr.Name))
			server, err := servers.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}
			handler.SetObserver(server.Metrics())

			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Drain()
			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// contentStore returns nil when no store is configured, which disables uploads.
func contentStore(cCtx *cli.Context, logger *slog.Logger) (interfaces.ContentStore, error) {
	uris := cCtx.StringSlice(flags.ContentStoreFlag.Name)
	if len(uris) == 0 {
		logger.Warn("No content store configured, uploads are disabled")
		return nil, nil
	}

	locations := make([]interfaces.StorageBackendLocation, 0, len(uris))
	for _, uri := range uris {
		loc, err := interfaces.NewStorageBackendLocation(uri)
		if err != nil {
			logger.Error("Invalid content store URI", "err", err)
			return nil, fmt.Errorf("content store %q: %w", uri, err)
		}
		locations = append(locations, loc)
	}

	store, err := storage.NewContentStoreFactory(logger).CreateMultiStore(locations)
	if err != nil {
		logger.Error("Failed to create content store", "err", err)
		return nil, err
	}
	logger.Info("Content store configured", "location", store.LocationURI())
	return store, nil
}
