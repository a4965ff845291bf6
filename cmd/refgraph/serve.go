package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/refgraph"
	httpAdapter "github.com/aretw0/refgraph/pkg/adapters/http"
	"github.com/aretw0/refgraph/pkg/observability"
	"github.com/aretw0/refgraph/pkg/ports"
	"github.com/aretw0/refgraph/pkg/registry"
	"github.com/aretw0/refgraph/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type serveConfig struct {
	SchemaPath string
	SnapshotID string
	Metrics    bool
	Store      ports.SnapshotStore
	Logger     *slog.Logger
}

// newDocumentHandler builds the registry and the document, restores the snapshot if
// one is named and returns the HTTP handler serving it.
func newDocumentHandler(ctx context.Context, cfg serveConfig) (*refgraph.Document, http.Handler, func() error, error) {
	reg := registry.NewRegistry()
	if cfg.SchemaPath != "" {
		classes, err := schema.BuildFile(reg, cfg.SchemaPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to build schema: %w", err)
		}
		cfg.Logger.Info("Schema loaded", "file", cfg.SchemaPath, "classes", len(classes))
	}

	opts := []refgraph.Option{
		refgraph.WithRegistry(reg),
		refgraph.WithStore(cfg.Store),
		refgraph.WithLogger(cfg.Logger),
	}
	var handlerOpts []httpAdapter.Option
	var promReg *prometheus.Registry
	if cfg.Metrics {
		promReg = prometheus.NewRegistry()
		opts = append(opts, refgraph.WithMetricsRegisterer(promReg))
		handlerOpts = append(handlerOpts, httpAdapter.WithGatherer(promReg))
	}
	doc := refgraph.New(opts...)

	closers := []func() error{}
	if promReg != nil {
		events := observability.NewEventMetrics(promReg)
		listener, err := doc.Watch(events.Observe)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, listener.Close)
	}

	if cfg.SnapshotID != "" {
		if err := doc.Load(ctx, cfg.SnapshotID); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load snapshot %s: %w", cfg.SnapshotID, err)
		}
		cfg.Logger.Info("Snapshot loaded", "id", cfg.SnapshotID, "objects", len(doc.Objects()))
	}

	handlerOpts = append(handlerOpts, httpAdapter.WithLogger(cfg.Logger))
	handler, closeFn, err := httpAdapter.NewHandler(doc, handlerOpts...)
	if err != nil {
		return nil, nil, nil, err
	}
	closers = append(closers, closeFn)
	return doc, handler, func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}, nil
}

func newServeCmd(a *app) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a document over HTTP",
		Long: `Loads a class table and optionally a snapshot, then exposes the document over HTTP:
its snapshot, undo history, undo/redo and a server-sent event stream of changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			schemaPath, _ := cmd.Flags().GetString("schema")
			snapshotID, _ := cmd.Flags().GetString("snapshot")
			metrics, _ := cmd.Flags().GetBool("metrics")

			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			_, handler, closeHandler, err := newDocumentHandler(cmd.Context(), serveConfig{
				SchemaPath: schemaPath,
				SnapshotID: snapshotID,
				Metrics:    metrics,
				Store:      store,
				Logger:     a.logger,
			})
			if err != nil {
				return err
			}
			defer closeHandler()

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("Starting refgraph server", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-shutdown:
				a.logger.Info("Start shutdown", "signal", sig)

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					a.logger.Warn("Graceful shutdown did not complete", "error", err)
					return srv.Close()
				}
				a.logger.Info("Server stopped gracefully")
				return nil
			}
		},
	}
	addStoreFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().String("schema", "", "Class table to build before loading")
	serveCmd.Flags().String("snapshot", "", "Snapshot to load from the store")
	serveCmd.Flags().Bool("metrics", false, "Expose prometheus metrics on /metrics")
	return serveCmd
}
