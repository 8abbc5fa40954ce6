// badel serves the announces and wishlists REST API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saddemm/Projet-Badel/config"
	"github.com/saddemm/Projet-Badel/internal/backend"
	"github.com/saddemm/Projet-Badel/server"
	"github.com/saddemm/Projet-Badel/store"
)

// Set via ldflags
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "badel",
		Short:        "REST API for announces and wishlists",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSeedCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
			},
		},
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := backend.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := b.Close(context.Background()); err != nil {
					log.Printf("Closing %s store: %v", b.Driver, err)
				}
			}()

			engine, err := server.NewEngine(cfg, b.Stores)
			if err != nil {
				return err
			}
			return server.Run(ctx, cfg, engine)
		},
	}
}

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <resource> <file.json>",
		Short: "Insert the records of a JSON array file into a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, file := args[0], args[1]

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var docs []*store.Document
			if err := json.Unmarshal(data, &docs); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			ctx := cmd.Context()
			b, err := backend.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close(context.Background())

			n, err := seed(ctx, b.Stores, resource, docs)
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d %s\n", n, resource)
			return err
		},
	}
}

// seed creates docs in the store of resource and returns how many were created.
func seed(ctx context.Context, stores map[string]store.Store, resource string, docs []*store.Document) (int, error) {
	s, ok := stores[resource]
	if !ok {
		return 0, fmt.Errorf("unknown resource %q", resource)
	}

	for i, doc := range docs {
		if doc == nil {
			return i, fmt.Errorf("record %d is not an object", i)
		}
		if _, err := s.Create(ctx, store.StripIdentity(doc)); err != nil {
			return i, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return len(docs), nil
}
