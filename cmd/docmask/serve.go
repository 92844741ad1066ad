package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docmask/internal/llm"
	"docmask/internal/metrics"
	"docmask/internal/server"
	"docmask/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the docmask HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			dicts, err := openStore()
			if err != nil {
				return err
			}
			defer dicts.Close() //nolint:errcheck // process is exiting

			reg := llm.FromConfig(cfg)
			if len(reg.Models()) == 0 {
				log.Warn("no provider API keys configured, completion calls will fail")
			}

			srv := server.New(cfg, log, metrics.New(), reg, dicts)
			return srv.ListenAndServe()
		},
	}
}

// openStore opens the configured persistent store, falling back to memory
// when no path is set.
func openStore() (store.Store, error) {
	if cfg.StorePath == "" {
		return store.NewMemory(), nil
	}
	s, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	log.Debug("store opened", zap.String("path", cfg.StorePath))
	return s, nil
}
