// Command docmask masks personal names in documents before they are sent
// to a hosted language model, and restores them in the reply.
//
// Matching ignores case and accents, so "Jean Dupont", "jean dupont" and
// "JEAN DUPONT" all collapse onto the same [NAME_n] token. The change
// ledger records every replacement against the immutable source text, so
// masking can be undone name by name and model output can be restored
// exactly.
//
// Usage:
//
//	docmask serve                        # start the HTTP API
//	docmask extract -i report.docx --start introduction --end conclusion
//	docmask mask -i report.docx "Jean Dupont, Marie Curie"
//	docmask run -i report.docx --instructions "Summarize." "Jean Dupont"
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docmask/internal/config"
	"docmask/internal/logger"
)

var (
	cfg *config.Config
	log *zap.Logger

	inPath     string
	ledgerPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docmask",
		Short: "Reversible name masking for documents sent to language models",
		Long: `docmask replaces personal names in a document with [NAME_n] tokens
before the text leaves the machine, and substitutes them back into the
model reply. Matching ignores case and accents; every replacement is
recorded in a ledger so masking is reversible and repeatable.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real env vars win either way.
			_ = godotenv.Load()
			cfg = config.Load()
			log = logger.New("docmask", cfg.LogLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&inPath, "in", "i", "", "source document (.docx or plain text)")
	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "ledger file (defaults to config)")

	rootCmd.AddCommand(
		newServeCmd(),
		newExtractCmd(),
		newMaskCmd(),
		newUndoCmd(),
		newRestoreCmd(),
		newRunCmd(),
		newDictCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// effectiveLedgerPath resolves the --ledger flag against the config default.
func effectiveLedgerPath() string {
	if ledgerPath != "" {
		return ledgerPath
	}
	return cfg.LedgerPath
}

// requireIn enforces the --in flag for commands that read a document.
func requireIn() error {
	if inPath == "" {
		return fmt.Errorf("--in is required")
	}
	return nil
}
