package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docmask/internal/ledger"
	"docmask/internal/llm"
	"docmask/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		startWord, endWord string
		instructions       string
		instructionsLabel  string
		model              string
		maxTokens          int
		showMasked         bool
	)

	cmd := &cobra.Command{
		Use:   "run [names]",
		Short: "Mask, send to a model, and restore the reply in one pass",
		Long: `Run drives the whole pipeline: load the document, optionally narrow it to
the range between --start and --end, mask the given names, send the masked
text with the instructions to the chosen model, and print the reply with
the original names restored. Nothing but masked text leaves the machine.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIn(); err != nil {
				return err
			}
			if instructions == "" && instructionsLabel == "" {
				return errors.New("--instructions or --instructions-label is required")
			}
			if instructionsLabel != "" {
				dicts, err := openStore()
				if err != nil {
					return err
				}
				text, ok, err := dicts.Get(store.KindInstructions, instructionsLabel)
				closeErr := dicts.Close()
				if err != nil {
					return err
				}
				if closeErr != nil {
					return closeErr
				}
				if !ok {
					return fmt.Errorf("no saved instructions named %q", instructionsLabel)
				}
				instructions = text
			}
			if model == "" {
				model = cfg.DefaultModel
			}
			if maxTokens <= 0 {
				maxTokens = cfg.MaxTokens
			}

			text, err := loadWorkingText(startWord, endWord)
			if err != nil {
				return err
			}

			led := ledger.New()
			names := ledger.ParseNames(strings.Join(args, ","))
			occurrences := led.ApplyAll(text, names)
			masked, report := led.Rebuild(text)
			log.Info("masked for completion",
				zap.Int("occurrences", occurrences),
				zap.Int("names", led.Names()),
				zap.Int("stale", report.Stale),
				zap.Int("overlaps", report.Overlaps))
			if showMasked {
				fmt.Println(masked)
				fmt.Println("---")
			}

			reg := llm.FromConfig(cfg)
			req := llm.NewRequest(instructions, masked, model, maxTokens)

			ctx, cancel := context.WithTimeout(cmd.Context(),
				time.Duration(cfg.RequestTimeoutSeconds)*time.Second)
			defer cancel()

			start := time.Now()
			reply, err := llm.Complete(ctx, reg, req)
			if err != nil {
				return err
			}
			log.Info("completion finished",
				zap.String("requestId", req.ID),
				zap.String("model", model),
				zap.Duration("elapsed", time.Since(start)))

			fmt.Println(led.Restore(reply))
			return nil
		},
	}

	cmd.Flags().StringVar(&startWord, "start", "", "mask only from this word")
	cmd.Flags().StringVar(&endWord, "end", "", "mask only up to this word")
	cmd.Flags().StringVar(&instructions, "instructions", "", "instructions sent ahead of the masked text")
	cmd.Flags().StringVar(&instructionsLabel, "instructions-label", "", "use saved instructions from the store")
	cmd.Flags().StringVar(&model, "model", "", "model identifier (defaults to config)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "reply token budget (defaults to config)")
	cmd.Flags().BoolVar(&showMasked, "show-masked", false, "print the masked text before the reply")
	return cmd
}
