package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docmask/internal/docsource"
	"docmask/internal/ledger"
	"docmask/internal/match"
	"docmask/internal/textnorm"
)

func newExtractCmd() *cobra.Command {
	var startWord, endWord string
	var excludeEnd bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Print the range of the document between two words",
		Long: `Extract prints the part of the document between the first occurrence of
the start word and the first occurrence of the end word after it.
Matching ignores case and accents.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIn(); err != nil {
				return err
			}
			if startWord == "" || endWord == "" {
				return errors.New("--start and --end are required")
			}
			text, err := docsource.Load(inPath)
			if err != nil {
				return err
			}
			include := cfg.IncludeEndWord && !excludeEnd
			extract, err := match.Extract(text, startWord, endWord, include)
			if err != nil {
				return err
			}
			fmt.Println(extract)
			return nil
		},
	}
	cmd.Flags().StringVar(&startWord, "start", "", "word that opens the range")
	cmd.Flags().StringVar(&endWord, "end", "", "word that closes the range")
	cmd.Flags().BoolVar(&excludeEnd, "exclude-end", false, "cut before the end word instead of after it")
	return cmd
}

func newMaskCmd() *cobra.Command {
	var startWord, endWord string

	cmd := &cobra.Command{
		Use:   "mask [names]",
		Short: "Mask names in the document and record them in the ledger",
		Long: `Mask replaces every occurrence of the given names with [NAME_n] tokens
and writes the change ledger next to the output. Names are comma-separated;
matching ignores case and accents. Running mask again with the same ledger
adds new names without disturbing existing tokens.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIn(); err != nil {
				return err
			}
			text, err := loadWorkingText(startWord, endWord)
			if err != nil {
				return err
			}
			led, err := loadOrNewLedger()
			if err != nil {
				return err
			}

			names := ledger.ParseNames(strings.Join(args, ","))
			added := led.ApplyAll(text, names)
			masked, report := led.Rebuild(text)
			if err := led.SaveFile(effectiveLedgerPath()); err != nil {
				return err
			}

			log.Info("masked",
				zap.Int("occurrences", added),
				zap.Int("names", led.Names()),
				zap.Int("stale", report.Stale))
			fmt.Println(masked)
			return nil
		},
	}
	cmd.Flags().StringVar(&startWord, "start", "", "mask only from this word")
	cmd.Flags().StringVar(&endWord, "end", "", "mask only up to this word")
	return cmd
}

func newUndoCmd() *cobra.Command {
	var index int
	var startWord, endWord string

	cmd := &cobra.Command{
		Use:   "undo [name]",
		Short: "Unmask one name and renumber the remaining tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireIn(); err != nil {
				return err
			}
			led, err := ledger.LoadFile(effectiveLedgerPath())
			if err != nil {
				return err
			}
			switch {
			case len(args) == 1:
				err = led.Undo(textnorm.Normalize(args[0]))
			case index > 0:
				err = led.UndoIndex(index - 1)
			default:
				return errors.New("need a name argument or --index")
			}
			if err != nil {
				return err
			}

			text, err := loadWorkingText(startWord, endWord)
			if err != nil {
				return err
			}
			masked, _ := led.Rebuild(text)
			if err := led.SaveFile(effectiveLedgerPath()); err != nil {
				return err
			}
			fmt.Println(masked)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "1-based position in the masked-name list")
	cmd.Flags().StringVar(&startWord, "start", "", "mask only from this word")
	cmd.Flags().StringVar(&endWord, "end", "", "mask only up to this word")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [file]",
		Short: "Substitute original names back into text carrying mask tokens",
		Long: `Restore reads text (a file argument, or stdin when omitted) and replaces
every [NAME_n] token with the name recorded in the ledger.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ledger.LoadFile(effectiveLedgerPath())
			if err != nil {
				return err
			}
			var data []byte
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			fmt.Println(led.Restore(string(data)))
			return nil
		},
	}
}

// loadWorkingText loads the document and optionally narrows it to the range
// between startWord and endWord.
func loadWorkingText(startWord, endWord string) (string, error) {
	text, err := docsource.Load(inPath)
	if err != nil {
		return "", err
	}
	if startWord == "" && endWord == "" {
		return text, nil
	}
	if startWord == "" || endWord == "" {
		return "", errors.New("--start and --end must be given together")
	}
	return match.Extract(text, startWord, endWord, cfg.IncludeEndWord)
}

// loadOrNewLedger reads the ledger file, treating a missing file as empty.
func loadOrNewLedger() (*ledger.Ledger, error) {
	led, err := ledger.LoadFile(effectiveLedgerPath())
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.New(), nil
	}
	return led, err
}
