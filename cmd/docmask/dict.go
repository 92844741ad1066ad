package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docmask/internal/store"
)

// newDictCmd groups the saved-text subcommands: reusable completion
// instructions and chat snippets, stored under labels.
func newDictCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage saved instructions and snippets",
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", store.KindInstructions,
		fmt.Sprintf("dictionary kind (%s or %s)", store.KindInstructions, store.KindSnippets))

	withStore := func(fn func(s store.Store) error) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close() //nolint:errcheck // read path, close error not actionable
		return fn(s)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved labels",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s store.Store) error {
					labels, err := s.List(kind)
					if err != nil {
						return err
					}
					for _, l := range labels {
						fmt.Println(l)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get <label>",
			Short: "Print the text saved under a label",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s store.Store) error {
					text, ok, err := s.Get(kind, args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("no %s named %q", kind, args[0])
					}
					fmt.Println(text)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "set <label> <text...>",
			Short: "Save text under a label",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s store.Store) error {
					return s.Save(kind, args[0], strings.Join(args[1:], " "))
				})
			},
		},
		&cobra.Command{
			Use:   "rm <label>",
			Short: "Delete a label",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(s store.Store) error {
					return s.Delete(kind, args[0])
				})
			},
		},
	)
	return cmd
}
