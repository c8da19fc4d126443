package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kittclouds/looseleaf/internal/gateway"
	"github.com/kittclouds/looseleaf/internal/store"
)

var (
	summaryLength string
	summaryFocus  string
	conceptsStore bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <note>",
	Short: "Summarize a note with the AI gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := resolveNote(a, args[0])
		if err != nil {
			return err
		}

		out, err := a.gw.Summarize(cmd.Context(), n.Content, gateway.SummaryOptions{
			Length: summaryLength,
			Focus:  summaryFocus,
		})
		if err != nil {
			return describeGatewayError(err)
		}
		fmt.Println(out)
		return nil
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords <note>",
	Short: "Extract keywords from a note",
	Args:  cobra.ExactArgs(1),
	RunE: runExtraction(func(a *app, cmd *cobra.Command, n *store.Note) (gateway.Extraction, error) {
		return a.gw.Keywords(cmd.Context(), n.Content)
	}),
}

var conceptsCmd = &cobra.Command{
	Use:   "concepts <note>",
	Short: "Extract themes/topics from a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := resolveNote(a, args[0])
		if err != nil {
			return err
		}

		got, err := a.gw.Concepts(cmd.Context(), n.Content)
		if err != nil {
			return describeGatewayError(err)
		}
		printExtraction(got)

		if conceptsStore && len(got.Items) > 0 {
			a.store.Update(n.ID, store.Patch{Concepts: &got.Items})
			a.save()
		}
		return nil
	},
}

// runExtraction builds a RunE for a list-extraction task.
func runExtraction(task func(*app, *cobra.Command, *store.Note) (gateway.Extraction, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		n, err := resolveNote(a, args[0])
		if err != nil {
			return err
		}

		got, err := task(a, cmd, n)
		if err != nil {
			return describeGatewayError(err)
		}
		printExtraction(got)
		return nil
	}
}

func printExtraction(got gateway.Extraction) {
	if len(got.Items) == 0 {
		fmt.Fprintln(os.Stderr, "nothing extracted")
		return
	}
	fmt.Println(strings.Join(got.Items, "\n"))
	if got.Fallback {
		fmt.Fprintln(os.Stderr, "(model answer was not valid JSON; items recovered heuristically)")
	}
}

func describeGatewayError(err error) error {
	if errors.Is(err, gateway.ErrNoAPIKey) {
		return fmt.Errorf("no API key configured: run 'looseleaf key set <key>' or export the configured key variable")
	}
	return err
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored generative-language API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Encrypt and store the API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.creds.Store(args[0]); err != nil {
			return err
		}
		fmt.Println("key stored")
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		return a.creds.Clear()
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summaryLength, "length", "", "length hint (e.g. 'one sentence')")
	summarizeCmd.Flags().StringVar(&summaryFocus, "focus", "", "topic to focus on")
	conceptsCmd.Flags().BoolVar(&conceptsStore, "save", false, "store extracted concepts on the note")

	keyCmd.AddCommand(keySetCmd, keyClearCmd)
	rootCmd.AddCommand(summarizeCmd, keywordsCmd, conceptsCmd, keyCmd)
}
