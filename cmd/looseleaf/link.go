package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect <from> <to>",
	Short: "Link one note to another (directed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		from, err := resolveNote(a, args[0])
		if err != nil {
			return err
		}
		to, err := resolveNote(a, args[1])
		if err != nil {
			return err
		}

		a.engine.Connect(from.ID, to.ID)
		a.save()
		fmt.Printf("%s -> %s\n", shortID(from.ID), shortID(to.ID))
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <from> <to>",
	Short: "Remove a link between notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		from, err := resolveNote(a, args[0])
		if err != nil {
			return err
		}
		to, err := resolveNote(a, args[1])
		if err != nil {
			return err
		}

		a.engine.Disconnect(from.ID, to.ID)
		a.save()
		return nil
	},
}

var backlinksCmd = &cobra.Command{
	Use:   "backlinks <note>",
	Short: "List notes that connect to or mention a note",
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
		printNotes(a.engine.Backlinks(n.ID))
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <note>",
	Short: "Suggest related notes by content similarity",
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

		suggestions := a.engine.Suggest(n.ID)
		if len(suggestions) == 0 {
			fmt.Fprintln(os.Stderr, "no suggestions")
			return nil
		}
		for _, s := range suggestions {
			fmt.Printf("%.2f  %s  %s\n", s.Score, shortID(s.Note.ID), s.Note.Title)
		}
		return nil
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Dump the relationship graph as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a.engine.GraphData())
	},
}

func init() {
	rootCmd.AddCommand(connectCmd, disconnectCmd, backlinksCmd, suggestCmd, graphCmd)
}
