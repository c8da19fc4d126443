package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kittclouds/looseleaf/pkg/titledict"
)

var unlinkedCmd = &cobra.Command{
	Use:   "unlinked <note>",
	Short: "Find plain-text occurrences of other note titles not yet wikilinked",
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

		entries := make([]titledict.Entry, 0, a.store.Count())
		for _, other := range a.store.List() {
			if other.ID == n.ID {
				continue
			}
			entries = append(entries, titledict.Entry{ID: other.ID, Title: other.Title})
		}
		dict, err := titledict.Compile(entries)
		if err != nil {
			return fmt.Errorf("building title dictionary: %w", err)
		}

		matches := dict.ScanUnlinked(n.Content)
		if len(matches) == 0 {
			fmt.Fprintln(os.Stderr, "no unlinked mentions")
			return nil
		}
		for _, m := range matches {
			target, _ := a.store.Get(m.NoteID)
			title := m.Text
			if target != nil {
				title = target.Title
			}
			fmt.Printf("%d-%d  %q -> %s (%s)\n", m.Start, m.End, m.Text, title, shortID(m.NoteID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unlinkedCmd)
}
