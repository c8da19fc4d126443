package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kittclouds/looseleaf/internal/export"
	"github.com/kittclouds/looseleaf/internal/store"
)

var (
	exportAll bool
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export [note]",
	Short: "Export notes as markdown documents with a metadata header",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		var notes []*store.Note
		switch {
		case exportAll:
			notes = a.store.List()
		case len(args) == 1:
			n, err := resolveNote(a, args[0])
			if err != nil {
				return err
			}
			notes = []*store.Note{n}
		default:
			return fmt.Errorf("pass a note or --all")
		}

		if err := os.MkdirAll(exportOut, 0o755); err != nil {
			return err
		}
		for _, n := range notes {
			path := filepath.Join(exportOut, export.Filename(n))
			if err := os.WriteFile(path, []byte(export.Render(n)), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Println(path)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import exported markdown documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		docs := make([]string, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			docs = append(docs, string(data))
		}

		count, err := export.ImportAll(docs, a.store)
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: some documents were skipped:", err)
		}
		a.store.RefreshMentions()
		a.save()
		fmt.Printf("imported %d notes\n", count)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "export every note")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")

	rootCmd.AddCommand(exportCmd, importCmd)
}
