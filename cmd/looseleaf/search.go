package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/looseleaf/internal/search"
	"github.com/kittclouds/looseleaf/internal/store"
)

var (
	searchAI    bool
	searchTags  []string
	searchTypes []string
	searchDate  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by text, filters, or AI ranking",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		filters := search.Filters{}
		if searchDate != "" {
			day, err := time.ParseInLocation(time.DateOnly, searchDate, time.Local)
			if err != nil {
				return fmt.Errorf("bad --date (want YYYY-MM-DD): %w", err)
			}
			filters.Date = day
		}
		for _, t := range searchTypes {
			filters.Types = append(filters.Types, store.ContentType(t))
		}
		for _, name := range searchTags {
			tag, ok := a.store.TagByName(name)
			if !ok {
				return fmt.Errorf("unknown tag %q", name)
			}
			filters.TagIDs = append(filters.TagIDs, tag.ID)
		}

		var searcher search.SemanticSearcher
		if searchAI {
			searcher = a.gw
		}

		hits, err := search.Search(cmd.Context(), a.store.List(), query, filters, searcher)
		if err != nil {
			return fmt.Errorf("search failed (retry without --ai): %w", err)
		}
		printNotes(hits)
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchAI, "ai", false, "rank results with the AI gateway")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "require one of these tag names")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "require an inferred content type")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "require creation on this day (YYYY-MM-DD)")

	rootCmd.AddCommand(searchCmd)
}
