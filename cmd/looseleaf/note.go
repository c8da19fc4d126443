package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kittclouds/looseleaf/internal/store"
	"github.com/kittclouds/looseleaf/pkg/wikilink"
)

var (
	addContent  string
	addType     string
	addTags     []string
	editTitle   string
	editContent string
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a note",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		n := &store.Note{
			Content:     addContent,
			ContentType: store.ContentType(addType),
		}
		if len(args) == 1 {
			n.Title = args[0]
		}
		for _, name := range addTags {
			tag, ok := a.store.TagByName(name)
			if !ok {
				tag = a.store.CreateTag(name, "#9e9e9e")
			}
			n.Tags = append(n.Tags, tag)
		}

		id := a.store.Create(n)
		a.save()

		created, _ := a.store.Get(id)
		fmt.Printf("%s  %s\n", shortID(id), created.Title)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		printNotes(a.store.List())
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <note>",
	Short: "Show a note with resolved wikilinks",
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
		a.store.SetActive(n.ID)
		a.save()

		res := wikilink.Parse(n.Content, wikilink.ResolverFunc(a.store.ResolveTitle))

		fmt.Printf("%s\n", n.Title)
		fmt.Printf("id: %s  type: %s\n", n.ID, n.ContentType)
		fmt.Printf("created: %s  updated: %s\n",
			time.UnixMilli(n.CreatedAt).Format(time.DateTime),
			time.UnixMilli(n.UpdatedAt).Format(time.DateTime))
		if len(n.Tags) > 0 {
			names := make([]string, len(n.Tags))
			for i, t := range n.Tags {
				names[i] = t.Name
			}
			fmt.Printf("tags: %s\n", strings.Join(names, ", "))
		}
		fmt.Println()
		fmt.Println(res.Renderable)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <note>",
	Short: "Update a note's title or content",
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

		var patch store.Patch
		if cmd.Flags().Changed("title") {
			patch.Title = &editTitle
		}
		if cmd.Flags().Changed("content") {
			patch.Content = &editContent
		}
		if patch.Title == nil && patch.Content == nil {
			return fmt.Errorf("nothing to change: pass --title or --content")
		}

		a.store.Update(n.ID, patch)
		a.save()
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <note>",
	Short: "Delete a note and scrub links to it",
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
		a.store.Delete(n.ID)
		a.save()
		fmt.Printf("deleted %s\n", shortID(n.ID))
		return nil
	},
}

func printNotes(notes []*store.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(os.Stderr, "no notes")
		return
	}
	for _, n := range notes {
		tags := ""
		if len(n.Tags) > 0 {
			names := make([]string, len(n.Tags))
			for i, t := range n.Tags {
				names[i] = t.Name
			}
			tags = "  [" + strings.Join(names, ",") + "]"
		}
		fmt.Printf("%s  %-40s %s%s\n",
			shortID(n.ID), n.Title,
			time.UnixMilli(n.UpdatedAt).Format(time.DateOnly), tags)
	}
}

func init() {
	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "note body")
	addCmd.Flags().StringVarP(&addType, "type", "t", "", "content type (text|image|link|audio|video)")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "tag names to attach")
	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVar(&editContent, "content", "", "new content")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, rmCmd)
}
