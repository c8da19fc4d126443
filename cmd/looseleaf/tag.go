package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tagColor string

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		tags := a.store.Tags()
		if len(tags) == 0 {
			fmt.Fprintln(os.Stderr, "no tags")
			return nil
		}
		for _, t := range tags {
			fmt.Printf("%s  %-20s %s\n", shortID(t.ID), t.Name, t.Color)
		}
		return nil
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

var tagAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		if _, ok := a.store.TagByName(args[0]); ok {
			return fmt.Errorf("tag %q already exists", args[0])
		}
		t := a.store.CreateTag(args[0], tagColor)
		a.save()
		fmt.Printf("%s  %s\n", shortID(t.ID), t.Name)
		return nil
	},
}

var tagRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a tag and remove it from every note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		t, ok := a.store.TagByName(args[0])
		if !ok {
			return fmt.Errorf("unknown tag %q", args[0])
		}
		a.store.DeleteTag(t.ID)
		a.save()
		return nil
	},
}

var tagRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename a tag and re-sync notes that carry it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		t, ok := a.store.TagByName(args[0])
		if !ok {
			return fmt.Errorf("unknown tag %q", args[0])
		}
		if !a.store.UpdateTag(t.ID, args[1], t.Color) {
			return fmt.Errorf("rename failed")
		}
		// notes hold tags by value; push the new name into their copies
		a.store.SyncTags()
		a.save()
		return nil
	},
}

func init() {
	tagAddCmd.Flags().StringVar(&tagColor, "color", "#9e9e9e", "display color")
	tagCmd.AddCommand(tagAddCmd, tagRmCmd, tagRenameCmd)
	rootCmd.AddCommand(tagsCmd, tagCmd)
}
