package main

import (
	"context"
	"fmt"
	"sort"

	"PiBot/adventure"
	"PiBot/story"

	"github.com/spf13/cobra"
)

var storyDir string

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Inspect the adventure stories folder",
}

var storiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stories /adventure offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		names, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintf(out, "no story in %s\n", store.Root())
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

var storiesCheckCmd = &cobra.Command{
	Use:   "check [name...]",
	Short: "Validate story definitions without connecting to Discord",
	Long: `Load every named story (all of them when none is given) and report:
  - definition errors (missing targets, bad start node, ...)
  - local media that cannot be read
  - choices whose continuation does not fit in a Discord button

Exit codes:
  0 - every story is valid
  1 - at least one story has errors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		names := args
		if len(names) == 0 {
			if names, err = store.List(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range names {
			problems := checkStory(ctx, store, name)
			if len(problems) == 0 {
				fmt.Fprintf(out, "ok    %s\n", name)
				continue
			}
			failed++
			fmt.Fprintf(out, "FAIL  %s\n", name)
			for _, p := range problems {
				fmt.Fprintf(out, "      - %v\n", p)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d stories have errors", failed, len(names))
		}
		return nil
	},
}

func init() {
	storiesCmd.PersistentFlags().StringVarP(&storyDir, "dir", "d", "", "stories folder (defaults to adventure.story_dir)")

	storiesCmd.AddCommand(storiesListCmd)
	storiesCmd.AddCommand(storiesCheckCmd)
}

func openStore() (*story.Store, error) {
	if storyDir != "" {
		return story.NewStore(storyDir), nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return story.NewStore(cfg.Adventure.StoryDir), nil
}

// checkStory returns every problem found in story name
func checkStory(ctx context.Context, store *story.Store, name string) []error {
	st, err := store.Load(ctx, name)
	if err != nil {
		return []error{err}
	}

	keys := make([]string, 0, len(st.Nodes))
	for key := range st.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var problems []error
	for _, key := range keys {
		node := st.Nodes[key]
		for _, ref := range node.Media {
			if story.IsRemote(ref) {
				continue
			}
			if _, err := store.ReadMedia(ctx, st, ref); err != nil {
				problems = append(problems, err)
			}
		}
	}
	return append(problems, adventure.CheckTokens(st, adventure.MaxTokenLength)...)
}
