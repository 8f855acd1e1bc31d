package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/df07/go-recursive-raytracer/pkg/loaders"
)

func newScenesCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes and scene files",
		Long:  "List the built-in presets followed by every YAML, TOML and JSON scene file found in --dir, grouped by category.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := loaders.ListAllScenes(dir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, group := range response.Groups {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s:\n", group.Name)
				for _, info := range group.Scenes {
					fmt.Fprintf(w, "  %s\t%s\n", info.ID, info.Description)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "scenes", "Directory searched for scene files")
	return cmd
}
