package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postcli/postcli/internal/display"
	"github.com/postcli/postcli/internal/scaffold"
)

func newInitCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create starter template, contacts and links files",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := scaffold.Init(dir)
			if err != nil {
				return err
			}
			out := display.NewPresenter(cmd.OutOrStdout())
			for _, r := range results {
				if r.Created {
					out.Success(fmt.Sprintf("Created %s", r.Path))
				} else {
					out.Notice(fmt.Sprintf("Skipped %s (already exists)", r.Path))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to initialize")
	return cmd
}
