package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postcli/postcli/internal/display"
	"github.com/postcli/postcli/internal/repository"
)

func newImportCmd() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Convert a JSON array of contacts into a contacts CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			contacts, err := repository.ImportJSON(input)
			if err != nil {
				return err
			}
			if err := repository.WriteContacts(output, contacts); err != nil {
				return err
			}
			display.NewPresenter(cmd.OutOrStdout()).
				Success(fmt.Sprintf("Imported %d contact(s) to %s", len(contacts), output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file to import")
	cmd.Flags().StringVarP(&output, "output", "o", "contacts.csv", "CSV file to write")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
