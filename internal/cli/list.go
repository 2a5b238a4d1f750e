package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"portal-exporter/internal/infrastructure/catalog"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the reports that can be exported",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports := catalog.New(nil)
			for _, name := range reports.Names() {
				def, err := reports.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s (%s)\n", name, def.Description, def.ViewPath)
			}
			return nil
		},
	}
}
