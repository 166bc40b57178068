package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopmate/backend/internal/domain"
	"github.com/spf13/cobra"
)

// storesCmd prints the store catalog
var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Prints the supported stores.",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCHAIN\t")
		for _, s := range domain.DefaultCatalog().Stores() {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", s.ID, s.Name, s.Chain)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
}
