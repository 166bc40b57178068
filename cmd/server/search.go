package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopmate/backend/internal/domain"
	"github.com/spf13/cobra"
)

// searchCmd runs one aggregated search and prints the merged results
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Searches the enabled retailers and prints the merged results.",
	Long: `Searches the selected retailers concurrently and prints the merged results
in store order. Retailers that fail or time out contribute no rows.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rawStores, _ := cmd.Flags().GetStringSlice("stores")
		if len(rawStores) == 0 {
			for _, s := range a.catalog.Stores() {
				if a.search.Enabled(s.ID) {
					rawStores = append(rawStores, string(s.ID))
				}
			}
		}
		storeIDs, err := a.catalog.ParseStoreIDs("stores", rawStores)
		if err != nil {
			return err
		}

		index := domain.NewPriceIndex(a.catalog)
		results, err := a.search.Search(context.Background(), strings.Join(args, " "), storeIDs, index)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No products found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "STORE\tPRICE\tUNIT\tPRODUCT\tID\t")
		for _, r := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				a.catalog.StoreName(r.StoreID), domain.FormatMoney(r.Price), r.UnitPriceLabel, r.Product.Name, r.Product.ID)
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceP("stores", "s", nil, "Store ids to search (default: every enabled retailer)")
}
