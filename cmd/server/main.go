package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shopmate",
	Short: "ShopMate grocery price comparison backend.",
	Long: `ShopMate searches Woolworths, Coles and ALDI concurrently, keeps the quotes
in a per-session price index and plans the cheapest shopping trip across the
stores you pick.

Run "shopmate serve" to start the HTTP API.`,
	Version: version,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Override log.level. Available: debug, info, warn, error")
}
