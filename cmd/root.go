package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var nodeConfigPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strand",
	Short: "Strand distance-vector routing daemon",
	Long: `Strand runs one router of a small static network on the loopback interface.
Routers exchange their full routing tables with their neighbours until every node knows the cheapest path to every other node, then forward hello messages hop by hop.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "strand",
		Title: "Strand Commands",
	})
	rootCmd.PersistentFlags().StringVarP(&nodeConfigPath, "config", "c", "", "node config (yaml), flags override its values")
}
