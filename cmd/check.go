package cmd

import (
	"fmt"

	"github.com/encodeous/strand/core"
	"github.com/encodeous/strand/state"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <network-file>",
	Short: "Validates a network file and prints the table every node starts with",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ncfg, err := state.ReadNetworkCfg(args[0])
		cobra.CheckErr(err)
		cobra.CheckErr(state.NetworkCfgValidator(ncfg))
		for _, node := range ncfg.Nodes() {
			rs, err := core.SeededState(ncfg, node)
			cobra.CheckErr(err)
			fmt.Printf("%s\n%s\n", node, rs.StringTable())
		}
		fmt.Printf("network is valid, %d nodes\n", len(ncfg.Links))
	},
	GroupID: "strand",
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
