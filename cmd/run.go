package cmd

import (
	"strconv"

	"github.com/encodeous/strand/core"
	"github.com/encodeous/strand/state"
	"github.com/spf13/cobra"
)

// loadLocalCfg reads the node config if one was given, then applies every flag the user set
func loadLocalCfg(cmd *cobra.Command, args []string) (*state.LocalCfg, error) {
	cfg := &state.LocalCfg{}
	if nodeConfigPath != "" {
		var err error
		cfg, err = state.ReadLocalCfg(nodeConfigPath)
		if err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if len(args) == 1 {
		id, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return nil, err
		}
		cfg.Id = uint8(id)
	}
	if flags.Changed("id") {
		cfg.Id, _ = flags.GetUint8("id")
	}
	if flags.Changed("network") || cfg.Network == "" {
		cfg.Network, _ = flags.GetString("network")
	}
	if flags.Changed("base-port") {
		cfg.BasePort, _ = flags.GetUint16("base-port")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("log-path") {
		cfg.LogPath, _ = flags.GetString("log-path")
	}
	if flags.Changed("log-max-size") {
		cfg.LogMaxSizeMB, _ = flags.GetInt("log-max-size")
	}
	if flags.Changed("debug-addr") {
		cfg.DebugAddr, _ = flags.GetString("debug-addr")
	}
	if flags.Changed("refresh") {
		cfg.RefreshInterval, _ = flags.GetDuration("refresh")
	}
	if flags.Changed("bootstrap") {
		n, _ := flags.GetInt("bootstrap")
		cfg.BootstrapMessages = &n
	}
	return cfg, nil
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [id]",
	Short: "Run a router",
	Long:  `This will run the router with the given id on 127.0.0.<id>, listening on base-port + id.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadLocalCfg(cmd, args)
		cobra.CheckErr(err)
		verbose, _ := cmd.Flags().GetBool("verbose")
		cobra.CheckErr(core.Bootstrap(*cfg, verbose))
	},
	GroupID: "strand",
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().Uint8("id", 0, "node id, the node binds to 127.0.0.<id>")
	runCmd.Flags().StringP("network", "f", "network.txt", "network file")
	runCmd.Flags().Uint16P("base-port", "p", state.DefaultBasePort, "base port")
	runCmd.Flags().Uint64("seed", 0, "seed for bootstrap messages, 0 is random")
	runCmd.Flags().String("log-path", "", "also write logs to this file")
	runCmd.Flags().Int("log-max-size", 0, "rotate the log file once it reaches this many megabytes, 0 disables")
	runCmd.Flags().String("debug-addr", "", "serve debug endpoints on this address")
	runCmd.Flags().Duration("refresh", 0, "periodically re-broadcast the routing table, 0 disables")
	runCmd.Flags().Int("bootstrap", state.DefaultBootstrapMessages, "number of hello messages to send once every neighbour is up")
}
