package cmd

import (
	"log/slog"

	"github.com/encodeous/strand/core"
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Injects a hello into a running router, which forwards it towards its destination",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		node, _ := flags.GetUint8("node")
		dst, _ := flags.GetUint8("dst")
		basePort, _ := flags.GetUint16("base-port")
		src := node
		if flags.Changed("src") {
			src, _ = flags.GetUint8("src")
		}
		hello := &protocol.Hello{
			Src:  state.LoopbackAddr(src),
			Dst:  state.LoopbackAddr(dst),
			Text: args[0],
		}
		pkt, err := protocol.EncodeHello(hello)
		cobra.CheckErr(err)

		// the datagram comes from the node's own address, so it does not count as a new neighbour
		self := state.LoopbackAddr(node)
		t := core.NewUdpTransport(self, basePort, slog.Default())
		cobra.CheckErr(t.Send(self, pkt))
		slog.Info("injected hello", "node", self, "hello", hello)
	},
	GroupID: "strand",
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().Uint8P("node", "n", 1, "id of the router to inject into")
	sendCmd.Flags().Uint8("src", 0, "source id written into the hello, defaults to the node")
	sendCmd.Flags().Uint8P("dst", "d", 0, "destination id")
	sendCmd.Flags().Uint16P("base-port", "p", state.DefaultBasePort, "base port")
	_ = sendCmd.MarkFlagRequired("dst")
}
