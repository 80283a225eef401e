package core

import (
	"github.com/encodeous/strand/perf"
	"github.com/encodeous/strand/state"
)

// Node owns the transport of the local router
type Node struct {
	Transport Transport
}

func (n *Node) Init(s *state.State) error {
	s.Log.Debug("init node")
	if t, ok := s.AuxConfig["transport"].(Transport); ok {
		n.Transport = t
	} else {
		n.Transport = NewUdpTransport(s.LocalCfg.Addr(), s.BasePort, s.Log)
	}
	env := s.Env
	return n.Transport.Listen(s.Context, func(from state.NodeAddr, pkt []byte) {
		env.Dispatch(func(s *state.State) error {
			return handleDatagram(s, from, pkt)
		})
	})
}

func (n *Node) Cleanup(s *state.State) error {
	return n.Transport.Close()
}

func (n *Node) Send(to state.NodeAddr, pkt []byte) error {
	err := n.Transport.Send(to, pkt)
	if err != nil {
		return err
	}
	perf.SentPacketPerSecond.Add(1)
	perf.SentBytesPerSecond.Add(float64(len(pkt)))
	return nil
}
