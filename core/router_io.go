package core

import (
	"github.com/encodeous/strand/perf"
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
)

// handleDatagram runs on the main loop for every datagram received on the listening socket
func handleDatagram(s *state.State, from state.NodeAddr, pkt []byte) error {
	r := Get[*StrandRouter](s)
	perf.RecvPacketPerSecond.Add(1)
	perf.RecvBytesPerSecond.Add(float64(len(pkt)))

	if s.MarkConnected(from) && s.IsNeighbour(from) {
		s.Log.Info("heard from neighbour", "neigh", from)
		// it may have started after our last broadcast
		r.ArmRetransmit(0)
	}

	msg, err := protocol.Decode(pkt)
	if err != nil {
		r.dropMalformed(from, err)
		return schedulerTick(s)
	}
	switch m := msg.(type) {
	case *protocol.Update:
		routerHandleUpdate(s, from, m)
	case *protocol.Hello:
		handleHello(s, m)
	}
	return schedulerTick(s)
}

// packet handlers
func routerHandleUpdate(s *state.State, from state.NodeAddr, update *protocol.Update) {
	r := Get[*StrandRouter](s)
	if !s.IsNeighbour(from) {
		s.Log.Warn("received update from unknown neighbour", "from", from)
		return
	}
	if !HandleNeighbourUpdate(s.RouterState, r, from, update) {
		return
	}
	s.Log.Info("table updated with information from neighbour", "from", from)
	printStatus(s)
	Get[*Trace](s).Emit(TraceEvent{
		Kind:   TableChanged,
		Node:   s.Id,
		From:   from,
		Routes: s.Snapshot(),
	})
	r.ArmRetransmit(0)
}
