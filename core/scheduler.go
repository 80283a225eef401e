package core

import (
	"slices"

	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
)

// schedulerTick runs after every datagram, after every broadcast, and at least once per state.LivenessInterval.
func schedulerTick(s *state.State) error {
	r := Get[*StrandRouter](s)

	// keep nudging neighbours that have not spoken yet
	if silent := s.SilentNeighbours(); len(silent) > 0 {
		s.Log.Debug("waiting on neighbours", "silent", silent)
		r.ArmRetransmit(state.RetransmitDelay)
	}

	if s.AllNeighboursConnected() && s.HellosSent < s.BootstrapQuota() {
		sendBootstrapHello(s)
	}
	return nil
}

// sendBootstrapHello picks a random node we have heard from and a random text, then sends a hello to it
func sendBootstrapHello(s *state.State) {
	candidates := slices.DeleteFunc(s.SortedConnected(), func(addr state.NodeAddr) bool {
		return addr == s.Id
	})
	if len(candidates) == 0 || len(s.Messages) == 0 {
		return
	}
	dst := candidates[s.Rand.IntN(len(candidates))]
	text := s.Messages[s.Rand.IntN(len(s.Messages))]
	s.HellosSent++
	err := SendHello(s, &protocol.Hello{
		Src:  s.Id,
		Dst:  dst,
		Text: text,
	})
	if err != nil {
		s.Log.Warn("failed to send bootstrap hello", "to", dst, "error", err)
	}
}
