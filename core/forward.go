package core

import (
	"github.com/encodeous/strand/perf"
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
)

// SendHello sends the message one hop towards its destination, using the next hop currently in the table.
// If there is no route, nothing is written and state.ErrUnknownDestination is returned.
func SendHello(s *state.State, hello *protocol.Hello) error {
	r := Get[*StrandRouter](s)
	nh, err := r.NextHop(hello.Dst)
	if err != nil {
		return err
	}
	pkt, err := protocol.EncodeHello(hello)
	if err != nil {
		return err
	}
	s.Log.Info("sending hello", "text", hello.Text, "to", hello.Dst, "via", nh)
	return Get[*Node](s).Send(nh, pkt)
}

func handleHello(s *state.State, hello *protocol.Hello) {
	t := Get[*Trace](s)
	if hello.Dst == s.Id {
		s.Log.Info("received hello", "text", hello.Text, "from", hello.Src)
		perf.HellosDelivered.Add(1)
		t.Emit(TraceEvent{
			Kind:  HelloDelivered,
			Node:  s.Id,
			Hello: hello,
		})
		return
	}
	err := SendHello(s, hello)
	if err != nil {
		s.Log.Warn("failed to forward hello", "hello", hello, "error", err)
		return
	}
	perf.HellosForwarded.Add(1)
	t.Emit(TraceEvent{
		Kind:  HelloForwarded,
		Node:  s.Id,
		Hello: hello,
	})
}
