package core

import (
	"github.com/dustin/go-broadcast"
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
)

type TraceKind int

const (
	TableChanged TraceKind = iota
	UpdateBroadcast
	HelloDelivered
	HelloForwarded
	DatagramDropped
)

type TraceEvent struct {
	Kind   TraceKind
	Node   state.NodeAddr
	From   state.NodeAddr
	Hello  *protocol.Hello
	Routes []state.Route
	Err    error
}

// Trace publishes router events to any number of listeners, slow listeners miss events rather than stalling the router
type Trace struct {
	broadcast.Broadcaster
}

func (t *Trace) Init(s *state.State) error {
	t.Broadcaster = broadcast.NewBroadcaster(1024)
	return nil
}

func (t *Trace) Cleanup(s *state.State) error {
	return t.Broadcaster.Close()
}

func (t *Trace) Emit(ev TraceEvent) {
	t.TrySubmit(ev)
}
