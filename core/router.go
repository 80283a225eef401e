package core

import (
	"fmt"
	"time"

	"github.com/encodeous/strand/perf"
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
	"github.com/gaissmai/bart"
	"github.com/jellydator/ttlcache/v3"
)

type StrandRouter struct {
	*state.State
	// ForwardTable mirrors Routes as /32 prefixes and answers next hop lookups
	ForwardTable bart.Table[state.NodeAddr]
	// malformed remembers senders we recently warned about
	malformed *ttlcache.Cache[state.NodeAddr, struct{}]

	retransmitPending bool
	retransmitAt      time.Time
	retransmitGen     uint64
}

func (r *StrandRouter) Init(s *state.State) error {
	s.Log.Debug("init router")
	r.State = s
	r.ForwardTable = bart.Table[state.NodeAddr]{}
	r.malformed = ttlcache.New[state.NodeAddr, struct{}](
		ttlcache.WithTTL[state.NodeAddr, struct{}](state.MalformedLogTTL),
		ttlcache.WithDisableTouchOnHit[state.NodeAddr, struct{}](),
	)

	links, err := s.GetLinks(s.LocalCfg.Addr())
	if err != nil {
		return err
	}
	s.RouterState = state.NewRouterState(s.LocalCfg.Addr())
	SeedRoutes(s.RouterState, r, links)
	s.Log.Info("seeded routing table", "neighbours", len(s.Neighbours))
	printStatus(s)

	s.Log.Debug("schedule router tasks")

	// the first tick starts nudging neighbours as soon as the main loop runs
	s.Env.ScheduleTask(schedulerTick, 0)
	s.Env.RepeatTask(schedulerTick, state.LivenessInterval)
	s.Env.RepeatTask(func(s *state.State) error {
		r.malformed.DeleteExpired()
		return nil
	}, state.GcDelay)
	if s.RefreshInterval > 0 {
		s.Env.RepeatTask(func(s *state.State) error {
			r.ArmRetransmit(0)
			return nil
		}, s.RefreshInterval)
	}
	return nil
}

func (r *StrandRouter) Cleanup(s *state.State) error {
	r.malformed.DeleteAll()
	r.State = nil
	return nil
}

func (r *StrandRouter) Log(event RouterEvent, desc string, args ...any) {
	r.Env.Log.Debug(fmt.Sprintf("%s %s", event.String(), desc), args...)
}

func (r *StrandRouter) TableInsertRoute(dest state.NodeAddr, entry state.RouteEntry) {
	r.ForwardTable.Insert(dest.Prefix(), entry.Nh)
}

func (r *StrandRouter) NextHop(dest state.NodeAddr) (state.NodeAddr, error) {
	nh, ok := r.ForwardTable.Lookup(dest.Addr())
	if !ok {
		return state.NodeAddr{}, fmt.Errorf("%w: %s", state.ErrUnknownDestination, dest)
	}
	return nh, nil
}

// ArmRetransmit requests a full table broadcast after delay. Requests coalesce, the earliest deadline wins.
func (r *StrandRouter) ArmRetransmit(delay time.Duration) {
	at := time.Now().Add(delay)
	if r.retransmitPending && !at.Before(r.retransmitAt) {
		return
	}
	r.retransmitPending = true
	r.retransmitAt = at
	r.retransmitGen++
	gen := r.retransmitGen
	r.Env.ScheduleTask(func(s *state.State) error {
		if r.State == nil || r.retransmitGen != gen {
			return nil // superseded by an earlier deadline
		}
		r.retransmitPending = false
		r.BroadcastUpdate()
		return schedulerTick(s)
	}, delay)
}

// BroadcastUpdate sends the full routing table to every configured neighbour
func (r *StrandRouter) BroadcastUpdate() {
	pkt, err := protocol.EncodeUpdate(r.Snapshot())
	if err != nil {
		r.Env.Log.Error("failed to encode update, broadcast skipped", "error", err)
		return
	}
	n := Get[*Node](r.State)
	for _, neigh := range r.SortedNeighbours() {
		err = n.Send(neigh, pkt)
		if err != nil {
			r.Env.Log.Warn("failed to send update", "to", neigh, "error", err)
			continue
		}
		perf.UpdatesSent.Add(1)
	}
	Get[*Trace](r.State).Emit(TraceEvent{
		Kind: UpdateBroadcast,
		Node: r.Id,
	})
}

// dropMalformed logs a rejected datagram, only warning once per sender every state.MalformedLogTTL
func (r *StrandRouter) dropMalformed(from state.NodeAddr, err error) {
	perf.DroppedPerSecond.Add(1)
	if r.malformed.Get(from) != nil {
		r.Env.Log.Debug("dropped malformed datagram", "from", from, "error", err)
	} else {
		r.malformed.Set(from, struct{}{}, ttlcache.DefaultTTL)
		r.Env.Log.Warn("dropped malformed datagram", "from", from, "error", err)
	}
	Get[*Trace](r.State).Emit(TraceEvent{
		Kind: DatagramDropped,
		Node: r.Id,
		From: from,
		Err:  err,
	})
}
