package core

import (
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
)

type RouterEvent int

// trace events

const (
	RouteAdded RouterEvent = iota
	RouteImproved
	SelfRouteIgnored
)

// warn events

const (
	InconsistentState RouterEvent = iota + 1000
	UnknownSender
)

func (e RouterEvent) String() string {
	switch e {
	case RouteAdded:
		return "RouteAdded"
	case RouteImproved:
		return "RouteImproved"
	case SelfRouteIgnored:
		return "SelfRouteIgnored"
	case InconsistentState:
		return "InconsistentState"
	case UnknownSender:
		return "UnknownSender"
	default:
		return "RouterEvent(?)"
	}
}

// Router is an interface that defines the underlying router operations
type Router interface {
	TableInsertRoute(dest state.NodeAddr, entry state.RouteEntry)
	Log(event RouterEvent, desc string, args ...any)
}

// SeedRoutes installs one route per configured link, reaching the neighbour directly
func SeedRoutes(s *state.RouterState, r Router, links []state.Link) {
	for _, link := range links {
		s.Neighbours[link.Neighbour] = link.Cost
		entry := state.RouteEntry{
			Cost: link.Cost,
			Nh:   link.Neighbour,
		}
		s.Routes[link.Neighbour] = entry
		r.TableInsertRoute(link.Neighbour, entry)
	}
}

// Relax offers the route dest via the neighbour via, which advertised it at advCost.
// The stored cost only ever decreases, a destination is replaced only by a strictly cheaper path.
func Relax(s *state.RouterState, r Router, dest state.NodeAddr, advCost uint32, via state.NodeAddr) bool {
	if dest == s.Id {
		// we never route to ourselves
		return false
	}
	link, ok := s.Routes[via]
	if !ok {
		r.Log(InconsistentState, "relaxing via a node with no route", "via", via, "dest", dest)
		return false
	}
	candidate := advCost + link.Cost
	cur, ok := s.Routes[dest]
	if ok && candidate >= cur.Cost {
		return false
	}
	entry := state.RouteEntry{
		Cost: candidate,
		Nh:   via,
	}
	s.Routes[dest] = entry
	r.TableInsertRoute(dest, entry)
	if ok {
		r.Log(RouteImproved, "route improved", "dest", dest, "old", cur, "new", entry)
	} else {
		r.Log(RouteAdded, "route added", "dest", dest, "new", entry)
	}
	return true
}

// HandleNeighbourUpdate relaxes the table against every record a neighbour advertised.
// Returns true if any route changed.
func HandleNeighbourUpdate(s *state.RouterState, r Router, from state.NodeAddr, update *protocol.Update) bool {
	if _, ok := s.Routes[from]; !ok {
		// without a route to the sender there is no link cost to add
		r.Log(UnknownSender, "ignoring update from node without a route", "from", from)
		return false
	}
	changed := false
	for _, rec := range update.Records {
		if rec.Dest == s.Id {
			r.Log(SelfRouteIgnored, "ignoring route to self", "from", from)
			continue
		}
		if Relax(s, r, rec.Dest, uint32(rec.Cost), from) {
			changed = true
		}
	}
	return changed
}
