package state

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var ErrUnknownDestination = errors.New("unknown destination")

type RouteEntry struct {
	Cost uint32
	Nh   NodeAddr // next hop node
}

func (e RouteEntry) String() string {
	return fmt.Sprintf("(nh: %s, cost: %d)", e.Nh, e.Cost)
}

// Route is a single row of the routing table
type Route struct {
	Dest NodeAddr
	RouteEntry
}

// RouterState is owned by the main loop. It must not be touched from any other goroutine.
type RouterState struct {
	Id NodeAddr
	// Routes is the authoritative routing table, the local node never appears as a destination
	Routes map[NodeAddr]RouteEntry
	// Neighbours holds the configured link cost of every directly connected node. Immutable after startup.
	Neighbours map[NodeAddr]uint32
	// Connected records every node we have received a datagram from. It only ever grows.
	Connected map[NodeAddr]struct{}
}

func NewRouterState(id NodeAddr) *RouterState {
	return &RouterState{
		Id:         id,
		Routes:     make(map[NodeAddr]RouteEntry),
		Neighbours: make(map[NodeAddr]uint32),
		Connected:  make(map[NodeAddr]struct{}),
	}
}

func (s *RouterState) IsNeighbour(node NodeAddr) bool {
	_, ok := s.Neighbours[node]
	return ok
}

func (s *RouterState) MarkConnected(node NodeAddr) bool {
	if _, ok := s.Connected[node]; ok {
		return false
	}
	s.Connected[node] = struct{}{}
	return true
}

// AllNeighboursConnected reports whether every configured neighbour has been heard from at least once
func (s *RouterState) AllNeighboursConnected() bool {
	for n := range s.Neighbours {
		if _, ok := s.Connected[n]; !ok {
			return false
		}
	}
	return true
}

// SilentNeighbours returns the configured neighbours we have not heard from yet
func (s *RouterState) SilentNeighbours() []NodeAddr {
	silent := make([]NodeAddr, 0)
	for n := range s.Neighbours {
		if _, ok := s.Connected[n]; !ok {
			silent = append(silent, n)
		}
	}
	slices.SortFunc(silent, NodeAddr.Compare)
	return silent
}

func (s *RouterState) SortedNeighbours() []NodeAddr {
	return slices.SortedFunc(maps.Keys(s.Neighbours), NodeAddr.Compare)
}

func (s *RouterState) SortedConnected() []NodeAddr {
	return slices.SortedFunc(maps.Keys(s.Connected), NodeAddr.Compare)
}

// Snapshot returns every route in the table. The order is not stable.
func (s *RouterState) Snapshot() []Route {
	routes := make([]Route, 0, len(s.Routes))
	for dest, entry := range s.Routes {
		routes = append(routes, Route{Dest: dest, RouteEntry: entry})
	}
	return routes
}

func (s *RouterState) NextHop(dest NodeAddr) (NodeAddr, error) {
	entry, ok := s.Routes[dest]
	if !ok {
		return NodeAddr{}, fmt.Errorf("%w: %s", ErrUnknownDestination, dest)
	}
	return entry.Nh, nil
}

func (s *RouterState) StringRoutes() string {
	rt := make([]string, 0, len(s.Routes))
	for _, route := range s.Snapshot() {
		rt = append(rt, fmt.Sprintf("%s via %s", route.Dest, route.RouteEntry))
	}
	slices.Sort(rt)
	return strings.Join(rt, "\n")
}

// StringTable renders the table in the Host / Cost / Via layout used by the status output
func (s *RouterState) StringTable() string {
	sb := strings.Builder{}
	sb.WriteString("\tHost\t\tCost\tVia\n")
	routes := s.Snapshot()
	slices.SortFunc(routes, func(a, b Route) int {
		return a.Dest.Compare(b.Dest)
	})
	for _, route := range routes {
		sb.WriteString(fmt.Sprintf("\t%s\t%d\t%s\n", route.Dest, route.Cost, route.Nh))
	}
	return sb.String()
}
