package state

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeAddr(t *testing.T) {
	a := MustParseNodeAddr("127.0.0.3")
	assert.Equal(t, NodeAddr{127, 0, 0, 3}, a)
	assert.Equal(t, LoopbackAddr(3), a)
	assert.Equal(t, "127.0.0.3", a.String())
	assert.Equal(t, netip.MustParseAddrPort("127.0.0.3:4303"), a.AddrPort(4300))
	assert.Equal(t, netip.MustParsePrefix("127.0.0.3/32"), a.Prefix())

	mapped, err := NodeAddrFrom(netip.MustParseAddr("::ffff:10.1.2.3"))
	assert.NoError(t, err)
	assert.Equal(t, NodeAddr{10, 1, 2, 3}, mapped)

	_, err = ParseNodeAddr("fe80::1")
	assert.Error(t, err)
	_, err = ParseNodeAddr("127.0.0.256")
	assert.Error(t, err)

	var txt NodeAddr
	assert.NoError(t, txt.UnmarshalText([]byte("10.0.0.1")))
	assert.Equal(t, NodeAddr{10, 0, 0, 1}, txt)
}

func TestRouterState_NextHop(t *testing.T) {
	rs := NewRouterState(LoopbackAddr(1))
	rs.Routes[LoopbackAddr(3)] = RouteEntry{Cost: 2, Nh: LoopbackAddr(2)}

	nh, err := rs.NextHop(LoopbackAddr(3))
	assert.NoError(t, err)
	assert.Equal(t, LoopbackAddr(2), nh)

	_, err = rs.NextHop(LoopbackAddr(4))
	assert.ErrorIs(t, err, ErrUnknownDestination)
}

func TestRouterState_Connected(t *testing.T) {
	rs := NewRouterState(LoopbackAddr(1))
	rs.Neighbours[LoopbackAddr(2)] = 1
	rs.Neighbours[LoopbackAddr(3)] = 4

	assert.False(t, rs.AllNeighboursConnected())
	assert.Equal(t, []NodeAddr{LoopbackAddr(2), LoopbackAddr(3)}, rs.SilentNeighbours())

	assert.True(t, rs.MarkConnected(LoopbackAddr(3)))
	assert.False(t, rs.MarkConnected(LoopbackAddr(3)))
	assert.Equal(t, []NodeAddr{LoopbackAddr(2)}, rs.SilentNeighbours())

	// hearing from a non-neighbour does not count towards liveness
	rs.MarkConnected(LoopbackAddr(9))
	assert.False(t, rs.AllNeighboursConnected())

	rs.MarkConnected(LoopbackAddr(2))
	assert.True(t, rs.AllNeighboursConnected())
	assert.Empty(t, rs.SilentNeighbours())
	assert.Equal(t, []NodeAddr{LoopbackAddr(2), LoopbackAddr(3), LoopbackAddr(9)}, rs.SortedConnected())
}

func TestRouterState_Strings(t *testing.T) {
	rs := NewRouterState(LoopbackAddr(1))
	rs.Routes[LoopbackAddr(3)] = RouteEntry{Cost: 2, Nh: LoopbackAddr(2)}
	rs.Routes[LoopbackAddr(2)] = RouteEntry{Cost: 1, Nh: LoopbackAddr(2)}

	assert.Equal(t, `127.0.0.2 via (nh: 127.0.0.2, cost: 1)
127.0.0.3 via (nh: 127.0.0.2, cost: 2)`, rs.StringRoutes())
	assert.Equal(t, "\tHost\t\tCost\tVia\n\t127.0.0.2\t1\t127.0.0.2\n\t127.0.0.3\t2\t127.0.0.2\n", rs.StringTable())
	assert.Len(t, rs.Snapshot(), 2)
}
