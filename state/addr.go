package state

import (
	"fmt"
	"net/netip"
)

// NodeAddr identifies a node on the network. It is both the identity of a router and a routable destination.
type NodeAddr [4]byte

func ParseNodeAddr(s string) (NodeAddr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return NodeAddr{}, err
	}
	return NodeAddrFrom(addr)
}

func MustParseNodeAddr(s string) NodeAddr {
	addr, err := ParseNodeAddr(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// NodeAddrFrom converts an IPv4 (or IPv4-mapped IPv6) address into a NodeAddr
func NodeAddrFrom(addr netip.Addr) (NodeAddr, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return NodeAddr{}, fmt.Errorf("%s is not an IPv4 address", addr)
	}
	return addr.As4(), nil
}

// LoopbackAddr returns the address a node with the numeric identity id binds to, 127.0.0.<id>
func LoopbackAddr(id uint8) NodeAddr {
	return NodeAddr{127, 0, 0, id}
}

func (a NodeAddr) Addr() netip.Addr {
	return netip.AddrFrom4(a)
}

func (a NodeAddr) Prefix() netip.Prefix {
	return netip.PrefixFrom(a.Addr(), 32)
}

// AddrPort derives the socket address of the node. The port is basePort offset by the last octet of the address.
func (a NodeAddr) AddrPort(basePort uint16) netip.AddrPort {
	return netip.AddrPortFrom(a.Addr(), basePort+uint16(a[3]))
}

func (a NodeAddr) String() string {
	return a.Addr().String()
}

func (a NodeAddr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *NodeAddr) UnmarshalText(text []byte) error {
	addr, err := ParseNodeAddr(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

func (a NodeAddr) Compare(b NodeAddr) int {
	return a.Addr().Compare(b.Addr())
}
