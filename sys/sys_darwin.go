package sys

import (
	"net/netip"
)

// EnsureLoopback adds addr as an alias of lo0, only 127.0.0.1 is configured by default
func EnsureLoopback(addr netip.Addr) error {
	err := CheckLoopback(addr)
	if err != nil {
		return err
	}
	if addr == netip.AddrFrom4([4]byte{127, 0, 0, 1}) {
		return nil
	}
	return Exec("/sbin/ifconfig", "lo0", "alias", addr.String(), "up")
}
