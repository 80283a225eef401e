package sys

import (
	"net/netip"
)

// EnsureLoopback checks that addr can be bound. Linux routes all of 127.0.0.0/8 to lo.
func EnsureLoopback(addr netip.Addr) error {
	return CheckLoopback(addr)
}
