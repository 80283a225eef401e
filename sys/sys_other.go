//go:build !linux && !darwin

package sys

import (
	"net/netip"
)

func EnsureLoopback(addr netip.Addr) error {
	return CheckLoopback(addr)
}
