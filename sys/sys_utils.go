package sys

import (
	"fmt"
	"net/netip"
	"os/exec"
)

func Exec(name string, arg ...string) error {
	out, err := exec.Command(name, arg...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("error executing command: %s %s. %w. Output: %s", name, arg, err, out)
	}
	return nil
}

var loopbackNet = netip.MustParsePrefix("127.0.0.0/8")

// CheckLoopback fails if addr is outside 127.0.0.0/8
func CheckLoopback(addr netip.Addr) error {
	if !loopbackNet.Contains(addr) {
		return fmt.Errorf("%s is not a loopback address", addr)
	}
	return nil
}
