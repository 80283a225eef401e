//go:build !unix

package sys

import "net"

func ListenConfig() *net.ListenConfig {
	return &net.ListenConfig{}
}
