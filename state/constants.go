package state

import "time"

const (
	// MaxWireCost is the largest cost representable in an update record
	MaxWireCost = 255
	// MaxDatagramSize is the receive buffer size, larger datagrams are truncated
	MaxDatagramSize = 2048
)

var (
	DefaultBasePort          = uint16(4300)
	DefaultBootstrapMessages = 2
	DefaultMessages          = []string{
		"Cosmic Cuttlefish",
		"Bionic Beaver",
		"Xenial Xerus",
		"Trusty Tahr",
		"Precise Pangolin",
	}

	// LivenessInterval bounds how long the node goes without checking on silent neighbours
	LivenessInterval = time.Second * 5
	// RetransmitDelay spaces out the broadcasts used to nudge silent neighbours
	RetransmitDelay = time.Millisecond * 500
	MalformedLogTTL = time.Second * 10
	GcDelay         = time.Second * 5
)
