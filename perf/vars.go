package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency     = metric.NewHistogram("1m1s")
	SentPacketPerSecond = metric.NewCounter("10s1s")
	RecvPacketPerSecond = metric.NewCounter("10s1s")
	SentBytesPerSecond  = metric.NewCounter("10s1s")
	RecvBytesPerSecond  = metric.NewCounter("10s1s")
	DroppedPerSecond    = metric.NewCounter("10s1s")
	UpdatesSent         = metric.NewCounter("1m10s")
	HellosForwarded     = metric.NewCounter("1m10s")
	HellosDelivered     = metric.NewCounter("1m10s")
)

func init() {
	expvar.Publish("strand:SentPacket/s", SentPacketPerSecond)
	expvar.Publish("strand:RecvPacket/s", RecvPacketPerSecond)
	expvar.Publish("strand:SentBytes/s", SentBytesPerSecond)
	expvar.Publish("strand:RecvBytes/s", RecvBytesPerSecond)
	expvar.Publish("strand:Dropped/s", DroppedPerSecond)
	expvar.Publish("strand:UpdatesSent", UpdatesSent)
	expvar.Publish("strand:HellosForwarded", HellosForwarded)
	expvar.Publish("strand:HellosDelivered", HellosDelivered)
	expvar.Publish("strand:DispatchLatency (µs)", DispatchLatency)
}

// Handler serves the exposed metrics page
func Handler() http.Handler {
	return metric.Handler(metric.Exposed)
}
