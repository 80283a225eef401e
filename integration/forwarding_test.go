//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/encodeous/strand/core"
	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHelloForwardedAlongShortestPath(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := startHarness(t, triangleNetwork, noBootstrap)
	defer vh.Stop()

	awaitRoutes(t, vh, 1, `127.0.0.2 via (nh: 127.0.0.2, cost: 1)
127.0.0.3 via (nh: 127.0.0.2, cost: 2)`)

	transit := vh.Subscribe(2)
	dst := vh.Subscribe(3)

	hello := &protocol.Hello{
		Src:  state.LoopbackAddr(1),
		Dst:  state.LoopbackAddr(3),
		Text: "Trusty Tahr",
	}
	require.NoError(t, vh.Do(1, func(s *state.State) error {
		return core.SendHello(s, hello)
	}))

	ev, ok := WaitTrace(transit, 5*time.Second, func(ev core.TraceEvent) bool {
		return ev.Kind == core.HelloForwarded
	})
	require.True(t, ok, "hello was not forwarded by 127.0.0.2")
	assert.Equal(t, hello, ev.Hello)

	ev, ok = WaitTrace(dst, 5*time.Second, func(ev core.TraceEvent) bool {
		return ev.Kind == core.HelloDelivered
	})
	require.True(t, ok, "hello was not delivered to 127.0.0.3")
	assert.Equal(t, hello, ev.Hello)
}

func TestHelloToUnknownDestination(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := startHarness(t, lineNetwork, noBootstrap)
	defer vh.Stop()

	err := vh.Do(1, func(s *state.State) error {
		return core.SendHello(s, &protocol.Hello{
			Src:  state.LoopbackAddr(1),
			Dst:  state.LoopbackAddr(42),
			Text: "nobody",
		})
	})
	assert.ErrorIs(t, err, state.ErrUnknownDestination)
}

func TestBootstrapHellos(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := startHarness(t, lineNetwork)
	defer vh.Stop()

	sent := func(id uint8) int {
		var n int
		require.NoError(t, vh.Do(id, func(s *state.State) error {
			n = s.HellosSent
			return nil
		}))
		return n
	}
	for _, id := range []uint8{1, 2, 3} {
		assert.Eventually(t, func() bool {
			return sent(id) == state.DefaultBootstrapMessages
		}, 10*time.Second, 50*time.Millisecond, "node %d did not send its bootstrap hellos", id)
	}
	// the quota is never exceeded
	time.Sleep(state.RetransmitDelay)
	for _, id := range []uint8{1, 2, 3} {
		assert.Equal(t, state.DefaultBootstrapMessages, sent(id))
	}
}
