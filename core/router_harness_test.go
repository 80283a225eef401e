package core

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/encodeous/strand/protocol"
	"github.com/encodeous/strand/state"
	"github.com/google/go-cmp/cmp"
)

type HarnessEvent struct {
	Message string
	Args    []any
}

func MakeEvent(msg string, args ...any) HarnessEvent {
	return HarnessEvent{
		Message: msg,
		Args:    args,
	}
}

type RouterHarness struct {
	actions []HarnessEvent
}

func (h *RouterHarness) TableInsertRoute(dest state.NodeAddr, entry state.RouteEntry) {
	h.actions = append(h.actions, MakeEvent("INSERT_ROUTE", dest, entry))
}

func (h *RouterHarness) Log(event RouterEvent, desc string, args ...any) {
	x := make([]any, 0)
	x = append(x, event)
	x = append(x, desc)
	x = append(x, args...)
	h.actions = append(h.actions, MakeEvent("LOG", x...))
}

type HarnessEvents []HarnessEvent

func (h HarnessEvents) String() string {
	out := make([]string, 0)
	for _, action := range h {
		cur := action.Message
		for _, arg := range action.Args {
			cur += " " + fmt.Sprint(arg)
		}
		out = append(out, cur)
	}
	slices.Sort(out)
	return strings.Join(out, "\n")
}

// GetActions returns and clears every recorded action except logs
func (h *RouterHarness) GetActions() HarnessEvents {
	x := make([]HarnessEvent, 0)
	for _, action := range h.actions {
		if action.Message != "LOG" {
			x = append(x, action)
		}
	}
	h.actions = make([]HarnessEvent, 0)
	return x
}

// GetLogs returns and clears every recorded log event
func (h *RouterHarness) GetLogs() []RouterEvent {
	x := make([]RouterEvent, 0)
	for _, action := range h.actions {
		if action.Message == "LOG" {
			x = append(x, action.Args[0].(RouterEvent))
		}
	}
	h.actions = make([]HarnessEvent, 0)
	return x
}

func (e HarnessEvents) contains(msg string, args ...any) bool {
	for _, event := range e {
		if event.Message != msg || len(event.Args) < len(args) {
			continue
		}
		match := true
		for i, arg := range args {
			if !cmp.Equal(event.Args[i], arg) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (e HarnessEvents) AssertContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		return
	}
	t.Fatal("Expected event not found: ", msg, " with args: ", args, " in ", e)
}

func (e HarnessEvents) AssertNotContains(t *testing.T, msg string, args ...any) {
	t.Helper()
	if e.contains(msg, args...) {
		t.Fatal("Unexpected event found: ", msg, " with args: ", args, " in ", e)
	}
}

func addr(id uint8) state.NodeAddr {
	return state.LoopbackAddr(id)
}

func MakeRouterState(h *RouterHarness, id uint8, links ...state.Link) *state.RouterState {
	rs := state.NewRouterState(addr(id))
	SeedRoutes(rs, h, links)
	return rs
}

func MakeLink(id uint8, cost uint32) state.Link {
	return state.Link{
		Neighbour: addr(id),
		Cost:      cost,
	}
}

// NeighUpdate delivers an update from neigh, records are given as alternating (node id, cost) pairs
func (h *RouterHarness) NeighUpdate(rs *state.RouterState, neigh uint8, records ...uint8) bool {
	u := &protocol.Update{}
	for i := 0; i+1 < len(records); i += 2 {
		u.Records = append(u.Records, protocol.UpdateRecord{
			Dest: addr(records[i]),
			Cost: records[i+1],
		})
	}
	return HandleNeighbourUpdate(rs, h, addr(neigh), u)
}
