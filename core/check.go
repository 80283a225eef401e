package core

import (
	"github.com/encodeous/strand/state"
)

type discardRouter struct{}

func (discardRouter) TableInsertRoute(dest state.NodeAddr, entry state.RouteEntry) {}

func (discardRouter) Log(event RouterEvent, desc string, args ...any) {}

// SeededState returns the table node starts with, before any update is received
func SeededState(ncfg *state.NetworkCfg, node state.NodeAddr) (*state.RouterState, error) {
	links, err := ncfg.GetLinks(node)
	if err != nil {
		return nil, err
	}
	rs := state.NewRouterState(node)
	SeedRoutes(rs, discardRouter{}, links)
	return rs, nil
}
