package state

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
)

type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	*RouterState
	Modules map[string]Module
	// HellosSent counts the bootstrap messages this node has originated
	HellosSent int
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan func(s *State) error
	LocalCfg
	NetworkCfg
	Context   context.Context
	Cancel    context.CancelCauseFunc
	Log       *slog.Logger
	AuxConfig map[string]any
	Started   atomic.Bool
	Stopping  atomic.Bool
	// Rand must only be used on the main loop
	Rand *rand.Rand
}

// NewRand returns a pseudo-random source. A seed of zero produces a non-deterministic source.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}
