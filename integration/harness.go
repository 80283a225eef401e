//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/encodeous/strand/core"
	"github.com/encodeous/strand/state"
)

type Signal chan bool

func NewSignal() Signal {
	return make(chan bool)
}
func (s Signal) Trigger() {
	select {
	case <-s:
	default:
		close(s)
	}
}
func (s Signal) Triggered() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}
func (s Signal) Wait() {
	<-s
}

type VirtualLink struct {
	Edge       state.Pair[state.NodeAddr, state.NodeAddr]
	Latency    time.Duration
	Jitter     time.Duration
	PacketLoss float64
}

func (v *VirtualLink) WithLatency(lat, jitter time.Duration) *VirtualLink {
	v.Latency = lat
	v.Jitter = jitter
	return v
}

func (v *VirtualLink) WithPacketLoss(loss float64) *VirtualLink {
	v.PacketLoss = loss
	return v
}

func (v *VirtualLink) simulate(pkt []byte, to *memTransport, i *InMemoryNetwork) {
	if rand.Float64() < v.PacketLoss {
		return // dropped
	}
	simLat := v.Latency + time.Duration(rand.Float64()*float64(v.Jitter.Nanoseconds()))
	// delivery never runs on the sender's goroutine, so a full receiver cannot stall the sender
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if simLat == 0 {
			select {
			case <-i.ctx.Done():
			default:
				to.deliver(v.Edge.V1, pkt)
			}
			return
		}
		select {
		case <-i.ctx.Done():
		case <-time.After(simLat):
			to.deliver(v.Edge.V1, pkt)
		}
	}()
}

// PacketFilter returns true to intercept a datagram before it reaches the node
type PacketFilter func(from, to state.NodeAddr, pkt []byte) bool

func (h PacketFilter) TryApply(from, to state.NodeAddr, pkt []byte) bool {
	if h == nil {
		return false
	}
	return h(from, to, pkt)
}

// InMemoryNetwork carries datagrams between nodes of one process. Datagrams only travel over configured links.
type InMemoryNetwork struct {
	sync.Mutex
	ctx        context.Context
	wg         sync.WaitGroup
	transports map[state.NodeAddr]*memTransport
	links      []*VirtualLink
	Filter     PacketFilter
}

func (i *InMemoryNetwork) link(from, to state.NodeAddr) *VirtualLink {
	i.Lock()
	defer i.Unlock()
	idx := slices.IndexFunc(i.links, func(link *VirtualLink) bool {
		return link.Edge.V1 == from && link.Edge.V2 == to
	})
	if idx == -1 {
		return nil
	}
	return i.links[idx]
}

func (i *InMemoryNetwork) send(from, to state.NodeAddr, pkt []byte) {
	link := i.link(from, to)
	if link == nil {
		return // no connection, dropped packet
	}
	if i.Filter.TryApply(from, to, pkt) {
		return
	}
	i.Lock()
	dst := i.transports[to]
	i.Unlock()
	if dst == nil {
		return
	}
	link.simulate(slices.Clone(pkt), dst, i)
}

// Inject delivers a raw datagram to a node as if it was sent by from, ignoring links
func (i *InMemoryNetwork) Inject(from, to state.NodeAddr, pkt []byte) {
	i.Lock()
	dst := i.transports[to]
	i.Unlock()
	if dst != nil {
		dst.deliver(from, slices.Clone(pkt))
	}
}

// memTransport implements core.Transport on top of an InMemoryNetwork
type memTransport struct {
	self      state.NodeAddr
	net       *InMemoryNetwork
	mu        sync.Mutex
	recv      func(from state.NodeAddr, pkt []byte)
	listening Signal
}

func (m *memTransport) Listen(ctx context.Context, recv func(from state.NodeAddr, pkt []byte)) error {
	m.mu.Lock()
	m.recv = recv
	m.mu.Unlock()
	m.listening.Trigger()
	return nil
}

func (m *memTransport) Send(to state.NodeAddr, pkt []byte) error {
	m.net.send(m.self, to, pkt)
	return nil
}

func (m *memTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recv = nil
	return nil
}

func (m *memTransport) deliver(from state.NodeAddr, pkt []byte) {
	m.mu.Lock()
	recv := m.recv
	m.mu.Unlock()
	if recv != nil {
		recv(from, pkt)
	}
}

type VirtualHarness struct {
	Network *state.NetworkCfg
	Local   []state.LocalCfg
	States  []*state.State
	Net     *InMemoryNetwork
	Context context.Context
	Cancel  context.CancelCauseFunc
	wg      sync.WaitGroup
}

// NewHarness parses a network file, then creates a bidirectional link for every configured neighbour
func NewHarness(network string) (*VirtualHarness, error) {
	ncfg, err := state.ParseNetworkCfg(strings.NewReader(network))
	if err != nil {
		return nil, err
	}
	err = state.NetworkCfgValidator(ncfg)
	if err != nil {
		return nil, err
	}
	v := &VirtualHarness{
		Network: ncfg,
		Net: &InMemoryNetwork{
			transports: make(map[state.NodeAddr]*memTransport),
		},
	}
	for _, node := range ncfg.Nodes() {
		for _, l := range ncfg.Links[node] {
			v.AddLink(node, l.Neighbour)
		}
	}
	return v, nil
}

func (v *VirtualHarness) AddLink(from, to state.NodeAddr) *VirtualLink {
	v.Net.Lock()
	defer v.Net.Unlock()
	idx := slices.IndexFunc(v.Net.links, func(link *VirtualLink) bool {
		return link.Edge.V1 == from && link.Edge.V2 == to
	})
	if idx != -1 {
		return v.Net.links[idx]
	}
	link := &VirtualLink{
		Edge: state.Pair[state.NodeAddr, state.NodeAddr]{V1: from, V2: to},
	}
	v.Net.links = append(v.Net.links, link)
	return link
}

// Link returns the link in the direction from -> to
func (v *VirtualHarness) Link(from, to uint8) *VirtualLink {
	return v.Net.link(state.LoopbackAddr(from), state.LoopbackAddr(to))
}

func (v *VirtualHarness) NewNode(id uint8, opts ...func(cfg *state.LocalCfg)) {
	cfg := state.LocalCfg{
		Id:   id,
		Seed: uint64(id),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	state.ExpandLocalCfg(&cfg)
	v.Local = append(v.Local, cfg)
}

func (v *VirtualHarness) IndexOf(id uint8) int {
	return slices.IndexFunc(v.Local, func(cfg state.LocalCfg) bool {
		return cfg.Id == id
	})
}

func (v *VirtualHarness) State(id uint8) *state.State {
	return v.States[v.IndexOf(id)]
}

// Start runs every node on its own goroutine and waits for all of them to listen
func (v *VirtualHarness) Start() chan error {
	ctx, cancel := context.WithCancelCause(context.Background())
	v.Context = ctx
	v.Cancel = cancel
	v.Net.ctx = ctx
	v.States = make([]*state.State, len(v.Local))
	errChan := make(chan error, len(v.Local))

	transports := make([]*memTransport, len(v.Local))
	for idx, cfg := range v.Local {
		t := &memTransport{
			self:      cfg.Addr(),
			net:       v.Net,
			listening: NewSignal(),
		}
		transports[idx] = t
		v.Net.Lock()
		v.Net.transports[t.self] = t
		v.Net.Unlock()
	}
	for idx, cfg := range v.Local {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			err := core.Start(cfg, *v.Network, slog.LevelDebug, map[string]any{
				"transport": transports[idx],
			}, &v.States[idx])
			if err != nil {
				errChan <- fmt.Errorf("node %s: %w", cfg.Addr(), err)
				transports[idx].listening.Trigger()
			}
		}()
	}
	for _, t := range transports {
		t.listening.Wait()
	}
	return errChan
}

func (v *VirtualHarness) Stop() {
	v.Cancel(errors.New("stopping harness"))
	for _, s := range v.States {
		if s != nil {
			s.Cancel(errors.New("stopping harness"))
		}
	}
	v.wg.Wait()
	v.Net.wg.Wait()
}

// Routes returns the node's routing table, rendered on its main loop
func (v *VirtualHarness) Routes(id uint8) string {
	res, err := v.State(id).DispatchWait(func(s *state.State) (any, error) {
		return s.StringRoutes(), nil
	})
	if err != nil {
		return err.Error()
	}
	return res.(string)
}

// Subscribe registers a channel for the node's trace events
func (v *VirtualHarness) Subscribe(id uint8) chan any {
	ch := make(chan any, 1024)
	res, err := v.State(id).DispatchWait(func(s *state.State) (any, error) {
		return core.Get[*core.Trace](s), nil
	})
	if err != nil {
		panic(err)
	}
	res.(*core.Trace).Register(ch)
	return ch
}

// Do runs fun on the node's main loop and waits for it
func (v *VirtualHarness) Do(id uint8, fun func(s *state.State) error) error {
	_, err := v.State(id).DispatchWait(func(s *state.State) (any, error) {
		return nil, fun(s)
	})
	return err
}

func WaitTrace(ch chan any, timeout time.Duration, match func(ev core.TraceEvent) bool) (core.TraceEvent, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case x := <-ch:
			ev := x.(core.TraceEvent)
			if match(ev) {
				return ev, true
			}
		case <-deadline:
			return core.TraceEvent{}, false
		}
	}
}
