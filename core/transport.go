package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"

	"github.com/encodeous/strand/state"
	"github.com/encodeous/strand/sys"
	"golang.org/x/net/ipv4"
)

// Transport moves datagrams between nodes. Nodes are addressed by their NodeAddr only.
type Transport interface {
	// Listen binds the local endpoint and starts delivering datagrams to recv from a background goroutine
	Listen(ctx context.Context, recv func(from state.NodeAddr, pkt []byte)) error
	// Send is fire-and-forget, there is no delivery guarantee
	Send(to state.NodeAddr, pkt []byte) error
	Close() error
}

type UdpTransport struct {
	Self     state.NodeAddr
	BasePort uint16
	Log      *slog.Logger
	conn     *net.UDPConn
	wg       sync.WaitGroup
}

func NewUdpTransport(self state.NodeAddr, basePort uint16, log *slog.Logger) *UdpTransport {
	return &UdpTransport{
		Self:     self,
		BasePort: basePort,
		Log:      log,
	}
}

func (u *UdpTransport) Listen(ctx context.Context, recv func(from state.NodeAddr, pkt []byte)) error {
	bind := u.Self.AddrPort(u.BasePort)
	u.Log.Info("binding", "addr", bind)
	err := sys.EnsureLoopback(bind.Addr())
	if err != nil {
		return err
	}
	pconn, err := sys.ListenConfig().ListenPacket(ctx, "udp4", bind.String())
	if err != nil {
		return err
	}
	u.conn = pconn.(*net.UDPConn)
	pc := ipv4.NewPacketConn(u.conn)
	err = pc.SetControlMessage(ipv4.FlagDst, true)
	if err != nil {
		// not supported everywhere, we only lose the destination check
		u.Log.Debug("failed to enable destination control messages", "error", err)
	}
	u.Log.Info("listening", "addr", bind)
	u.wg.Add(1)
	go u.readLoop(pc, recv)
	return nil
}

func (u *UdpTransport) readLoop(pc *ipv4.PacketConn, recv func(from state.NodeAddr, pkt []byte)) {
	defer u.wg.Done()
	buf := make([]byte, state.MaxDatagramSize)
	self := u.Self.Addr().AsSlice()
	for {
		n, cm, src, err := pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			u.Log.Warn("failed to read datagram", "error", err)
			continue
		}
		if cm != nil && cm.Dst != nil && !cm.Dst.Equal(self) {
			u.Log.Debug("dropped datagram for another address", "dst", cm.Dst)
			continue
		}
		udpAddr, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}
		from, err := state.NodeAddrFrom(udpAddr.AddrPort().Addr())
		if err != nil {
			u.Log.Debug("dropped datagram from non-ipv4 sender", "src", src)
			continue
		}
		recv(from, slices.Clone(buf[:n]))
	}
}

// Send opens a socket bound to the node's own address for the single datagram, so the receiver sees our address as the source
func (u *UdpTransport) Send(to state.NodeAddr, pkt []byte) error {
	laddr := &net.UDPAddr{IP: u.Self.Addr().AsSlice()}
	raddr := net.UDPAddrFromAddrPort(to.AddrPort(u.BasePort))
	conn, err := net.DialUDP("udp4", laddr, raddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", raddr, err)
	}
	defer conn.Close()
	_, err = conn.Write(pkt)
	return err
}

func (u *UdpTransport) Close() error {
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.wg.Wait()
	return err
}
