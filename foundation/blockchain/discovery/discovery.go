// Package discovery implements the HELLO / HELLO_RCV handshake used to find
// other ledger nodes over UDP broadcast.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/pocledger/pocledger/foundation/blockchain/peer"
)

// maxDatagram is the largest datagram accepted. Valid messages are far
// smaller.
const maxDatagram = 512

// EventHandler defines a function that is called when events
// occur in the discovery processing.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start discovery.
type Config struct {
	Addr          string // Local address to listen on, e.g. 0.0.0.0:9080.
	BroadcastAddr string // Destination of the HELLO broadcast, e.g. 255.255.255.255:9080.
	Peers         *peer.PeerSet
	EvHandler     EventHandler
}

// Service manages the discovery socket. Receiving runs on its own goroutine
// once Run is called and never touches the ledger.
type Service struct {
	conn      *net.UDPConn
	broadcast *net.UDPAddr
	peers     *peer.PeerSet
	evHandler EventHandler
	localIPs  map[string]struct{}
	port      int

	wg       sync.WaitGroup
	shutOnce sync.Once
	shut     chan struct{}
}

// New opens the discovery socket.
func New(cfg Config) (*Service, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Peers == nil {
		return nil, errors.New("peer set is required")
	}

	broadcast, err := net.ResolveUDPAddr("udp4", cfg.BroadcastAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve broadcast address: %w", err)
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	pc, err := lc.ListenPacket(context.Background(), "udp4", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	conn := pc.(*net.UDPConn)

	localIPs, err := localIPs()
	if err != nil {
		conn.Close()
		return nil, err
	}

	s := Service{
		conn:      conn,
		broadcast: broadcast,
		peers:     cfg.Peers,
		evHandler: ev,
		localIPs:  localIPs,
		port:      conn.LocalAddr().(*net.UDPAddr).Port,
		shut:      make(chan struct{}),
	}

	return &s, nil
}

// Run starts the receive loop.
func (s *Service) Run() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.receive()
	}()
}

// Shutdown closes the socket and waits for the receive loop to exit.
func (s *Service) Shutdown() {
	s.shutOnce.Do(func() {
		s.evHandler("discovery: Shutdown: started")
		defer s.evHandler("discovery: Shutdown: completed")

		close(s.shut)
		s.conn.Close()
		s.wg.Wait()
	})
}

// LocalAddr returns the address the socket is bound to.
func (s *Service) LocalAddr() string {
	return s.conn.LocalAddr().String()
}

// Broadcast sends a HELLO to the broadcast address.
func (s *Service) Broadcast() error {
	return s.send(Hello, s.broadcast)
}

// SendHello sends a HELLO to a single address.
func (s *Service) SendHello(addr string) error {
	to, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return err
	}

	return s.send(Hello, to)
}

// =============================================================================

// receive reads datagrams until the socket is closed.
func (s *Service) receive() {
	s.evHandler("discovery: receive: started: addr[%s]", s.LocalAddr())
	defer s.evHandler("discovery: receive: completed")

	buf := make([]byte, maxDatagram+1)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.shut:
				return
			default:
			}

			s.evHandler("discovery: receive: ERROR: %s", err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		if n > maxDatagram {
			s.evHandler("discovery: receive: DROPPED: from[%s]: datagram too large", from)
			continue
		}

		s.handle(buf[:n], from)
	}
}

// handle processes a single datagram.
func (s *Service) handle(data []byte, from *net.UDPAddr) {
	if s.isSelf(from) {
		return
	}

	kind, err := Decode(data)
	if err != nil {
		s.evHandler("discovery: handle: DROPPED: from[%s]: %s", from, err)
		return
	}

	host := from.String()

	added, err := s.peers.Add(peer.New(host))
	if err != nil {
		s.evHandler("discovery: handle: peer[%s]: store: ERROR: %s", host, err)
	}
	if added {
		s.evHandler("discovery: handle: kind[%s]: new peer[%s]", kind, host)
	}

	switch kind {
	case Hello:
		if err := s.send(HelloRcv, from); err != nil {
			s.evHandler("discovery: handle: reply[%s]: ERROR: %s", host, err)
		}

	case HelloRcv:
		// The responder is registered, no further reply.
	}
}

// send writes a single message to the address.
func (s *Service) send(kind Kind, to *net.UDPAddr) error {
	data, err := Encode(kind)
	if err != nil {
		return err
	}

	if _, err := s.conn.WriteToUDP(data, to); err != nil {
		return fmt.Errorf("send %s to %s: %w", kind, to, err)
	}

	return nil
}

// isSelf reports whether the datagram came from this service.
func (s *Service) isSelf(from *net.UDPAddr) bool {
	if from.Port != s.port {
		return false
	}

	_, exists := s.localIPs[from.IP.String()]
	return exists
}

// localIPs returns the addresses of every local interface.
func localIPs() (map[string]struct{}, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("interface addresses: %w", err)
	}

	ips := map[string]struct{}{
		"127.0.0.1": {},
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			ips[ipNet.IP.String()] = struct{}{}
		}
	}

	return ips, nil
}
