// Package peer maintains the peer related information such as the set
// of known peers and when they were last heard from.
package peer

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host     string    `json:"host"`
	LastSeen time.Time `json:"last_seen"`
}

// New constructs a new peer value seen now.
func New(host string) Peer {
	return Peer{
		Host:     host,
		LastSeen: time.Now().UTC(),
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// Store represents the behavior required to persist known peers.
type Store interface {
	SavePeer(peer Peer) error
	LoadPeers() ([]Peer, error)
}

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu    sync.RWMutex
	set   map[string]time.Time
	store Store
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[string]time.Time),
	}
}

// NewPeerSetWithStore constructs a peer set backed by the store and loads
// the peers already persisted.
func NewPeerSetWithStore(store Store) (*PeerSet, error) {
	peers, err := store.LoadPeers()
	if err != nil {
		return nil, err
	}

	ps := NewPeerSet()
	for _, peer := range peers {
		ps.set[peer.Host] = peer.LastSeen
	}
	ps.store = store

	return ps, nil
}

// Add registers the peer or refreshes when it was last seen. It reports
// whether the peer was not known before. A persistence failure is returned
// after the peer is registered in memory.
func (ps *PeerSet) Add(peer Peer) (bool, error) {
	if peer.LastSeen.IsZero() {
		peer.LastSeen = time.Now().UTC()
	}

	ps.mu.Lock()
	_, exists := ps.set[peer.Host]
	ps.set[peer.Host] = peer.LastSeen
	ps.mu.Unlock()

	if ps.store != nil {
		if err := ps.store.SavePeer(peer); err != nil {
			return !exists, err
		}
	}

	return !exists, nil
}

// Count returns the number of known peers.
func (ps *PeerSet) Count() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.set)
}

// Copy returns a list of the known peers sorted by host, leaving out the
// specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peers := make([]Peer, 0, len(ps.set))
	for h, lastSeen := range ps.set {
		peer := Peer{Host: h, LastSeen: lastSeen}
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	slices.SortFunc(peers, func(a, b Peer) int {
		return strings.Compare(a.Host, b.Host)
	})

	return peers
}
