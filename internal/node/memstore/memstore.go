// Package memstore is an in-memory reference implementation of
// node.Registry, suitable for tests and single-process deployments.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/pureboot/pureboot/internal/model"
	"github.com/pureboot/pureboot/internal/node"
)

// Store is a node.Registry backed by two maps behind one mutex, following
// the arena-style-table-behind-a-single-mutex pattern used throughout
// pureboot's other in-memory structures (internal/throttle's transfer
// table).
type Store struct {
	mu       sync.Mutex
	byMAC    map[string]*model.Node
	bySerial map[string]*model.Node
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byMAC:    make(map[string]*model.Node),
		bySerial: make(map[string]*model.Node),
	}
}

// LookupByMAC implements node.Registry.
func (s *Store) LookupByMAC(_ context.Context, mac string) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byMAC[mac]
	if !ok {
		return nil, node.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

// LookupBySerial implements node.Registry.
func (s *Store) LookupBySerial(_ context.Context, serial string) (*model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.bySerial[serial]
	if !ok {
		return nil, node.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

// Upsert implements node.Registry. A node already present under n.ID is
// replaced in place; a new node is rejected if its MAC or serial already
// names a different node.
func (s *Store) Upsert(_ context.Context, n *model.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.MACAddress != "" {
		if existing, ok := s.byMAC[n.MACAddress]; ok && existing.ID != n.ID {
			return node.ErrDuplicate
		}
	}
	if n.SerialNumber != "" {
		if existing, ok := s.bySerial[n.SerialNumber]; ok && existing.ID != n.ID {
			return node.ErrDuplicate
		}
	}

	cp := *n
	if cp.MACAddress != "" {
		s.byMAC[cp.MACAddress] = &cp
	}
	if cp.SerialNumber != "" {
		s.bySerial[cp.SerialNumber] = &cp
	}
	return nil
}

// TouchLastSeen implements node.Registry.
func (s *Store) TouchLastSeen(_ context.Context, nodeID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, n := range s.byMAC {
		if n.ID == nodeID {
			n.LastSeenAt = at
			found = true
		}
	}
	for _, n := range s.bySerial {
		if n.ID == nodeID {
			n.LastSeenAt = at
			found = true
		}
	}
	if !found {
		return node.ErrNotFound
	}
	return nil
}
