// Package memstore is an in-memory reference implementation of the
// workflow lookup capability the boot dispatch plane depends on
// (internal/httpapi.WorkflowLookup). Workflows are owned by an external
// collaborator in a full deployment; this store only exists so pureboot
// ships a working single-process binary and test double.
package memstore

import (
	"context"
	"sync"

	"github.com/pureboot/pureboot/internal/model"
)

// Store maps a node ID to the workflow most recently assigned to it.
type Store struct {
	mu       sync.Mutex
	byNodeID map[string]*model.Workflow
}

// New returns an empty Store.
func New() *Store {
	return &Store{byNodeID: make(map[string]*model.Workflow)}
}

// Assign records wf as the workflow for nodeID, replacing any prior one.
func (s *Store) Assign(nodeID string, wf *model.Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byNodeID[nodeID] = wf
}

// Clear removes any workflow assigned to nodeID.
func (s *Store) Clear(nodeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byNodeID, nodeID)
}

// WorkflowForNode implements internal/httpapi.WorkflowLookup. It returns a
// nil workflow and nil error when none is assigned: the absence of a
// workflow is not itself an error condition for the dispatch resolver.
func (s *Store) WorkflowForNode(_ context.Context, nodeID string) (*model.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byNodeID[nodeID], nil
}
