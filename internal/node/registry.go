// Package node defines the node registry capability interface the boot
// dispatch plane depends on, and an in-memory reference implementation.
// Spec §9 calls for a small capability interface here, not an inheritance
// tree — the registry exposes exactly the four operations the core needs.
package node

import (
	"context"
	"errors"
	"time"

	"github.com/pureboot/pureboot/internal/model"
)

// ErrNotFound is returned by lookups that find no matching node.
var ErrNotFound = errors.New("node: not found")

// ErrDuplicate is returned by Upsert when creating a node would collide
// with an existing MAC or serial number on a different node.
var ErrDuplicate = errors.New("node: duplicate mac or serial")

// Registry is the capability surface the boot dispatch plane, the Pi
// layout manager, and the state-transition service need from node
// storage: lookup by either identity, create-or-update, and a last-seen
// touch that does not require a full read-modify-write.
type Registry interface {
	LookupByMAC(ctx context.Context, mac string) (*model.Node, error)
	LookupBySerial(ctx context.Context, serial string) (*model.Node, error)
	Upsert(ctx context.Context, n *model.Node) error
	TouchLastSeen(ctx context.Context, nodeID string, at time.Time) error
}
