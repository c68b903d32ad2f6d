// Package state implements the node lifecycle state machine: a table of
// admissible (from, to) edges, a bounded install-retry rule, and an
// append-only audit log. It mirrors smee's preference for small table-driven
// validators over piles of conditionals.
package state

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/pureboot/pureboot/internal/model"
)

// edges is the base admissible-transition table from spec §4.5. Admin
// override (any non-retired -> retired) is applied as a separate rule in
// Transition rather than being enumerated here.
var edges = map[model.State][]model.State{
	model.StateDiscovered:     {model.StatePending, model.StateCloningTarget},
	model.StatePending:        {model.StateInstalling},
	model.StateInstalling:     {model.StateInstalled, model.StateInstallFailed},
	model.StateInstallFailed:  {model.StatePending},
	model.StateInstalled:      {model.StateActive, model.StateReprovision, model.StateRetired},
	model.StateActive: {
		model.StateReprovision, model.StateDeprovisioning, model.StateMigrating,
		model.StateServingSource, model.StateCloningTarget,
	},
	model.StateReprovision:    {model.StatePending},
	model.StateDeprovisioning: {model.StateRetired},
	model.StateMigrating:      {model.StateActive},
	model.StateServingSource:  {model.StateActive},
	model.StateCloningTarget:  {model.StateInstalled},
}

// Log appends StateLog records. Implementations must never mutate or
// delete a written record. A target's external persistence collaborator
// satisfies this; pureboot ships no implementation of its own beyond tests.
type Log interface {
	Append(ctx context.Context, entry model.StateLog) error
}

// Error is a validation failure: a transition rejected before any mutation
// took place. Surfacing it must never alter node state.
type Error struct {
	Node model.Node
	To   model.State
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("node %s: cannot transition %s -> %s: %s", e.Node.ID, e.Node.State, e.To, e.Msg)
}

// Machine validates and commits node state transitions, appending one audit
// record per successful transition.
type Machine struct {
	log Log
	clk func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the time source. Tests use this to pin StateChangedAt
// and CreatedAt.
func WithClock(clk func() time.Time) Option {
	return func(m *Machine) { m.clk = clk }
}

// NewMachine returns a Machine that appends audit records to log.
func NewMachine(log Log, opts ...Option) *Machine {
	m := &Machine{log: log, clk: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Admissible reports whether (from, to) is a valid edge in the base table,
// ignoring the admin-override and retry-bound rules layered on top in
// Transition. A retired node has no outgoing edges.
func Admissible(from, to model.State) bool {
	if from == model.StateRetired {
		return false
	}
	for _, candidate := range edges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// TransitionOptions carries the caller-supplied context for a single
// transition request.
type TransitionOptions struct {
	To          model.State
	TriggeredBy model.TriggeredBy
	UserID      string
	Comment     string
	Metadata    map[string]any
	// Force overlays the admin-override rule: any non-retired state may
	// move directly to Retired, and it lifts the install-retry bound when
	// the target is Pending.
	Force bool
}

// Transition validates and (if valid) commits n.State = opts.To, appending
// one audit log entry. On success it mutates n in place and returns nil.
// On validation failure it returns an *Error and leaves n untouched.
//
// Per spec §4.5: if the transition is committed but the log append fails,
// the error bubbles to the caller without rollback — the caller's own
// transaction boundary, if any, decides what happens next.
func (m *Machine) Transition(ctx context.Context, n *model.Node, opts TransitionOptions) error {
	if n.State == model.StateRetired {
		return &Error{Node: *n, To: opts.To, Msg: "retired is terminal"}
	}

	switch {
	case opts.Force && opts.To == model.StateRetired:
		// Admin override: any non-retired state may be force-retired.
	case opts.To == model.StatePending && n.State == model.StateInstallFailed:
		if !opts.Force && n.InstallAttempts >= model.MaxInstallAttempts {
			return &Error{Node: *n, To: opts.To, Msg: fmt.Sprintf("install_attempts %d reached the cap of %d; retry requires force=true", n.InstallAttempts, model.MaxInstallAttempts)}
		}
	case !Admissible(n.State, opts.To):
		return &Error{Node: *n, To: opts.To, Msg: "not an admissible transition"}
	}

	now := m.clk()
	from := n.State

	n.State = opts.To
	n.StateChangedAt = now
	if opts.Force && (opts.To == model.StatePending || opts.To == model.StateInstalled) {
		n.InstallAttempts = 0
		n.LastInstallError = ""
	}
	if opts.To == model.StateInstalled {
		n.InstallAttempts = 0
		n.LastInstallError = ""
	}

	metadata := opts.Metadata
	if opts.Force {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["force"] = true
	}

	entry := model.StateLog{
		ID:          uuid.NewString(),
		NodeID:      n.ID,
		FromState:   from,
		ToState:     opts.To,
		TriggeredBy: opts.TriggeredBy,
		UserID:      opts.UserID,
		Comment:     opts.Comment,
		Metadata:    metadata,
		CreatedAt:   now,
	}
	if err := m.log.Append(ctx, entry); err != nil {
		return fmt.Errorf("node %s transitioned %s -> %s but audit append failed: %w", n.ID, from, opts.To, err)
	}
	return nil
}

// ReportInstallFailure applies §4.5's install-failure handler: increment
// install_attempts; transition to install_failed and log only once the
// bound is reached, otherwise stay in installing and log the failed attempt
// through log (no state transition record is written below the bound).
func (m *Machine) ReportInstallFailure(ctx context.Context, log logr.Logger, n *model.Node, cause string) error {
	if n.State != model.StateInstalling {
		return &Error{Node: *n, To: model.StateInstallFailed, Msg: "install failure reported outside installing"}
	}
	n.InstallAttempts++
	n.LastInstallError = cause

	if n.InstallAttempts < model.MaxInstallAttempts {
		log.Info("install attempt failed, remaining in installing", "node", n.ID, "attempt", n.InstallAttempts, "cause", cause)
		return nil
	}

	return m.Transition(ctx, n, TransitionOptions{
		To:          model.StateInstallFailed,
		TriggeredBy: model.TriggeredByNodeReport,
		Metadata: map[string]any{
			"error":   cause,
			"attempt": n.InstallAttempts,
		},
	})
}
