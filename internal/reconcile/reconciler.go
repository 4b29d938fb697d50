// Package reconcile keeps the request lists consistent under two
// competing update paths: periodic poll snapshots and push deltas.
// Snapshots replace a list wholesale; deltas mutate it in place. The
// last snapshot to resolve wins, so a slow poll can never clobber a
// newer one.
package reconcile

import (
	"sort"
	"sync"

	"github.com/roadassist/client/internal/model"
	"github.com/roadassist/client/internal/transport"
)

// ListKind names one of the request lists the app tracks.
type ListKind string

const (
	// ListIncoming is the mechanic's pending requests, SOS included.
	ListIncoming ListKind = "incoming"

	// ListActive is the mechanic's accepted, unfinished jobs.
	ListActive ListKind = "active"

	// ListCompleted is the mechanic's finished jobs.
	ListCompleted ListKind = "completed"

	// ListHistory is the mechanic's full work history, rejections
	// included.
	ListHistory ListKind = "history"

	// ListMine is the client's own requests across all states.
	ListMine ListKind = "mine"
)

// Directive tells the caller what a push event did and whether the
// server must be consulted for the rest.
type Directive struct {
	// Changed is set when the event mutated a list in place.
	Changed bool

	// NeedRefetch is set for events whose full effect cannot be
	// derived locally (acceptance, rejection, status movement). The
	// caller triggers the poll feeds instead of guessing.
	NeedRefetch bool
}

// Reconciler owns the request lists. Safe for concurrent use.
type Reconciler struct {
	mu      sync.Mutex
	lists   map[ListKind][]model.RepairRequest
	issued  uint64
	applied map[ListKind]uint64
}

// New returns an empty reconciler.
func New() *Reconciler {
	return &Reconciler{
		lists:   make(map[ListKind][]model.RepairRequest),
		applied: make(map[ListKind]uint64),
	}
}

// BeginPoll stamps a poll with its place in line. Call it before the
// fetch; pass the stamp to ApplySnapshot when the fetch resolves.
func (r *Reconciler) BeginPoll() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	return r.issued
}

// ApplySnapshot replaces the named list with a poll result, newest
// first. A snapshot whose stamp is older than one already applied to
// the list is discarded; the return value reports whether the snapshot
// took effect.
func (r *Reconciler) ApplySnapshot(kind ListKind, stamp uint64, items []model.RepairRequest) bool {
	sorted := make([]model.RepairRequest, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if stamp <= r.applied[kind] {
		return false
	}
	r.applied[kind] = stamp
	r.lists[kind] = sorted
	return true
}

// List returns a copy of the named list.
func (r *Reconciler) List(kind ListKind) []model.RepairRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.RepairRequest, len(r.lists[kind]))
	copy(out, r.lists[kind])
	return out
}

// ApplyEvent folds a push event into the lists.
//
// New work (NEW_REQUEST, SOS_ALERT) is prepended to the incoming list;
// work claimed elsewhere (REQUEST_TAKEN) is removed from it. Both are
// idempotent by request ID, so a push racing a poll snapshot of the
// same fact is harmless. Everything else moves a request between lists
// in ways the payload alone cannot settle, so it asks for a refetch.
func (r *Reconciler) ApplyEvent(event transport.Event) Directive {
	switch event.Type {
	case model.EventNewRequest, model.EventSOSAlert:
		if event.Request == nil {
			return Directive{NeedRefetch: true}
		}
		return Directive{Changed: r.prepend(ListIncoming, *event.Request)}

	case model.EventRequestTaken:
		if event.Request == nil {
			return Directive{NeedRefetch: true}
		}
		return Directive{Changed: r.remove(ListIncoming, event.Request.ID)}

	case model.EventRequestAccepted, model.EventRequestRejected, model.EventStatusUpdate:
		return Directive{NeedRefetch: true}

	default:
		// Location updates and notification-only events never change
		// list membership.
		return Directive{}
	}
}

// prepend adds req to the front of the named list unless an entry with
// the same ID is already there.
func (r *Reconciler) prepend(kind ListKind, req model.RepairRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.lists[kind] {
		if existing.ID == req.ID {
			return false
		}
	}
	r.lists[kind] = append([]model.RepairRequest{req}, r.lists[kind]...)
	return true
}

// remove deletes the request with the given ID from the named list.
func (r *Reconciler) remove(kind ListKind, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.lists[kind]
	for i, existing := range list {
		if existing.ID == id {
			r.lists[kind] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}
