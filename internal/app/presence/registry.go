/*
Package presence contains the core logic for tracking which users are online.

This file defines the Registry, the process-wide in-memory mapping from user
identity to connection state. It owns every online/offline/busy transition and
the grace-period timers that keep a user "online" across a page reload. The
registry is not persisted; on process restart everyone is offline until they
reconnect.
*/
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dmchat/internal/pkg/logx"
)

// removalTimer is one pending eviction for a disconnected identity.
type removalTimer struct {
	timer *time.Timer
}

// Registry maps user identities (emails) to their live presence entries.
// A single mutex guards the entry table and the grace timers: concurrent
// upsert/remove/timer-fire on the same identity is the one real race hazard
// of the system, and every transition below is atomic under mu.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logx.Logger().With().Str("component", "PresenceRegistry").Logger(),
	}
}

// UpsertOnConnect records that the identity has an active connection.
// If the identity is absent a fresh entry is created with status Available.
// If it is present, only the connection reference and profile fields are
// refreshed: status and chattingWith survive, so a user who reloads the chat
// page keeps their conversation context. Any pending removal timer is
// cancelled in the same critical section.
func (r *Registry) UpsertOnConnect(email, name, avatar string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok {
		e = &entry{
			email:  email,
			status: StatusAvailable,
		}
		r.entries[email] = e
		r.logger.Debug().Str("email", email).Msg("Presence entry created.")
	}

	e.name = name
	e.avatar = avatar
	e.conn = conn
	r.cancelRemovalLocked(e)
}

// EnterChat marks the identity Busy chatting with partner and refreshes its
// connection reference. It is a silent no-op when the identity has no entry;
// the caller's roster broadcast still proceeds unchanged.
func (r *Registry) EnterChat(email, partner string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok {
		return
	}

	if conn != nil {
		e.conn = conn
	}
	e.status = StatusBusy
	e.chattingWith = partner
	r.cancelRemovalLocked(e)
}

// LeaveChat returns the identity to Available with no conversation partner.
// No-op when the identity has no entry.
func (r *Registry) LeaveChat(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok {
		return
	}

	e.status = StatusAvailable
	e.chattingWith = ""
}

// Lookup returns a snapshot of the identity's entry, if present.
func (r *Registry) Lookup(email string) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok {
		return View{}, false
	}
	return e.view(), true
}

// Peer returns the identity's live connection. The second result is false when
// the identity is absent or currently inside its disconnect grace window.
func (r *Registry) Peer(email string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok || e.conn == nil {
		return nil, false
	}
	return e.conn, true
}

// Snapshot returns a view of every current entry, sorted by identity for
// stable roster payloads. Entries inside their grace window are included:
// as far as everyone else is concerned the user never left.
func (r *Registry) Snapshot() []View {
	r.mu.Lock()
	defer r.mu.Unlock()

	views := make([]View, 0, len(r.entries))
	for _, e := range r.entries {
		views = append(views, e.view())
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Email < views[j].Email
	})

	return views
}

// Size returns the number of distinct identities currently in the registry.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// ScheduleRemoval starts the grace timer for a disconnected identity. When the
// timer expires without the identity reconnecting, the entry is removed and
// onExpire is invoked (outside the lock) with a snapshot of the removed entry.
//
// The conn argument is the connection that just closed. If the entry is
// already owned by a different live connection the disconnect is stale (the
// user reconnected before the close was processed) and nothing is scheduled.
// If a timer is already pending it is replaced, last wins.
func (r *Registry) ScheduleRemoval(email string, conn Conn, after time.Duration, onExpire func(View)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok {
		return
	}

	if e.conn != nil && conn != nil && e.conn.ID() != conn.ID() {
		r.logger.Debug().Str("email", email).Msg("Ignoring disconnect from replaced connection.")
		return
	}

	e.conn = nil

	if e.removal != nil {
		e.removal.timer.Stop()
	}

	pending := &removalTimer{}
	pending.timer = time.AfterFunc(after, func() {
		r.expire(email, pending, onExpire)
	})
	e.removal = pending

	r.logger.Debug().Str("email", email).Dur("grace", after).Msg("Removal scheduled.")
}

// expire runs when a grace timer fires. It re-checks under the lock that the
// timer is still the entry's current one: a cancel or replacement that raced
// with the firing turns this into a no-op, which is what makes
// cancel-then-upsert atomic relative to expiry.
func (r *Registry) expire(email string, pending *removalTimer, onExpire func(View)) {
	r.mu.Lock()

	e, ok := r.entries[email]
	if !ok || e.removal != pending {
		r.mu.Unlock()
		return
	}

	delete(r.entries, email)
	removed := e.view()

	r.mu.Unlock()

	r.logger.Info().Str("email", email).Msg("Grace period expired, presence entry removed.")

	if onExpire != nil {
		onExpire(removed)
	}
}

// CancelRemoval cancels any pending removal timer for the identity.
// It is idempotent and a no-op when no timer is pending.
func (r *Registry) CancelRemoval(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[email]; ok {
		r.cancelRemovalLocked(e)
	}
}

// cancelRemovalLocked stops and clears the entry's pending timer.
// Caller must hold mu.
func (r *Registry) cancelRemovalLocked(e *entry) {
	if e.removal != nil {
		e.removal.timer.Stop()
		e.removal = nil
	}
}

// Remove deletes the identity's entry unconditionally, stopping any pending timer.
func (r *Registry) Remove(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[email]
	if !ok {
		return
	}

	r.cancelRemovalLocked(e)
	delete(r.entries, email)
}
