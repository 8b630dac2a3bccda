package presence

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeConn is a minimal Conn implementation for registry tests.
type fakeConn struct {
	id string
}

func (f *fakeConn) ID() string            { return f.id }
func (f *fakeConn) Send(string, any) bool { return true }

func TestUpsertOnConnect_CreatesAvailableEntry(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}

	r.UpsertOnConnect("a@example.com", "Alice", "avatar.png", conn)

	view, ok := r.Lookup("a@example.com")
	if !ok {
		t.Fatal("expected entry for a@example.com")
	}
	if view.Status != StatusAvailable {
		t.Errorf("expected status %q, got %q", StatusAvailable, view.Status)
	}
	if view.ChattingWith != "" {
		t.Errorf("expected empty chattingWith, got %q", view.ChattingWith)
	}
	if view.SocketID != "sock-1" {
		t.Errorf("expected socket ID sock-1, got %q", view.SocketID)
	}
	if view.Name != "Alice" || view.Avatar != "avatar.png" {
		t.Errorf("unexpected profile fields: %+v", view)
	}
}

func TestUpsertOnConnect_PreservesChatContext(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{id: "sock-1"}
	second := &fakeConn{id: "sock-2"}

	r.UpsertOnConnect("a@example.com", "Alice", "", first)
	r.EnterChat("a@example.com", "b@example.com", first)

	// Reconnect (e.g. page reload) must refresh the connection but keep the
	// conversation context.
	r.UpsertOnConnect("a@example.com", "Alice", "new.png", second)

	view, ok := r.Lookup("a@example.com")
	if !ok {
		t.Fatal("expected entry to survive reconnect")
	}
	if view.Status != StatusBusy {
		t.Errorf("expected status to stay %q, got %q", StatusBusy, view.Status)
	}
	if view.ChattingWith != "b@example.com" {
		t.Errorf("expected chattingWith to stay b@example.com, got %q", view.ChattingWith)
	}
	if view.SocketID != "sock-2" {
		t.Errorf("expected refreshed socket ID sock-2, got %q", view.SocketID)
	}
}

func TestEnterChat_AbsentIdentityIsNoOp(t *testing.T) {
	r := NewRegistry()

	r.EnterChat("ghost@example.com", "b@example.com", &fakeConn{id: "sock-1"})

	if _, ok := r.Lookup("ghost@example.com"); ok {
		t.Error("enterChat must not create an entry for an unknown identity")
	}
	if r.Size() != 0 {
		t.Errorf("expected empty registry, got size %d", r.Size())
	}
}

func TestLeaveChat_ResetsStatus(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}

	r.UpsertOnConnect("a@example.com", "Alice", "", conn)
	r.EnterChat("a@example.com", "b@example.com", conn)
	r.LeaveChat("a@example.com")

	view, _ := r.Lookup("a@example.com")
	if view.Status != StatusAvailable {
		t.Errorf("expected status %q, got %q", StatusAvailable, view.Status)
	}
	if view.ChattingWith != "" {
		t.Errorf("expected empty chattingWith, got %q", view.ChattingWith)
	}

	// Unknown identity is a silent no-op.
	r.LeaveChat("ghost@example.com")
}

func TestSingleEntryPerIdentity(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 10; i++ {
		conn := &fakeConn{id: fmt.Sprintf("sock-%d", i)}
		r.UpsertOnConnect("a@example.com", "Alice", "", conn)
		r.EnterChat("a@example.com", "b@example.com", conn)
		r.ScheduleRemoval("a@example.com", conn, time.Hour, nil)
	}

	if r.Size() != 1 {
		t.Errorf("expected exactly one entry, got %d", r.Size())
	}
}

func TestScheduleRemoval_ExpiresExactlyOnce(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}
	r.UpsertOnConnect("a@example.com", "Alice", "", conn)

	var fired atomic.Int32
	removed := make(chan View, 4)

	r.ScheduleRemoval("a@example.com", conn, 20*time.Millisecond, func(v View) {
		fired.Add(1)
		removed <- v
	})

	select {
	case v := <-removed:
		if v.Email != "a@example.com" || v.Name != "Alice" {
			t.Errorf("unexpected removed snapshot: %+v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("removal timer never fired")
	}

	if _, ok := r.Lookup("a@example.com"); ok {
		t.Error("entry should be gone after grace expiry")
	}

	// Give a duplicate firing a chance to show up.
	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expected exactly one expiry, got %d", got)
	}
}

func TestReconnectWithinGrace_CancelsRemoval(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{id: "sock-1"}
	second := &fakeConn{id: "sock-2"}

	r.UpsertOnConnect("a@example.com", "Alice", "", first)
	r.EnterChat("a@example.com", "b@example.com", first)

	var fired atomic.Int32
	r.ScheduleRemoval("a@example.com", first, 80*time.Millisecond, func(View) {
		fired.Add(1)
	})

	time.Sleep(10 * time.Millisecond)
	r.UpsertOnConnect("a@example.com", "Alice", "", second)

	time.Sleep(250 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no expiry after reconnect within grace, got %d", got)
	}

	view, ok := r.Lookup("a@example.com")
	if !ok {
		t.Fatal("entry should survive reconnect within grace")
	}
	if view.Status != StatusBusy || view.ChattingWith != "b@example.com" {
		t.Errorf("chat context lost across grace window: %+v", view)
	}
}

func TestEnterChat_CancelsRemoval(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{id: "sock-1"}
	second := &fakeConn{id: "sock-2"}

	r.UpsertOnConnect("a@example.com", "Alice", "", first)

	var fired atomic.Int32
	r.ScheduleRemoval("a@example.com", first, 50*time.Millisecond, func(View) {
		fired.Add(1)
	})

	r.EnterChat("a@example.com", "b@example.com", second)

	time.Sleep(150 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Fatalf("expected join_chat to cancel removal, got %d expiries", got)
	}
	if _, ok := r.Lookup("a@example.com"); !ok {
		t.Error("entry should survive")
	}
}

func TestScheduleRemoval_StaleConnectionIgnored(t *testing.T) {
	r := NewRegistry()
	old := &fakeConn{id: "sock-old"}
	current := &fakeConn{id: "sock-new"}

	r.UpsertOnConnect("a@example.com", "Alice", "", old)
	// A newer connection replaced the old one before its close was processed.
	r.UpsertOnConnect("a@example.com", "Alice", "", current)

	var fired atomic.Int32
	r.ScheduleRemoval("a@example.com", old, 20*time.Millisecond, func(View) {
		fired.Add(1)
	})

	time.Sleep(80 * time.Millisecond)

	if got := fired.Load(); got != 0 {
		t.Fatalf("stale disconnect must not evict a reconnected user, got %d expiries", got)
	}

	if _, ok := r.Peer("a@example.com"); !ok {
		t.Error("current connection should still be live")
	}
}

func TestScheduleRemoval_ReplacesPendingTimer(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}
	r.UpsertOnConnect("a@example.com", "Alice", "", conn)

	var fired atomic.Int32
	removed := make(chan View, 4)

	r.ScheduleRemoval("a@example.com", conn, time.Hour, func(v View) {
		fired.Add(1)
		removed <- v
	})
	// Defensive last-wins replacement.
	r.ScheduleRemoval("a@example.com", nil, 20*time.Millisecond, func(v View) {
		fired.Add(1)
		removed <- v
	})

	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("replacement timer never fired")
	}

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expected exactly one expiry after replacement, got %d", got)
	}
}

func TestCancelRemoval_Idempotent(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}
	r.UpsertOnConnect("a@example.com", "Alice", "", conn)

	// No timer pending: must be a no-op.
	r.CancelRemoval("a@example.com")
	r.CancelRemoval("a@example.com")
	// Unknown identity: must be a no-op.
	r.CancelRemoval("ghost@example.com")

	var fired atomic.Int32
	r.ScheduleRemoval("a@example.com", conn, 20*time.Millisecond, func(View) {
		fired.Add(1)
	})
	r.CancelRemoval("a@example.com")

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Errorf("expected cancelled timer not to fire, got %d expiries", got)
	}
}

func TestRemove_Unconditional(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}
	r.UpsertOnConnect("a@example.com", "Alice", "", conn)
	r.ScheduleRemoval("a@example.com", conn, time.Hour, nil)

	r.Remove("a@example.com")

	if r.Size() != 0 {
		t.Errorf("expected empty registry after Remove, got size %d", r.Size())
	}

	// Removing an absent identity is a no-op.
	r.Remove("a@example.com")
}

func TestSnapshot_CompleteAndSorted(t *testing.T) {
	r := NewRegistry()
	r.UpsertOnConnect("c@example.com", "Carol", "", &fakeConn{id: "sock-c"})
	r.UpsertOnConnect("a@example.com", "Alice", "", &fakeConn{id: "sock-a"})
	r.UpsertOnConnect("b@example.com", "Bob", "", &fakeConn{id: "sock-b"})

	views := r.Snapshot()
	if len(views) != r.Size() {
		t.Fatalf("snapshot size %d does not match registry size %d", len(views), r.Size())
	}

	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	for i, email := range want {
		if views[i].Email != email {
			t.Errorf("snapshot[%d] = %q, want %q", i, views[i].Email, email)
		}
	}
}

func TestSnapshot_IncludesGraceWindowEntries(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{id: "sock-1"}
	r.UpsertOnConnect("a@example.com", "Alice", "", conn)
	r.ScheduleRemoval("a@example.com", conn, time.Hour, nil)

	views := r.Snapshot()
	if len(views) != 1 {
		t.Fatalf("expected entry to stay visible during grace window, got %d entries", len(views))
	}
	if views[0].SocketID != "" {
		t.Errorf("expected empty socket ID during grace window, got %q", views[0].SocketID)
	}

	if _, ok := r.Peer("a@example.com"); ok {
		t.Error("no live connection expected during grace window")
	}
}

func TestConcurrentReconnectDuringExpiry(t *testing.T) {
	// Hammers the disconnect/reconnect race: whatever interleaving occurs,
	// the identity must end up present with at most one entry.
	r := NewRegistry()

	for i := 0; i < 50; i++ {
		conn := &fakeConn{id: fmt.Sprintf("sock-%d", i)}
		next := &fakeConn{id: fmt.Sprintf("sock-%d-next", i)}

		r.UpsertOnConnect("a@example.com", "Alice", "", conn)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.ScheduleRemoval("a@example.com", conn, time.Microsecond, nil)
		}()
		go func() {
			defer wg.Done()
			r.UpsertOnConnect("a@example.com", "Alice", "", next)
		}()
		wg.Wait()

		// Even if the timer won the race, the reconnect re-created the entry.
		time.Sleep(2 * time.Millisecond)
		r.CancelRemoval("a@example.com")
		r.UpsertOnConnect("a@example.com", "Alice", "", next)

		if r.Size() != 1 {
			t.Fatalf("iteration %d: expected one entry, got %d", i, r.Size())
		}
	}
}
