// Package session holds the client-session state machine: who is signed in,
// whether that has been checked yet, and how a rehydration attempt is
// progressing. It is the server-side counterpart of a UI user store —
// consumers subscribe to transitions instead of polling.
package session

import (
	"context"
	"sync"

	"github.com/advyta/dashboard/internal/model"
)

// State tracks the profile-rehydration lifecycle. Transitions only ever move
// idle → pending → {succeeded, failed}; local mutations (SetUser, Logout)
// do not touch the fetch state.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ProfileFetcher loads the signed-in user's record, typically via
// GET /api/users/profile with the session cookie attached.
type ProfileFetcher func(ctx context.Context) (*model.User, error)

// Snapshot is an immutable view of the store at one point in time. The user
// is three-valued: nil + !Checked means "not looked yet", nil + Checked
// means "looked, nobody home", non-nil means signed in.
type Snapshot struct {
	User          *model.User
	Authenticated bool
	State         State
	// Checked reports whether at least one rehydration attempt finished.
	Checked bool
}

// Store is an observable session store. All methods are safe for concurrent
// use; subscribers are invoked synchronously on every transition.
type Store struct {
	mu      sync.Mutex
	user    *model.User
	auth    bool
	state   State
	checked bool

	fetch ProfileFetcher

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewStore(fetch ProfileFetcher) *Store {
	return &Store{
		fetch: fetch,
		subs:  make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var user *model.User
	if s.user != nil {
		copied := *s.user
		user = &copied
	}
	return Snapshot{User: user, Authenticated: s.auth, State: s.state, Checked: s.checked}
}

// Subscribe registers fn to run on every transition and returns an
// unsubscribe func. fn is called with the snapshot that caused the
// notification, not the latest one.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Initialize rehydrates the session from the profile endpoint. It is a
// no-op when a user is already cached or a fetch is in flight, so it can be
// called on every page mount without duplicate requests.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.user != nil || s.state == StatePending {
		s.mu.Unlock()
		return
	}
	s.state = StatePending
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	user, err := s.fetch(ctx)

	s.mu.Lock()
	s.checked = true
	if err != nil {
		s.state = StateFailed
		s.user = nil
		s.auth = false
	} else {
		s.state = StateSucceeded
		s.user = user
		s.auth = true
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetUser installs a freshly authenticated user, e.g. right after login.
func (s *Store) SetUser(user *model.User) {
	s.mu.Lock()
	copied := *user
	s.user = &copied
	s.auth = true
	s.checked = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// UpdateUser shallow-merges the provided profile fields into the cached
// user. A no-op when nobody is signed in.
func (s *Store) UpdateUser(upd model.ProfileUpdate) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&s.user.Email, upd.Email)
	apply(&s.user.GitHub, upd.GitHub)
	apply(&s.user.Bio, upd.Bio)
	apply(&s.user.Location, upd.Location)
	apply(&s.user.Website, upd.Website)
	apply(&s.user.Phone, upd.Phone)
	apply(&s.user.Theme, upd.Theme)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Logout clears the session. The fetch state is left as-is so a later
// Initialize still knows a check already happened.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.auth = false
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// View is what a protected surface should do with the current session.
type View struct {
	// Ready is false while rehydration is pending; render nothing yet.
	Ready bool
	// RedirectToLogin is set when the session check failed or nobody is
	// signed in after a completed check.
	RedirectToLogin bool
	User            *model.User
}

// ProtectedView maps the session state onto render-or-redirect guidance.
// User data is never exposed while a check is pending.
func (s *Store) ProtectedView() View {
	snap := s.Snapshot()
	switch {
	case snap.State == StatePending:
		return View{}
	case snap.Authenticated && snap.User != nil:
		return View{Ready: true, User: snap.User}
	case snap.Checked:
		return View{Ready: true, RedirectToLogin: true}
	default:
		// Never checked: let the caller Initialize first.
		return View{}
	}
}
