package main

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// flowState tracks where one participant is in the session flow.
type flowState int

const (
	stateAwaitingSession flowState = iota // no session key chosen yet
	stateRoleChosen                       // identified as person1/person2
	stateSelecting                        // picking restaurants, editable
	stateOrderNotes                       // optional per-restaurant notes
	stateWaiting                          // submitted, peer outstanding
	stateResolved                         // both submitted, result computed
)

func (s flowState) String() string {
	switch s {
	case stateAwaitingSession:
		return "awaiting-session"
	case stateRoleChosen:
		return "role-chosen"
	case stateSelecting:
		return "selecting"
	case stateOrderNotes:
		return "order-notes"
	case stateWaiting:
		return "waiting"
	case stateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Store-touching session operations, shared by the HTTP layer and Flow.
// Each one is a complete read-merge-write cycle: the record is re-read
// immediately before merging so a peer's concurrent submit is picked up
// rather than blindly overwritten. The backends only give us last-write-
// wins, so the race window shrinks but does not vanish; two cooperating
// participants live with that.

// createSession allocates a fresh code and persists an empty session.
func createSession(ctx context.Context, store SessionStore, date string) (*Session, error) {
	for attempt := 0; attempt < 4; attempt++ {
		code, err := newSessionCode(ctx, store)
		if err != nil {
			return nil, err
		}

		sess := newSession(code, date)
		err = store.Create(ctx, sess)
		if errors.Is(err, ErrDuplicateKey) {
			continue // lost a race for the code, draw another
		}
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
	return nil, fmt.Errorf("%w: could not create session", ErrStoreUnavailable)
}

// submitSelection merges one participant's selection into the stored
// envelope and recomputes the result from scratch. Any previous result
// is discarded, never merged with stale match data.
func submitSelection(ctx context.Context, store SessionStore, code string, sel *Selection, customs []Restaurant) (*Session, error) {
	sess, err := store.Read(ctx, code)
	if err != nil {
		return nil, err
	}

	sess.setSelection(sel.Role, sel)
	sess.mergeCustom(customs)
	sess.recompute()

	if err := store.Write(ctx, code, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// resolveSession applies a resolution strategy to the stored result.
// The strategy sees the current result and candidate pool and never
// touches the store itself.
func resolveSession(ctx context.Context, store SessionStore, code string, apply func(res *Result, pool []string) error) (*Session, error) {
	sess, err := store.Read(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil {
		return nil, ErrIncompleteSession
	}

	if err := apply(sess.Result, candidatePool(sess)); err != nil {
		return nil, err
	}

	if err := store.Write(ctx, code, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// awaitPeer polls the store until the peer's selection lands, the
// context is cancelled, or a store error surfaces. Cancellation is the
// only way out with no upper bound on the wait.
func awaitPeer(ctx context.Context, store SessionStore, code string, role Role, interval time.Duration) (*Session, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sess, err := store.Read(ctx, code)
		if err != nil {
			return nil, err
		}
		if sess.selection(role.peer()).complete() && sess.Result != nil {
			return sess, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Flow is one participant's session state machine. It sequences key
// choice, role assignment, selection capture, submission, the wait for
// the peer, and resolution, enforcing the legal transitions; every
// failed call leaves both the flow and the persisted record unchanged.
type Flow struct {
	cfg     *Config
	store   SessionStore
	catalog *Catalog

	state   flowState
	code    string
	role    Role
	picks   []string
	orders  map[string]string
	customs []Restaurant
}

func newFlow(cfg *Config, store SessionStore, catalog *Catalog) *Flow {
	return &Flow{
		cfg:     cfg,
		store:   store,
		catalog: catalog,
		orders:  make(map[string]string),
	}
}

func (f *Flow) State() flowState { return f.state }
func (f *Flow) Code() string     { return f.code }
func (f *Flow) Picks() []string  { return append([]string(nil), f.picks...) }

func (f *Flow) require(action string, states ...flowState) error {
	for _, s := range states {
		if f.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrValidation, action, f.state)
}

// Start creates a new session and adopts its code.
func (f *Flow) Start(ctx context.Context, date string) (string, error) {
	if err := f.require("start a session", stateAwaitingSession); err != nil {
		return "", err
	}

	sess, err := createSession(ctx, f.store, date)
	if err != nil {
		return "", err
	}

	f.code = sess.Code
	return sess.Code, nil
}

// Join adopts an existing session by code.
func (f *Flow) Join(ctx context.Context, code string) error {
	if err := f.require("join a session", stateAwaitingSession); err != nil {
		return err
	}

	sess, err := f.store.Read(ctx, code)
	if err != nil {
		return err
	}

	f.catalog.MergeCustom(sess.CustomRestaurants)
	f.code = code
	return nil
}

// JoinDate adopts the most recent session for a calendar date, creating
// one under a date-derived key when none exists yet.
func (f *Flow) JoinDate(ctx context.Context, date string) error {
	if err := f.require("join a session", stateAwaitingSession); err != nil {
		return err
	}

	if finder, ok := f.store.(dateFinder); ok {
		sess, err := finder.FindByDate(ctx, date)
		if err == nil {
			f.catalog.MergeCustom(sess.CustomRestaurants)
			f.code = sess.Code
			return nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	}

	sess := newSession(dateKey(date, time.Now()), date)
	if err := f.store.Create(ctx, sess); err != nil {
		return err
	}
	f.code = sess.Code
	return nil
}

// ChooseRole identifies this participant for the joined session.
func (f *Flow) ChooseRole(role Role) error {
	if err := f.require("choose a role", stateAwaitingSession); err != nil {
		return err
	}
	if f.code == "" {
		return fmt.Errorf("%w: no session joined", ErrValidation)
	}
	if !role.valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	f.role = role
	f.state = stateRoleChosen
	return nil
}

// BeginSelecting enters the selection stage. A previously submitted
// selection for this role pre-fills the editable working set; picks that
// no longer resolve in the catalog are silently dropped along with their
// order notes.
func (f *Flow) BeginSelecting(ctx context.Context) error {
	if err := f.require("select restaurants", stateRoleChosen, stateWaiting, stateResolved); err != nil {
		return err
	}

	sess, err := f.store.Read(ctx, f.code)
	if err != nil {
		return err
	}
	f.catalog.MergeCustom(sess.CustomRestaurants)

	f.picks = nil
	f.orders = make(map[string]string)

	if own := sess.selection(f.role); own != nil {
		for _, id := range own.Restaurants {
			if _, ok := f.catalog.ByID(id); !ok {
				continue
			}
			f.picks = append(f.picks, id)
			if note := own.Orders[id]; note != "" {
				f.orders[id] = note
			}
		}
	}

	f.state = stateSelecting
	return nil
}

// Toggle adds or removes a restaurant from the working set. The set
// refuses growth past three picks; toggling a fourth is a no-op, and
// removing a pick frees the slot and discards its note.
func (f *Flow) Toggle(id string) error {
	if err := f.require("toggle a restaurant", stateSelecting); err != nil {
		return err
	}
	if _, ok := f.catalog.ByID(id); !ok {
		return fmt.Errorf("%w: unknown restaurant %q", ErrValidation, id)
	}

	for i, pick := range f.picks {
		if pick == id {
			f.picks = append(f.picks[:i], f.picks[i+1:]...)
			delete(f.orders, id)
			return nil
		}
	}

	if len(f.picks) >= selectionSize {
		return nil
	}
	f.picks = append(f.picks, id)
	return nil
}

// EnterOrderNotes moves to the optional notes stage. Variants without
// order capture submit straight from selecting instead.
func (f *Flow) EnterOrderNotes() error {
	if err := f.require("enter order notes", stateSelecting); err != nil {
		return err
	}
	f.state = stateOrderNotes
	return nil
}

// SetOrderNote attaches free text to a picked restaurant. Notes for
// restaurants outside the working set are dropped silently.
func (f *Flow) SetOrderNote(id, text string) error {
	if err := f.require("set an order note", stateSelecting, stateOrderNotes); err != nil {
		return err
	}

	picked := false
	for _, pick := range f.picks {
		if pick == id {
			picked = true
			break
		}
	}
	if !picked {
		return nil
	}

	if text == "" {
		delete(f.orders, id)
	} else {
		f.orders[id] = text
	}
	return nil
}

// AddCustomRestaurant registers a custom entry locally and queues it for
// sharing through the session envelope on the next submit.
func (f *Flow) AddCustomRestaurant(r Restaurant) error {
	if err := f.catalog.AddCustom(r); err != nil {
		return err
	}
	f.customs = append(f.customs, r)
	return nil
}

// Submit finalizes the working set. With the peer already submitted the
// result is computed synchronously as part of this transition (a sole
// common pick resolves immediately); otherwise the flow waits.
func (f *Flow) Submit(ctx context.Context) (*Session, error) {
	if err := f.require("submit", stateSelecting, stateOrderNotes); err != nil {
		return nil, err
	}

	sel, err := newSelection(f.role, f.picks, f.orders)
	if err != nil {
		return nil, err
	}

	sess, err := submitSelection(ctx, f.store, f.code, sel, f.customs)
	if err != nil {
		return nil, err
	}

	f.customs = nil
	if sess.Result != nil {
		f.state = stateResolved
	} else {
		f.state = stateWaiting
	}
	return sess, nil
}

// AwaitPeer blocks in the waiting state, polling the store at the
// configured interval until the peer submits or ctx is cancelled.
func (f *Flow) AwaitPeer(ctx context.Context) (*Session, error) {
	if err := f.require("wait for the peer", stateWaiting); err != nil {
		return nil, err
	}

	sess, err := awaitPeer(ctx, f.store, f.code, f.role, f.cfg.pollInterval)
	if err != nil {
		return nil, err
	}

	f.state = stateResolved
	return sess, nil
}

// Refresh re-reads the envelope once, advancing out of waiting if the
// peer has since submitted.
func (f *Flow) Refresh(ctx context.Context) (*Session, error) {
	if f.code == "" {
		return nil, fmt.Errorf("%w: no session joined", ErrValidation)
	}

	sess, err := f.store.Read(ctx, f.code)
	if err != nil {
		return nil, err
	}

	if f.state == stateWaiting && sess.Result != nil {
		f.state = stateResolved
	}
	return sess, nil
}

// ResolveRandom draws a uniform winner over the candidate pool.
func (f *Flow) ResolveRandom(ctx context.Context) (*Session, error) {
	if err := f.require("resolve randomly", stateResolved); err != nil {
		return nil, err
	}
	return resolveSession(ctx, f.store, f.code, resolveRandom)
}

// ResolveWheel applies a reported wheel outcome.
func (f *Flow) ResolveWheel(ctx context.Context, slice int) (*Session, error) {
	if err := f.require("resolve by wheel", stateResolved); err != nil {
		return nil, err
	}
	return resolveSession(ctx, f.store, f.code, func(res *Result, pool []string) error {
		return resolveByWheel(res, pool, slice)
	})
}

// ResolveManual records a hand-picked winner.
func (f *Flow) ResolveManual(ctx context.Context, id string) (*Session, error) {
	if err := f.require("resolve manually", stateResolved); err != nil {
		return nil, err
	}
	return resolveSession(ctx, f.store, f.code, func(res *Result, pool []string) error {
		return resolveManual(res, pool, id)
	})
}

// EditChoices re-enters selection after a submit, pre-filling from the
// stored selection. Resubmission recomputes the result from scratch.
func (f *Flow) EditChoices(ctx context.Context) error {
	if err := f.require("edit choices", stateWaiting, stateResolved); err != nil {
		return err
	}
	return f.BeginSelecting(ctx)
}

// Reset discards the persisted record and returns to the initial state.
func (f *Flow) Reset(ctx context.Context) error {
	if f.code != "" {
		if err := f.store.Delete(ctx, f.code); err != nil {
			return err
		}
	}

	f.code = ""
	f.role = ""
	f.picks = nil
	f.orders = make(map[string]string)
	f.customs = nil
	f.state = stateAwaitingSession
	return nil
}
