package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session is the aggregate shared by both participants. It owns its two
// Selections and its Result outright; the store persists the whole
// envelope as one record under Code.
type Session struct {
	Code              string       `json:"code"`
	Date              string       `json:"date,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	Person1           *Selection   `json:"person1"`
	Person2           *Selection   `json:"person2"`
	Result            *Result      `json:"result"`
	CustomRestaurants []Restaurant `json:"customRestaurants,omitempty"`
}

func newSession(code, date string) *Session {
	return &Session{
		Code:      code,
		Date:      date,
		CreatedAt: time.Now(),
	}
}

func (s *Session) selection(role Role) *Selection {
	if role == RolePerson1 {
		return s.Person1
	}
	return s.Person2
}

func (s *Session) setSelection(role Role, sel *Selection) {
	if role == RolePerson1 {
		s.Person1 = sel
	} else {
		s.Person2 = sel
	}
}

// mergeCustom folds customs a participant is sharing into the envelope,
// keyed by id, never duplicating.
func (s *Session) mergeCustom(rs []Restaurant) {
	for _, r := range rs {
		if r.Platform != platformCustom || r.ID == "" {
			continue
		}
		dup := false
		for _, have := range s.CustomRestaurants {
			if have.ID == r.ID {
				dup = true
				break
			}
		}
		if !dup {
			s.CustomRestaurants = append(s.CustomRestaurants, r)
		}
	}
}

// recompute rebuilds the Result from the current selections, discarding
// any previous outcome. With both selections present, Matches is always
// populated and a single match resolves on the spot; with fewer, the
// Result is null.
func (s *Session) recompute() {
	if !s.Person1.complete() || !s.Person2.complete() {
		s.Result = nil
		return
	}

	matches, err := computeMatches(s.Person1, s.Person2)
	if err != nil {
		s.Result = nil
		return
	}

	s.Result = &Result{Matches: matches}
	if classify(matches) == matchSingle {
		// Only a singleton match auto-resolves; anything else waits
		// for an explicit strategy.
		_ = resolveByMatch(s.Result)
	}
}

// normalize coerces a record loaded from a backend into a valid envelope.
// Backends store loosely structured JSON; a selection that is not
// actually complete is dropped rather than trusted, and the
// Result-presence invariant is re-established.
func (s *Session) normalize() error {
	if s.Code == "" {
		return fmt.Errorf("%w: session record missing code", ErrValidation)
	}

	for _, role := range []Role{RolePerson1, RolePerson2} {
		sel := s.selection(role)
		if sel == nil {
			continue
		}
		if sel.Role != role || !sel.complete() {
			s.setSelection(role, nil)
		}
	}

	keep := s.CustomRestaurants[:0]
	for _, r := range s.CustomRestaurants {
		if r.Platform == platformCustom && r.ID != "" && r.Name != "" {
			keep = append(keep, r)
		}
	}
	s.CustomRestaurants = keep

	both := s.Person1.complete() && s.Person2.complete()
	switch {
	case !both:
		s.Result = nil
	case s.Result == nil:
		s.recompute()
	case s.Result.Winner != "" && !s.Result.Method.valid():
		// A winner without a method is an ad hoc shape from an older
		// record; recompute from the selections instead.
		s.recompute()
	}

	return nil
}

// marshalSession and unmarshalSession are the store-boundary codec: every
// backend persists the same JSON shape, and every read passes through
// normalize before the record reaches the engine.
func marshalSession(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

func unmarshalSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: undecodable session record: %v", ErrValidation, err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}
