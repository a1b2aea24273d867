package main

import (
	"fmt"
	"time"
)

// Role identifies one of the two fixed participants in a session.
type Role string

const (
	RolePerson1 Role = "person1"
	RolePerson2 Role = "person2"
)

func (r Role) valid() bool {
	return r == RolePerson1 || r == RolePerson2
}

// peer returns the other participant's role.
func (r Role) peer() Role {
	if r == RolePerson1 {
		return RolePerson2
	}
	return RolePerson1
}

// selectionSize is the number of restaurants each participant picks.
// A selection is only ever persisted as submitted at exactly this size.
const selectionSize = 3

// Selection is one participant's submitted set of restaurant picks plus
// optional per-restaurant order notes. Immutable once submitted; edits
// replace the whole value.
type Selection struct {
	Role        Role              `json:"person"`
	Restaurants []string          `json:"restaurants"`
	Orders      map[string]string `json:"orders,omitempty"`
	Submitted   bool              `json:"submitted"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

// newSelection builds a submitted Selection. It fails unless ids holds
// exactly three unique restaurant identifiers. Order notes keyed by ids
// outside the set are dropped, not erred.
func newSelection(role Role, ids []string, orders map[string]string) (*Selection, error) {
	if !role.valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if len(ids) != selectionSize {
		return nil, fmt.Errorf("%w: got %d", ErrIncompleteSelection, len(ids))
	}

	seen := make(map[string]bool, selectionSize)
	picks := make([]string, 0, selectionSize)
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w: empty restaurant id", ErrValidation)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate restaurant id %q", ErrValidation, id)
		}
		seen[id] = true
		picks = append(picks, id)
	}

	var notes map[string]string
	for id, text := range orders {
		if !seen[id] || text == "" {
			continue
		}
		if notes == nil {
			notes = make(map[string]string, selectionSize)
		}
		notes[id] = text
	}

	return &Selection{
		Role:        role,
		Restaurants: picks,
		Orders:      notes,
		Submitted:   true,
		SubmittedAt: time.Now(),
	}, nil
}

// complete reports whether this selection counts toward matching:
// submitted with exactly three picks.
func (s *Selection) complete() bool {
	return s != nil && s.Submitted && len(s.Restaurants) == selectionSize
}

// contains reports whether id is one of the picks.
func (s *Selection) contains(id string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Restaurants {
		if r == id {
			return true
		}
	}
	return false
}
