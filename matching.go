package main

import (
	"sort"
)

// Method records how a winner was chosen.
type Method string

const (
	MethodMatch  Method = "match"  // sole common restaurant, auto-resolved
	MethodRandom Method = "random" // uniform draw over the candidate pool
	MethodWheel  Method = "wheel"  // spinning wheel outcome over the pool
	MethodChoice Method = "choice" // a participant picked manually
)

func (m Method) valid() bool {
	switch m {
	case MethodMatch, MethodRandom, MethodWheel, MethodChoice:
		return true
	}
	return false
}

// Result is the outcome of matching two selections. Matches is set as
// soon as both selections exist; Winner and Method stay empty until a
// resolution strategy runs (or immediately, for a single match).
type Result struct {
	Matches []string `json:"matches"`
	Winner  string   `json:"winner,omitempty"`
	Method  Method   `json:"method,omitempty"`
}

// matchClass buckets a match set by how resolution may proceed.
type matchClass int

const (
	matchNone     matchClass = iota // disjoint sets, randomize over the union
	matchSingle                     // exactly one common pick, auto-resolves
	matchMultiple                   // several common picks, needs a strategy
)

func classify(matches []string) matchClass {
	switch len(matches) {
	case 0:
		return matchNone
	case 1:
		return matchSingle
	default:
		return matchMultiple
	}
}

// computeMatches intersects the two participants' restaurant sets.
// Both selections must be complete. The intersection is returned sorted,
// which also makes the operation visibly symmetric in its arguments.
func computeMatches(a, b *Selection) ([]string, error) {
	if !a.complete() || !b.complete() {
		return nil, ErrIncompleteSession
	}

	matches := make([]string, 0, selectionSize)
	for _, id := range a.Restaurants {
		if b.contains(id) {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)

	return matches, nil
}
